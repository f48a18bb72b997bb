// Package sender defines the platform-neutral message model and the Sender
// capability every delivery backend implements.
//
// Concrete backends live in subpackages (sender/discord, sender/telegram).
// The registry in pkg/nexusevent dispatches to them by name.
package sender
