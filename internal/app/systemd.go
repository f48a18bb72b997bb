package app

import (
	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyFunc reports a service state to the init system.
type NotifyFunc func(state string) error

// sdNotify is a no-op outside systemd (NOTIFY_SOCKET unset).
func sdNotify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}
