// Command nexusevent sends notifications through configured senders.
//
// Senders come from a config file (--config) or, for a single Discord
// webhook, from --webhook / DISCORD_WEBHOOK_URL. The watch subcommand runs
// the long-lived daemon: scheduled broadcasts, audit log and config reload.
package main
