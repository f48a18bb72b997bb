package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"

	"nexusevent/internal/config"
)

// ErrAlreadyRunning is returned by Start when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another nexusevent daemon is already running")

func lockPath(cfgPath string, cfg *config.Config) string {
	if cfg != nil {
		if p := strings.TrimSpace(cfg.Daemon.LockFile); p != "" {
			return p
		}
	}
	return cfgPath + ".lock"
}

func acquireLock(l *flock.Flock) error {
	ok, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, l.Path())
	}
	return nil
}
