package nexusevent

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName      = errors.New("sender name cannot be empty")
	ErrNilSender      = errors.New("sender cannot be nil")
	ErrSenderNotFound = errors.New("sender does not exist")
)

// SenderError attributes a broadcast failure to a registered sender.
type SenderError struct {
	Name string
	Err  error
}

func (e *SenderError) Error() string { return fmt.Sprintf("sender %q failed: %v", e.Name, e.Err) }

func (e *SenderError) Unwrap() error { return e.Err }
