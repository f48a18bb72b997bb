package sender

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidConfig  = errors.New("invalid sender configuration")
	ErrNotConfigured  = errors.New("sender has not been configured")
)

// Category classifies a delivery failure.
type Category string

const (
	CategoryMalformed   Category = "malformed"
	CategoryAuth        Category = "authentication"
	CategoryNotFound    Category = "not_found"
	CategoryRateLimited Category = "rate_limited"
	CategoryServer      Category = "server"
	CategoryAPI         Category = "api"
	CategoryNetwork     Category = "network"
	CategoryTimeout     Category = "timeout"
	CategoryUnknown     Category = "unknown"
)

// DeliveryError is returned by a sender once it gives up on a message.
type DeliveryError struct {
	Platform Platform
	Category Category
	// Status is the HTTP (or API) status code, 0 for transport failures.
	Status int
	// Attempts is the number of requests made, including the failing one.
	Attempts int
	Msg      string
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: delivery failed: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("%s: delivery failed", e.Platform)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsCategory reports whether err is a DeliveryError of category c.
func IsCategory(err error, c Category) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Category == c
}
