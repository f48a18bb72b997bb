package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

const DefaultBusyTimeout = time.Second

// Config configures storage. An empty Driver or "none" disables it.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryRecord is one sender's outcome for one message.
// Keep it compact and schema-stable.
type DeliveryRecord struct {
	At          time.Time `json:"at"`
	Sender      string    `json:"sender"`
	Platform    string    `json:"platform"`
	Title       string    `json:"title"`
	BroadcastID string    `json:"broadcast_id,omitempty"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	TookMS      int64     `json:"took_ms"`
}
