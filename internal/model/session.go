package model

import (
	"time"
)

// DeliverySession is one cancellable unit of streamed response delivery.
// A session is distinct from the conversation thread it belongs to: stopping
// a session abandons the remaining chunks of a single response, nothing else.
type DeliverySession struct {
	ID              string    `json:"sessionId"`
	ThreadID        string    `json:"threadId"`
	Active          bool      `json:"isActive"`
	ChunksDelivered int       `json:"chunksDelivered"`
	CreatedAt       time.Time `json:"createdAt"`
}
