package entity

import "time"

// Validation is the host-facing record of a pin that the backend accepted.
type Validation struct {
	DialogID    string
	Purpose     string
	RequestID   string
	ValidatedAt time.Time
}
