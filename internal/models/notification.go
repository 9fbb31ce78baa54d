package models

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a user-facing message emitted by the engine.
type Notification struct {
	Message     string    `json:"message"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	FarmID      string    `json:"farm_id,omitempty"`
	Action      string    `json:"action,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
