// Package events defines the narrow interface through which the core reports
// lifecycle actions to the external audit sink. Events are append-only and
// never read back.
package events

import "context"

// Type is the lifecycle action an event records.
type Type string

const (
	TypeWrite  Type = "WRITE"
	TypeRead   Type = "READ"
	TypeDelete Type = "DELETE"
	TypePurge  Type = "PURGE"
)

// Event is one immutable audit record.
type Event struct {
	Type             Type   `json:"type"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
	Host             string `json:"host,omitempty"`
	NoteID           string `json:"note_id,omitempty"`
	SizeBytes        int    `json:"size_bytes,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	PluginVersion    string `json:"user_plugin_version,omitempty"`
	ExpireWindowDays int    `json:"expire_window_days,omitempty"`
}

// Recorder appends one event to the audit sink. Implementations must never
// fail the caller: recording is fire-and-forget from the core's perspective.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
