package store

import (
	"context"
	"time"

	"github.com/mcndt/noteshare.space/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Notes() Notes
	Filters() Filters
	HealthCheck(ctx context.Context) error
	Close() error
}

// Notes is the durable repository for notes and their embeds.
type Notes interface {
	// Create inserts the note and all embeds in one transaction. The note id
	// is assigned by the store. A duplicate (note_id, embed_id) pair rolls
	// back the whole unit of work and returns model.ErrDuplicateEmbed.
	Create(ctx context.Context, n *model.Note, embeds []*model.Embed) (*model.Note, error)

	// Get returns the note or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Note, error)

	// GetEmbed returns one embed of a note or model.ErrNotFound.
	GetEmbed(ctx context.Context, noteID, embedID string) (*model.Embed, error)

	// Delete removes the given ids, returning how many rows were deleted.
	// Missing ids are not an error. Embeds cascade with their parent.
	Delete(ctx context.Context, ids []string) (int, error)

	// ListExpired returns all notes whose expire time is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]*model.Note, error)
}

// Filters persists tombstone filter blobs keyed by name.
type Filters interface {
	// Get returns the serialized blob for name or model.ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Upsert creates or overwrites the blob for name.
	Upsert(ctx context.Context, name string, blob []byte) error
}
