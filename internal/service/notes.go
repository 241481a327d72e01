// Package service orchestrates the note lifecycle: transactional creation,
// retrieval with gone-classification, owner-authorized deletion.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/filter"
	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/store"
)

// RequestInfo carries per-request audit context through the service layer.
type RequestInfo struct {
	Host          string
	UserID        string
	PluginVersion string
}

// CreateNoteRequest is the domain-level input for creating a note with
// zero or more embeds. All byte fields are already decoded.
type CreateNoteRequest struct {
	Ciphertext    []byte
	HMAC          []byte
	IV            []byte
	CryptoVersion string
	Embeds        []*model.Embed
}

// NoteService composes the repository, the tombstone filters and the audit
// recorder. It is stateless per call; the filters hold the only mutable state.
type NoteService struct {
	store    store.Store
	filters  *filter.Set
	recorder events.Recorder
	window   time.Duration
	log      zerolog.Logger

	now func() time.Time
}

// NewNoteService wires a service. window is the retention window applied to
// every created note.
func NewNoteService(st store.Store, filters *filter.Set, rec events.Recorder, window time.Duration, log zerolog.Logger) *NoteService {
	return &NoteService{
		store:    st,
		filters:  filters,
		recorder: rec,
		window:   window,
		log:      log.With().Str("component", "notes").Logger(),
		now:      time.Now,
	}
}

// ExpireWindowDays returns the retention window in whole days, as reported
// in write audit events.
func (s *NoteService) ExpireWindowDays() int {
	return int(s.window / (24 * time.Hour))
}

// Create stores a note and its embeds in one atomic unit of work and returns
// the stored note carrying the assigned id and secret token.
func (s *NoteService) Create(ctx context.Context, req CreateNoteRequest, info RequestInfo) (*model.Note, error) {
	evt := events.Event{
		Type:          events.TypeWrite,
		Host:          info.Host,
		UserID:        info.UserID,
		PluginVersion: info.PluginVersion,
	}

	token, err := generateToken()
	if err != nil {
		evt.Error = err.Error()
		s.recorder.Record(ctx, evt)
		return nil, err
	}

	now := s.now().UTC()
	note := &model.Note{
		Ciphertext:    req.Ciphertext,
		HMAC:          req.HMAC,
		IV:            req.IV,
		CryptoVersion: req.CryptoVersion,
		SecretToken:   token,
		InsertTime:    now,
		ExpireTime:    now.Add(s.window),
	}

	stored, err := s.store.Notes().Create(ctx, note, req.Embeds)
	if err != nil {
		evt.Error = err.Error()
		s.recorder.Record(ctx, evt)
		return nil, err
	}

	evt.Success = true
	evt.NoteID = stored.ID
	evt.SizeBytes = stored.Size()
	evt.ExpireWindowDays = s.ExpireWindowDays()
	s.recorder.Record(ctx, evt)
	return stored, nil
}

// Get returns the note when present. When absent, the returned outcome
// explains why: never existed, expired, or deleted.
func (s *NoteService) Get(ctx context.Context, id string, info RequestInfo) (*model.Note, model.Outcome, error) {
	evt := events.Event{Type: events.TypeRead, Host: info.Host, NoteID: id}

	note, err := s.store.Notes().Get(ctx, id)
	if err == nil {
		evt.Success = true
		evt.SizeBytes = note.Size()
		s.recorder.Record(ctx, evt)
		return note, model.Found, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		evt.Error = err.Error()
		s.recorder.Record(ctx, evt)
		return nil, model.NotFound, err
	}

	outcome := s.Classify(id)
	evt.Error = "note " + outcome.String()
	s.recorder.Record(ctx, evt)
	return nil, outcome, nil
}

// Classify answers why an absent id is absent. The deleted filter is checked
// before the expired filter: an id present in both reports deletion.
func (s *NoteService) Classify(id string) model.Outcome {
	if s.filters.Deleted.Has(id) {
		return model.GoneDeleted
	}
	if s.filters.Expired.Has(id) {
		return model.GoneExpired
	}
	return model.NotFound
}

// GetEmbed returns one embed of a note, or model.ErrNotFound.
func (s *NoteService) GetEmbed(ctx context.Context, noteID, embedID string) (*model.Embed, error) {
	return s.store.Notes().GetEmbed(ctx, noteID, embedID)
}

// Delete erases a note after verifying the caller's secret token, and records
// the id in the deleted tombstone filter. Returns model.ErrNotFound when the
// note is absent and model.ErrWrongToken on a token mismatch.
func (s *NoteService) Delete(ctx context.Context, id, secretToken string, info RequestInfo) error {
	evt := events.Event{
		Type:          events.TypeDelete,
		Host:          info.Host,
		UserID:        info.UserID,
		PluginVersion: info.PluginVersion,
	}

	note, err := s.store.Notes().Get(ctx, id)
	if err != nil {
		evt.Error = err.Error()
		s.recorder.Record(ctx, evt)
		return err
	}

	if subtle.ConstantTimeCompare([]byte(note.SecretToken), []byte(secretToken)) != 1 {
		evt.Error = model.ErrWrongToken.Error()
		s.recorder.Record(ctx, evt)
		return model.ErrWrongToken
	}

	if _, err := s.store.Notes().Delete(ctx, []string{id}); err != nil {
		evt.Error = err.Error()
		s.recorder.Record(ctx, evt)
		return err
	}

	// The row is gone either way; a failed filter write only degrades the
	// gone-reason for this id to a 404.
	if err := s.filters.Deleted.Add(ctx, id); err != nil {
		s.log.Error().Err(err).Str("note_id", id).Msg("failed to record deleted tombstone")
	}

	evt.Success = true
	evt.NoteID = id
	evt.SizeBytes = note.Size()
	s.recorder.Record(ctx, evt)
	return nil
}
