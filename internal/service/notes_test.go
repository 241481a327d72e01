package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/filter"
	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/platform/logger"
	"github.com/mcndt/noteshare.space/internal/store"
	"github.com/mcndt/noteshare.space/internal/store/sqlite"
)

// captureRecorder collects audit events for assertions.
type captureRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *captureRecorder) Record(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *captureRecorder) last(t *testing.T) events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events, "expected at least one audit event")
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T) (*NoteService, *captureRecorder, store.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	filters, err := filter.OpenSet(context.Background(), st.Filters())
	require.NoError(t, err)

	rec := &captureRecorder{}
	svc := NewNoteService(st, filters, rec, 30*24*time.Hour, logger.New("test"))
	return svc, rec, st
}

func createReq() CreateNoteRequest {
	return CreateNoteRequest{
		Ciphertext:    []byte("ciphertext"),
		HMAC:          []byte("hmac"),
		CryptoVersion: "v1",
	}
}

func TestCreateAppliesRetentionWindow(t *testing.T) {
	svc, rec, _ := newTestService(t)
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	note, err := svc.Create(context.Background(), createReq(), RequestInfo{Host: "1.2.3.4"})
	require.NoError(t, err)

	assert.Equal(t, fixed, note.InsertTime)
	assert.Equal(t, fixed.Add(30*24*time.Hour), note.ExpireTime)
	assert.NotEmpty(t, note.ID)
	assert.NotEmpty(t, note.SecretToken)

	evt := rec.last(t)
	assert.Equal(t, events.TypeWrite, evt.Type)
	assert.True(t, evt.Success)
	assert.Equal(t, note.ID, evt.NoteID)
	assert.Equal(t, 30, evt.ExpireWindowDays)
}

func TestCreateDuplicateEmbedFails(t *testing.T) {
	svc, rec, _ := newTestService(t)

	req := createReq()
	req.Embeds = []*model.Embed{
		{EmbedID: "a", Ciphertext: []byte("x"), HMAC: []byte("h")},
		{EmbedID: "a", Ciphertext: []byte("y"), HMAC: []byte("h")},
	}
	_, err := svc.Create(context.Background(), req, RequestInfo{})
	assert.ErrorIs(t, err, model.ErrDuplicateEmbed)

	evt := rec.last(t)
	assert.False(t, evt.Success)
	assert.NotEmpty(t, evt.Error)
}

func TestGetFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Create(ctx, createReq(), RequestInfo{})
	require.NoError(t, err)

	note, outcome, err := svc.Get(ctx, stored.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, model.Found, outcome)
	assert.Equal(t, []byte("ciphertext"), note.Ciphertext)
}

func TestGetNeverExisted(t *testing.T) {
	svc, _, _ := newTestService(t)

	note, outcome, err := svc.Get(context.Background(), "never-created", RequestInfo{})
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.Equal(t, model.NotFound, outcome)
}

func TestDeleteLifecycle(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	stored, err := svc.Create(ctx, createReq(), RequestInfo{})
	require.NoError(t, err)

	// wrong token is rejected
	err = svc.Delete(ctx, stored.ID, "bogus-token", RequestInfo{})
	assert.ErrorIs(t, err, model.ErrWrongToken)

	// correct token deletes
	err = svc.Delete(ctx, stored.ID, stored.SecretToken, RequestInfo{})
	require.NoError(t, err)

	evt := rec.last(t)
	assert.Equal(t, events.TypeDelete, evt.Type)
	assert.True(t, evt.Success)

	// the id is now classified as deleted, not missing
	note, outcome, err := svc.Get(ctx, stored.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.Equal(t, model.GoneDeleted, outcome)

	// deleting again reports absence
	err = svc.Delete(ctx, stored.ID, stored.SecretToken, RequestInfo{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClassifyPrefersDeletedOverExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.filters.Expired.Add(ctx, "both", "only-expired"))
	require.NoError(t, svc.filters.Deleted.Add(ctx, "both"))

	assert.Equal(t, model.GoneDeleted, svc.Classify("both"))
	assert.Equal(t, model.GoneExpired, svc.Classify("only-expired"))
	assert.Equal(t, model.NotFound, svc.Classify("neither"))
}

func TestGetEmbed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := createReq()
	req.Embeds = []*model.Embed{{EmbedID: "img", Ciphertext: []byte("data"), HMAC: []byte("h")}}
	stored, err := svc.Create(ctx, req, RequestInfo{})
	require.NoError(t, err)

	embed, err := svc.GetEmbed(ctx, stored.ID, "img")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), embed.Ciphertext)

	_, err = svc.GetEmbed(ctx, stored.ID, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
