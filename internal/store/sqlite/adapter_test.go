package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testNote() *model.Note {
	now := time.Now().UTC()
	return &model.Note{
		Ciphertext:    []byte("ciphertext-bytes"),
		HMAC:          []byte("hmac-bytes"),
		CryptoVersion: "v1",
		SecretToken:   "token",
		InsertTime:    now,
		ExpireTime:    now.Add(24 * time.Hour),
	}
}

func TestNoteCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.Notes().Create(ctx, testNote(), nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected assigned note id")
	}

	got, err := s.Notes().Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if string(got.Ciphertext) != "ciphertext-bytes" {
		t.Fatalf("ciphertext mismatch: %q", got.Ciphertext)
	}
	if string(got.HMAC) != "hmac-bytes" {
		t.Fatalf("hmac mismatch: %q", got.HMAC)
	}
	if len(got.IV) != 0 {
		t.Fatalf("expected empty iv, got %q", got.IV)
	}
	if got.SecretToken != "token" {
		t.Fatalf("secret token mismatch: %q", got.SecretToken)
	}
	if !got.ExpireTime.After(got.InsertTime) {
		t.Fatal("expire time must be after insert time")
	}
}

func TestNoteCreateRejectsBadExpiry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n := testNote()
	n.ExpireTime = n.InsertTime
	if _, err := s.Notes().Create(ctx, n, nil); err == nil {
		t.Fatal("expected error for expire_time == insert_time")
	}
}

func TestNoteGetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Notes().Get(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateWithEmbeds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	embeds := []*model.Embed{
		{EmbedID: "img-1", Ciphertext: []byte("aaa"), HMAC: []byte("h1")},
		{EmbedID: "img-2", Ciphertext: []byte("bbbb"), HMAC: []byte("h2")},
	}
	stored, err := s.Notes().Create(ctx, testNote(), embeds)
	if err != nil {
		t.Fatalf("create note with embeds: %v", err)
	}

	e, err := s.Notes().GetEmbed(ctx, stored.ID, "img-2")
	if err != nil {
		t.Fatalf("get embed: %v", err)
	}
	if e.SizeBytes != 4 {
		t.Fatalf("expected size_bytes 4, got %d", e.SizeBytes)
	}
	if string(e.Ciphertext) != "bbbb" {
		t.Fatalf("embed ciphertext mismatch: %q", e.Ciphertext)
	}

	if _, err := s.Notes().GetEmbed(ctx, stored.ID, "img-3"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown embed, got %v", err)
	}
}

func TestCreateDuplicateEmbedRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	embeds := []*model.Embed{
		{EmbedID: "img-1", Ciphertext: []byte("aaa"), HMAC: []byte("h1")},
		{EmbedID: "img-1", Ciphertext: []byte("bbb"), HMAC: []byte("h2")},
	}
	_, err := s.Notes().Create(ctx, testNote(), embeds)
	if !errors.Is(err, model.ErrDuplicateEmbed) {
		t.Fatalf("expected ErrDuplicateEmbed, got %v", err)
	}

	// the whole unit of work must have rolled back
	expired, err := s.Notes().ListExpired(ctx, time.Now().UTC().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expected no persisted notes after rollback, found %d", len(expired))
	}
}

func TestDeleteCascadesEmbeds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.Notes().Create(ctx, testNote(), []*model.Embed{
		{EmbedID: "img-1", Ciphertext: []byte("aaa"), HMAC: []byte("h1")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := s.Notes().Delete(ctx, []string{stored.ID, "not-a-note"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected delete count 1, got %d", count)
	}

	if _, err := s.Notes().GetEmbed(ctx, stored.ID, "img-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected embed to cascade, got %v", err)
	}
}

func TestDeleteEmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	count, err := s.Notes().Delete(ctx, nil)
	if err != nil || count != 0 {
		t.Fatalf("empty delete: count=%d err=%v", count, err)
	}
	count, err = s.Notes().Delete(ctx, []string{"ghost"})
	if err != nil || count != 0 {
		t.Fatalf("missing delete: count=%d err=%v", count, err)
	}
}

func TestListExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	past := testNote()
	past.InsertTime = now.Add(-48 * time.Hour)
	past.ExpireTime = now.Add(-1 * time.Hour)
	stored, err := s.Notes().Create(ctx, past, nil)
	if err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := s.Notes().Create(ctx, testNote(), nil); err != nil {
		t.Fatalf("create live: %v", err)
	}

	expired, err := s.Notes().ListExpired(ctx, now)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != stored.ID {
		t.Fatalf("expected only the expired note, got %d", len(expired))
	}
}

func TestFilterBlobUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Filters().Get(ctx, "expiredNotes"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on cold start, got %v", err)
	}

	if err := s.Filters().Upsert(ctx, "expiredNotes", []byte{1, 2, 3}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Filters().Upsert(ctx, "expiredNotes", []byte{4, 5}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	blob, err := s.Filters().Get(ctx, "expiredNotes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(blob) != 2 || blob[0] != 4 {
		t.Fatalf("expected overwritten blob, got %v", blob)
	}
}
