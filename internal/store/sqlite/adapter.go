package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/store"
)

// SqliteStore implements store.Store using the modernc SQLite driver.
type SqliteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database file and applies the schema.
func New(path string) (*SqliteStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (*SqliteStore, error) {
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

// DB exposes the underlying *sql.DB connection.
func (s *SqliteStore) DB() *sql.DB { return s.db }

func (s *SqliteStore) Notes() store.Notes     { return &noteRepo{db: s.db} }
func (s *SqliteStore) Filters() store.Filters { return &filterRepo{db: s.db} }

func (s *SqliteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStore) Close() error { return s.db.Close() }

// --- Note operations ---

type noteRepo struct {
	db *sql.DB
}

func (r *noteRepo) Create(ctx context.Context, n *model.Note, embeds []*model.Embed) (*model.Note, error) {
	if !n.ExpireTime.After(n.InsertTime) {
		return nil, fmt.Errorf("expire_time must be after insert_time")
	}

	stored := *n
	stored.ID = uuid.New().String()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO notes
        (id, ciphertext, hmac, iv, crypto_version, secret_token, insert_time, expire_time)
        VALUES (?,?,?,?,?,?,?,?)`,
		stored.ID, stored.Ciphertext, nullBytes(stored.HMAC), nullBytes(stored.IV),
		stored.CryptoVersion, stored.SecretToken, stored.InsertTime, stored.ExpireTime)
	if err != nil {
		return nil, mapConstraintErr(err)
	}

	for _, e := range embeds {
		_, err = tx.ExecContext(ctx, `INSERT INTO embeds
            (note_id, embed_id, ciphertext, hmac, size_bytes)
            VALUES (?,?,?,?,?)`,
			stored.ID, e.EmbedID, e.Ciphertext, e.HMAC, len(e.Ciphertext))
		if err != nil {
			return nil, mapConstraintErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *noteRepo) Get(ctx context.Context, id string) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, ciphertext, hmac, iv, crypto_version,
        secret_token, insert_time, expire_time FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

func (r *noteRepo) GetEmbed(ctx context.Context, noteID, embedID string) (*model.Embed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT note_id, embed_id, ciphertext, hmac, size_bytes
        FROM embeds WHERE note_id = ? AND embed_id = ?`, noteID, embedID)
	var e model.Embed
	if err := row.Scan(&e.NoteID, &e.EmbedID, &e.Ciphertext, &e.HMAC, &e.SizeBytes); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *noteRepo) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *noteRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.Note, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, ciphertext, hmac, iv, crypto_version,
        secret_token, insert_time, expire_time FROM notes WHERE expire_time <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// --- Filter blob operations ---

type filterRepo struct {
	db *sql.DB
}

func (r *filterRepo) Get(ctx context.Context, name string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT serialized FROM filters WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (r *filterRepo) Upsert(ctx context.Context, name string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO filters (name, serialized) VALUES (?,?)
        ON CONFLICT(name) DO UPDATE SET serialized = excluded.serialized`, name, blob)
	return err
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Ciphertext, &n.HMAC, &n.IV, &n.CryptoVersion,
		&n.SecretToken, &n.InsertTime, &n.ExpireTime)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// mapConstraintErr translates SQLite constraint failures into domain errors.
func mapConstraintErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: embeds"):
		return model.ErrDuplicateEmbed
	case strings.Contains(msg, "FOREIGN KEY constraint"):
		return model.ErrNotFound
	default:
		return err
	}
}
