package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/store"
)

// PostgresStore implements store.Store using PostgreSQL via database/sql
// (pgx driver).
type PostgresStore struct {
	db *sql.DB
}

// Open returns a *sql.DB using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection and applies the schema.
func New(dsn string) (*PostgresStore, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB constructs a store adapter from an existing DB connection.
func NewWithDB(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("nil db")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Notes() store.Notes     { return &noteRepo{db: s.db} }
func (s *PostgresStore) Filters() store.Filters { return &filterRepo{db: s.db} }

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, "SELECT 1")
	var one int
	return row.Scan(&one)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

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

	_, err = tx.ExecContext(ctx, `
        INSERT INTO notes (id, ciphertext, hmac, iv, crypto_version, secret_token, insert_time, expire_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, stored.ID, stored.Ciphertext, nullBytes(stored.HMAC), nullBytes(stored.IV),
		stored.CryptoVersion, stored.SecretToken, stored.InsertTime, stored.ExpireTime)
	if err != nil {
		return nil, mapConstraintErr(err)
	}

	for _, e := range embeds {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO embeds (note_id, embed_id, ciphertext, hmac, size_bytes)
            VALUES ($1,$2,$3,$4,$5)
        `, stored.ID, e.EmbedID, e.Ciphertext, e.HMAC, len(e.Ciphertext))
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
	row := r.db.QueryRowContext(ctx, `
        SELECT id, ciphertext, hmac, iv, crypto_version, secret_token, insert_time, expire_time
        FROM notes WHERE id = $1
    `, id)
	return scanNote(row)
}

func (r *noteRepo) GetEmbed(ctx context.Context, noteID, embedID string) (*model.Embed, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT note_id, embed_id, ciphertext, hmac, size_bytes
        FROM embeds WHERE note_id = $1 AND embed_id = $2
    `, noteID, embedID)
	var e model.Embed
	if err := row.Scan(&e.NoteID, &e.EmbedID, &e.Ciphertext, &e.HMAC, &e.SizeBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
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
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, ciphertext, hmac, iv, crypto_version, secret_token, insert_time, expire_time
        FROM notes WHERE expire_time <= $1
    `, now)
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
		`SELECT serialized FROM filters WHERE name = $1`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (r *filterRepo) Upsert(ctx context.Context, name string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO filters (name, serialized) VALUES ($1,$2)
        ON CONFLICT (name) DO UPDATE SET serialized = EXCLUDED.serialized
    `, name, blob)
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
	if errors.Is(err, sql.ErrNoRows) {
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

// mapConstraintErr translates Postgres constraint violations into domain errors.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "embeds") {
				return model.ErrDuplicateEmbed
			}
		case "23503": // foreign_key_violation
			return model.ErrNotFound
		}
	}
	return err
}
