package sqlite

import "database/sql"

// EnsureSchema creates the core tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
            id TEXT PRIMARY KEY,
            ciphertext BLOB NOT NULL,
            hmac BLOB,
            iv BLOB,
            crypto_version TEXT NOT NULL,
            secret_token TEXT NOT NULL,
            insert_time TIMESTAMP NOT NULL,
            expire_time TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notes_expire_time ON notes(expire_time);`,
		`CREATE TABLE IF NOT EXISTS embeds (
            note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
            embed_id TEXT NOT NULL,
            ciphertext BLOB NOT NULL,
            hmac BLOB NOT NULL,
            size_bytes INTEGER NOT NULL,
            PRIMARY KEY(note_id, embed_id)
        );`,
		`CREATE TABLE IF NOT EXISTS filters (
            name TEXT PRIMARY KEY,
            serialized BLOB NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
