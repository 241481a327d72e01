package model

import "time"

// Note is an encrypted note as stored by the server. The ciphertext and the
// integrity fields are opaque: encryption and decryption happen entirely on
// the client, selected by CryptoVersion. Exactly one of HMAC or IV is set.
type Note struct {
	ID            string    `json:"note_id"`
	Ciphertext    []byte    `json:"ciphertext"`
	HMAC          []byte    `json:"hmac,omitempty"`
	IV            []byte    `json:"iv,omitempty"`
	CryptoVersion string    `json:"crypto_version"`
	SecretToken   string    `json:"-"`
	InsertTime    time.Time `json:"insert_time"`
	ExpireTime    time.Time `json:"expire_time"`
}

// Size returns the stored payload size in bytes.
func (n *Note) Size() int {
	return len(n.Ciphertext) + len(n.HMAC) + len(n.IV)
}

// Embed is an encrypted attachment belonging to exactly one note. EmbedID is
// chosen by the client and unique only within the parent note.
type Embed struct {
	NoteID     string `json:"note_id"`
	EmbedID    string `json:"embed_id"`
	Ciphertext []byte `json:"ciphertext"`
	HMAC       []byte `json:"hmac"`
	SizeBytes  int    `json:"size_bytes"`
}

// Outcome classifies why a note lookup did or did not produce a row.
type Outcome int

const (
	// Found: the note exists and was returned.
	Found Outcome = iota
	// NotFound: the id was never stored.
	NotFound
	// GoneExpired: the note existed and was purged after its retention window.
	GoneExpired
	// GoneDeleted: the note existed and its owner deleted it.
	GoneDeleted
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case GoneExpired:
		return "expired"
	case GoneDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
