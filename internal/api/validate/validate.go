// Package validate holds flat validation functions, one per request shape.
// Each returns all field-level failures at once rather than stopping at the
// first.
package validate

import (
	"encoding/base64"
	"regexp"

	"github.com/mcndt/noteshare.space/internal/model"
)

var (
	cryptoVersionRx = regexp.MustCompile(`^v[0-9]+$`)
	pluginVersionRx = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
	hexRx           = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// EmbedInput is one embed within a note creation request, fields still in
// their wire encoding.
type EmbedInput struct {
	EmbedID    string
	Ciphertext string
	HMAC       string
}

// NotePostInput is a note creation request, fields still in their wire
// encoding.
type NotePostInput struct {
	Ciphertext    string
	HMAC          string
	IV            string
	CryptoVersion string
	UserID        string
	PluginVersion string
	Embeds        []EmbedInput
}

// NoteDeleteInput is a note deletion request.
type NoteDeleteInput struct {
	UserID        string
	PluginVersion string
	SecretToken   string
}

// NotePost validates a note creation request. Returns nil or a
// *model.ValidationError listing every failed field.
func NotePost(in NotePostInput) error {
	verr := &model.ValidationError{}

	if in.Ciphertext == "" {
		verr.Add("ciphertext", "is required")
	} else if !isBase64(in.Ciphertext) {
		verr.Add("ciphertext", "must be base64")
	}

	// exactly one of hmac/iv carries the integrity material, selected by the
	// client-side crypto scheme
	switch {
	case in.HMAC == "" && in.IV == "":
		verr.Add("hmac", "exactly one of hmac or iv is required")
	case in.HMAC != "" && in.IV != "":
		verr.Add("hmac", "hmac and iv are mutually exclusive")
	case in.HMAC != "" && !isBase64(in.HMAC):
		verr.Add("hmac", "must be base64")
	case in.IV != "" && !isBase64(in.IV):
		verr.Add("iv", "must be base64")
	}

	if !cryptoVersionRx.MatchString(in.CryptoVersion) {
		verr.Add("crypto_version", "must match ^v[0-9]+$")
	}

	validateIdentity(verr, in.UserID, in.PluginVersion)

	for _, e := range in.Embeds {
		if e.EmbedID == "" {
			verr.Add("embeds.embed_id", "is required")
		}
		if e.Ciphertext == "" {
			verr.Add("embeds.ciphertext", "is required")
		} else if !isBase64(e.Ciphertext) {
			verr.Add("embeds.ciphertext", "must be base64")
		}
		if e.HMAC == "" {
			verr.Add("embeds.hmac", "is required")
		} else if !isBase64(e.HMAC) {
			verr.Add("embeds.hmac", "must be base64")
		}
	}

	return verr.OrNil()
}

// NoteDelete validates a note deletion request.
func NoteDelete(in NoteDeleteInput) error {
	verr := &model.ValidationError{}

	if in.SecretToken == "" {
		verr.Add("secret_token", "is required")
	} else if !isBase64(in.SecretToken) {
		verr.Add("secret_token", "must be base64")
	}

	validateIdentity(verr, in.UserID, in.PluginVersion)

	return verr.OrNil()
}

// validateIdentity checks the optional client identity fields shared by all
// mutating requests. Checksum verification happens separately in the handler.
func validateIdentity(verr *model.ValidationError, userID, pluginVersion string) {
	if userID != "" && !hexRx.MatchString(userID) {
		verr.Add("user_id", "must be hexadecimal")
	}
	if pluginVersion != "" && !pluginVersionRx.MatchString(pluginVersion) {
		verr.Add("plugin_version", "must be a semantic version")
	}
}

func isBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
