package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcndt/noteshare.space/internal/model"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))

	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func validNotePost() NotePostInput {
	return NotePostInput{
		Ciphertext:    "Y2lwaGVy",
		HMAC:          "aG1hYw==",
		CryptoVersion: "v1",
		UserID:        "abcdef123456b1c5",
		PluginVersion: "0.8.1",
	}
}

func TestNotePostValid(t *testing.T) {
	assert.NoError(t, NotePost(validNotePost()))

	in := validNotePost()
	in.HMAC = ""
	in.IV = "aXY="
	assert.NoError(t, NotePost(in))

	in = validNotePost()
	in.UserID = ""
	in.PluginVersion = ""
	assert.NoError(t, NotePost(in))
}

func TestNotePostFieldFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NotePostInput)
		field  string
	}{
		{"empty ciphertext", func(in *NotePostInput) { in.Ciphertext = "" }, "ciphertext"},
		{"non-base64 ciphertext", func(in *NotePostInput) { in.Ciphertext = "%%%" }, "ciphertext"},
		{"hmac and iv together", func(in *NotePostInput) { in.IV = "aXY=" }, "hmac"},
		{"neither hmac nor iv", func(in *NotePostInput) { in.HMAC = "" }, "hmac"},
		{"non-base64 iv", func(in *NotePostInput) { in.HMAC = ""; in.IV = "%%%" }, "iv"},
		{"bad crypto version", func(in *NotePostInput) { in.CryptoVersion = "version1" }, "crypto_version"},
		{"non-hex user id", func(in *NotePostInput) { in.UserID = "zzzz" }, "user_id"},
		{"bad plugin version", func(in *NotePostInput) { in.PluginVersion = "1.0" }, "plugin_version"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validNotePost()
			tc.mutate(&in)
			assert.Contains(t, fields(t, NotePost(in)), tc.field)
		})
	}
}

func TestNotePostCollectsAllFailures(t *testing.T) {
	err := NotePost(NotePostInput{CryptoVersion: "bad"})
	assert.Len(t, fields(t, err), 3)
}

func TestNotePostEmbeds(t *testing.T) {
	in := validNotePost()
	in.Embeds = []EmbedInput{{EmbedID: "a.png", Ciphertext: "YQ==", HMAC: "aA=="}}
	assert.NoError(t, NotePost(in))

	in.Embeds = []EmbedInput{{Ciphertext: "%%%", HMAC: ""}}
	names := fields(t, NotePost(in))
	assert.Contains(t, names, "embeds.embed_id")
	assert.Contains(t, names, "embeds.ciphertext")
	assert.Contains(t, names, "embeds.hmac")
}

func TestNoteDelete(t *testing.T) {
	assert.NoError(t, NoteDelete(NoteDeleteInput{SecretToken: "dG9rZW4="}))

	names := fields(t, NoteDelete(NoteDeleteInput{}))
	assert.Contains(t, names, "secret_token")

	names = fields(t, NoteDelete(NoteDeleteInput{SecretToken: "%%%", UserID: "nothex!"}))
	assert.Contains(t, names, "secret_token")
	assert.Contains(t, names, "user_id")
}
