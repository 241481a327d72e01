package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcndt/noteshare.space/internal/api/respond"
	"github.com/mcndt/noteshare.space/internal/api/validate"
	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/identity"
	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/service"
)

// NoteHandler handles note-related HTTP requests (thin transport layer).
type NoteHandler struct {
	svc      *service.NoteService
	recorder events.Recorder

	frontendURL string
	// plainBodyLimit is the body ceiling for requests without embeds; the
	// route-level ceiling already caps embed-bearing requests.
	plainBodyLimit int64
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(svc *service.NoteService, rec events.Recorder, frontendURL string, plainBodyLimit int64) *NoteHandler {
	return &NoteHandler{
		svc:            svc,
		recorder:       rec,
		frontendURL:    frontendURL,
		plainBodyLimit: plainBodyLimit,
	}
}

type embedRequest struct {
	EmbedID    string `json:"embed_id"`
	Ciphertext string `json:"ciphertext"`
	HMAC       string `json:"hmac"`
}

type notePostRequest struct {
	Ciphertext    string         `json:"ciphertext"`
	HMAC          string         `json:"hmac,omitempty"`
	IV            string         `json:"iv,omitempty"`
	CryptoVersion string         `json:"crypto_version"`
	UserID        string         `json:"user_id,omitempty"`
	PluginVersion string         `json:"plugin_version,omitempty"`
	Embeds        []embedRequest `json:"embeds,omitempty"`
}

type notePostResponse struct {
	ViewURL     string    `json:"view_url"`
	ExpireTime  time.Time `json:"expire_time"`
	NoteID      string    `json:"note_id"`
	SecretToken string    `json:"secret_token"`
}

type noteDeleteRequest struct {
	UserID        string `json:"user_id,omitempty"`
	PluginVersion string `json:"plugin_version,omitempty"`
	SecretToken   string `json:"secret_token"`
}

// CreateNote handles POST /api/note.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req notePostRequest
	if ok := decodeBody(w, r, &req); !ok {
		return
	}
	if req.CryptoVersion == "" {
		req.CryptoVersion = "v1"
	}

	failEvent := events.Event{
		Type:          events.TypeWrite,
		Host:          clientIP(r),
		UserID:        req.UserID,
		PluginVersion: req.PluginVersion,
	}

	in := validate.NotePostInput{
		Ciphertext:    req.Ciphertext,
		HMAC:          req.HMAC,
		IV:            req.IV,
		CryptoVersion: req.CryptoVersion,
		UserID:        req.UserID,
		PluginVersion: req.PluginVersion,
	}
	for _, e := range req.Embeds {
		in.Embeds = append(in.Embeds, validate.EmbedInput{
			EmbedID: e.EmbedID, Ciphertext: e.Ciphertext, HMAC: e.HMAC,
		})
	}
	if err := validate.NotePost(in); err != nil {
		failEvent.Error = err.Error()
		h.recorder.Record(r.Context(), failEvent)
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			respond.WriteValidationError(w, verr)
		} else {
			respond.WriteBadRequest(w, err.Error())
		}
		return
	}

	if req.UserID != "" && !identity.Validate(req.UserID) {
		failEvent.Error = "invalid user id (checksum failed)"
		h.recorder.Record(r.Context(), failEvent)
		respond.WriteBadRequest(w, "invalid user id (checksum failed)")
		return
	}

	// duplicate embed ids within one request conflict before touching storage
	seen := make(map[string]bool, len(req.Embeds))
	for _, e := range req.Embeds {
		if seen[e.EmbedID] {
			failEvent.Error = model.ErrDuplicateEmbed.Error()
			h.recorder.Record(r.Context(), failEvent)
			respond.WriteError(w, http.StatusConflict, model.ErrDuplicateEmbed.Error())
			return
		}
		seen[e.EmbedID] = true
	}

	// the plain path has a tighter ceiling than the embed-bearing path. The
	// decoded field sizes are checked rather than Content-Length: chunked
	// requests report no length at all.
	if len(req.Embeds) == 0 {
		size := int64(len(req.Ciphertext) + len(req.HMAC) + len(req.IV))
		if size > h.plainBodyLimit || r.ContentLength > h.plainBodyLimit {
			failEvent.Error = "payload too large"
			h.recorder.Record(r.Context(), failEvent)
			respond.WritePayloadTooLarge(w)
			return
		}
	}

	createReq := service.CreateNoteRequest{
		Ciphertext:    decode64(req.Ciphertext),
		HMAC:          decode64(req.HMAC),
		IV:            decode64(req.IV),
		CryptoVersion: req.CryptoVersion,
	}
	for _, e := range req.Embeds {
		createReq.Embeds = append(createReq.Embeds, &model.Embed{
			EmbedID:    e.EmbedID,
			Ciphertext: decode64(e.Ciphertext),
			HMAC:       decode64(e.HMAC),
		})
	}

	note, err := h.svc.Create(r.Context(), createReq, requestInfo(r, req.UserID, req.PluginVersion))
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmbed) {
			respond.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		respond.WriteInternalError(w, "failed to store note")
		return
	}

	respond.WriteJSON(w, http.StatusOK, notePostResponse{
		ViewURL:     h.frontendURL + "/note/" + note.ID,
		ExpireTime:  note.ExpireTime,
		NoteID:      note.ID,
		SecretToken: note.SecretToken,
	})
}

// GetNote handles GET /api/note/{id}.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	note, outcome, err := h.svc.Get(r.Context(), id, requestInfo(r, "", ""))
	if err != nil {
		respond.WriteInternalError(w, "failed to read note")
		return
	}

	switch outcome {
	case model.Found:
		respond.WriteJSON(w, http.StatusOK, note)
	case model.GoneExpired, model.GoneDeleted:
		respond.WriteGone(w, outcome.String())
	default:
		respond.WriteNotFound(w, "note not found")
	}
}

// GetEmbed handles GET /api/note/{id}/embeds/{embed_id}.
func (h *NoteHandler) GetEmbed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	embed, err := h.svc.GetEmbed(r.Context(), vars["id"], vars["embed_id"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "embed not found")
			return
		}
		respond.WriteInternalError(w, "failed to read embed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, embed)
}

// DeleteNote handles DELETE /api/note/{id}.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req noteDeleteRequest
	if ok := decodeBody(w, r, &req); !ok {
		return
	}

	failEvent := events.Event{
		Type:          events.TypeDelete,
		Host:          clientIP(r),
		NoteID:        id,
		UserID:        req.UserID,
		PluginVersion: req.PluginVersion,
	}

	in := validate.NoteDeleteInput{
		UserID:        req.UserID,
		PluginVersion: req.PluginVersion,
		SecretToken:   req.SecretToken,
	}
	if err := validate.NoteDelete(in); err != nil {
		failEvent.Error = err.Error()
		h.recorder.Record(r.Context(), failEvent)
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			respond.WriteValidationError(w, verr)
		} else {
			respond.WriteBadRequest(w, err.Error())
		}
		return
	}

	if req.UserID != "" && !identity.Validate(req.UserID) {
		failEvent.Error = "invalid user id (checksum failed)"
		h.recorder.Record(r.Context(), failEvent)
		respond.WriteBadRequest(w, "invalid user id (checksum failed)")
		return
	}

	err := h.svc.Delete(r.Context(), id, req.SecretToken, requestInfo(r, req.UserID, req.PluginVersion))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "note not found")
	case errors.Is(err, model.ErrWrongToken):
		respond.WriteError(w, http.StatusUnauthorized, "invalid token")
	default:
		respond.WriteInternalError(w, "failed to delete note")
	}
}

// --- helpers ---

// decodeBody parses the JSON request body, writing the appropriate failure
// response itself. Returns false when the caller should stop.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respond.WritePayloadTooLarge(w)
		return false
	}
	respond.WriteBadRequest(w, "invalid JSON body")
	return false
}

// decode64 decodes a field that already passed base64 validation.
func decode64(s string) []byte {
	if s == "" {
		return nil
	}
	b, _ := base64.StdEncoding.DecodeString(s)
	return b
}

func requestInfo(r *http.Request, userID, pluginVersion string) service.RequestInfo {
	return service.RequestInfo{
		Host:          clientIP(r),
		UserID:        userID,
		PluginVersion: pluginVersion,
	}
}
