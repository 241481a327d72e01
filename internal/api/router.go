package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcndt/noteshare.space/internal/api/recovery"
	"github.com/mcndt/noteshare.space/internal/config"
	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/ratelimit"
	"github.com/mcndt/noteshare.space/internal/service"
	"github.com/mcndt/noteshare.space/internal/store"
)

// NewRouter builds the HTTP router: note lifecycle routes behind admission
// control and body-size ceilings, plus health endpoints.
func NewRouter(cfg *config.Config, svc *service.NoteService, st store.Store, rec events.Recorder) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	limiter := ratelimit.New(map[ratelimit.Group]ratelimit.WindowConfig{
		ratelimit.GroupWrite: {
			Window: time.Duration(cfg.PostLimitWindowSeconds * float64(time.Second)),
			Max:    cfg.PostLimit,
		},
		ratelimit.GroupRead: {
			Window: time.Duration(cfg.GetLimitWindowSeconds * float64(time.Second)),
			Max:    cfg.GetLimit,
		},
	})

	noteHandler := NewNoteHandler(svc, rec, cfg.FrontendURL, cfg.MaxBodyBytes)
	healthHandler := NewHealthHandler(st)

	writeLimit := rateLimitMiddleware(limiter, ratelimit.GroupWrite)
	readLimit := rateLimitMiddleware(limiter, ratelimit.GroupRead)
	uploadBody := maxBodyMiddleware(cfg.MaxEmbedBodyBytes)
	plainBody := maxBodyMiddleware(cfg.MaxBodyBytes)

	// Note endpoints
	router.Handle("/api/note",
		writeLimit(uploadBody(http.HandlerFunc(noteHandler.CreateNote)))).Methods("POST")
	router.Handle("/api/note/{id}",
		readLimit(http.HandlerFunc(noteHandler.GetNote))).Methods("GET")
	router.HandleFunc("/api/note/{id}/embeds/{embed_id}", noteHandler.GetEmbed).Methods("GET")
	router.Handle("/api/note/{id}",
		plainBody(http.HandlerFunc(noteHandler.DeleteNote))).Methods("DELETE")

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	return router
}
