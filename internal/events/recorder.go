package events

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// LogRecorder appends events to the process log.
type LogRecorder struct {
	log zerolog.Logger
}

// NewLogRecorder returns a Recorder writing structured audit lines.
func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log.With().Str("component", "audit").Logger()}
}

func (r *LogRecorder) Record(_ context.Context, e Event) {
	evt := r.log.Info()
	if !e.Success {
		evt = r.log.Warn()
	}
	evt.Str("type", string(e.Type)).
		Bool("success", e.Success).
		Str("note_id", e.NoteID).
		Str("host", e.Host).
		Int("size_bytes", e.SizeBytes)
	if e.Error != "" {
		evt = evt.Str("error", e.Error)
	}
	if e.UserID != "" {
		evt = evt.Str("user_id", e.UserID)
	}
	evt.Msg("audit event")
}

// HTTPRecorder posts events to an external collector endpoint. Delivery
// failures are logged and dropped: the request path never depends on the
// sink being reachable.
type HTTPRecorder struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewHTTPRecorder returns a Recorder posting JSON events to sinkURL.
func NewHTTPRecorder(sinkURL string, log zerolog.Logger) *HTTPRecorder {
	client := resty.New().
		SetBaseURL(sinkURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2)
	return &HTTPRecorder{
		client: client,
		log:    log.With().Str("component", "audit").Logger(),
	}
}

func (r *HTTPRecorder) Record(ctx context.Context, e Event) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(e).
		Post("")
	if err != nil {
		r.log.Warn().Err(err).Str("type", string(e.Type)).Msg("audit sink unreachable")
		return
	}
	if resp.IsError() {
		r.log.Warn().Int("status", resp.StatusCode()).Str("type", string(e.Type)).Msg("audit sink rejected event")
	}
}
