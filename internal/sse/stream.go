// Package sse frames a validated event sequence as a Server-Sent
// Events response. One frame per event, in emission order, no
// batching.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quilldesk/quilldesk-backend/internal/coach/event"
	"github.com/quilldesk/quilldesk-backend/internal/observability"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type Streamer struct {
	log      *logger.Logger
	reporter observability.Reporter
	timeout  time.Duration
}

func NewStreamer(baseLog *logger.Logger, reporter observability.Reporter, timeout time.Duration) *Streamer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Streamer{
		log:      baseLog.With("component", "SSEStreamer"),
		reporter: reporter,
		timeout:  timeout,
	}
}

// Stream pumps events to the client until the channel closes, the
// client disconnects, or the wall-clock deadline passes. Once the
// stream has started, the HTTP status is fixed; every later failure is
// communicated in-band as an error frame. The deadline check is
// cooperative: it runs after each frame, so one very slow upstream
// turn can overshoot it.
func (s *Streamer) Stream(w http.ResponseWriter, r *http.Request, events <-chan event.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	ctx := r.Context()
	deadline := time.Now().Add(s.timeout)

	defer func() {
		if rec := recover(); rec != nil {
			s.reporter.ReportError(ctx, fmt.Errorf("stream panic: %v", rec), map[string]string{
				"path": r.URL.Path,
			})
			s.writeFrame(w, flusher, event.NewError("Stream failed"))
		}
		flusher.Flush()
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("client disconnected", "path", r.URL.Path)
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := s.writeFrame(w, flusher, ev); err != nil {
				s.log.Debug("frame write failed", "error", err)
				return
			}
			if time.Now().After(deadline) {
				s.writeFrame(w, flusher, event.NewError(
					fmt.Sprintf("Stream timed out after %s", s.timeout)))
				return
			}
		}
	}
}

func (s *Streamer) writeFrame(w http.ResponseWriter, flusher http.Flusher, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
