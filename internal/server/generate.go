package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/generate"
	"github.com/alnah/go-contentflow/internal/logging"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// streamMessage is one SSE data payload on /api/generate.
type streamMessage struct {
	Content    string `json:"content"`
	IsComplete bool   `json:"isComplete"`
	Progress   *int   `json:"progress,omitempty"`
	Error      string `json:"error,omitempty"`
}

// costMessage carries the final cost ahead of the completion message.
type costMessage struct {
	Type string          `json:"type"`
	Data *cost.Breakdown `json:"data"`
}

const costMessageType = "cost_tracking"

// sseWriter frames payloads as "data: <json>\n\n". Headers are committed
// on the first write so that errors found before streaming can still be
// answered with a plain JSON status.
type sseWriter struct {
	c       *gin.Context
	started bool
}

func (w *sseWriter) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.c.Status(http.StatusOK)
}

func (w *sseWriter) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode stream message: %w", err)
	}
	w.start()
	if _, err := fmt.Fprintf(w.c.Writer, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write stream message: %w", err)
	}
	w.c.Writer.Flush()
	return nil
}

// emit maps generation updates onto the wire.
func (w *sseWriter) emit(u generate.Update) error {
	switch u.Kind {
	case generate.UpdateDelta:
		p := u.Progress
		return w.send(streamMessage{Content: u.Text, Progress: &p})
	case generate.UpdateCost:
		return w.send(costMessage{Type: costMessageType, Data: u.Cost})
	case generate.UpdateComplete:
		p := u.Progress
		return w.send(streamMessage{IsComplete: true, Progress: &p})
	case generate.UpdateFailure:
		return w.send(streamMessage{IsComplete: true, Error: failureMessage(u.Err)})
	default:
		return nil
	}
}

func (s *Server) generate(c *gin.Context) {
	log := logging.FromContext(c.Request.Context(), s.log)

	var raw generate.RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	req, err := generate.ParseRequest(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := &sseWriter{c: c}
	_, err = s.gen.Generate(c.Request.Context(), req, w.emit)
	if err == nil || w.started {
		// Failures after the first message were already sent in-band.
		return
	}

	switch {
	case errors.Is(err, prompt.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case c.Request.Context().Err() != nil:
		// Client went away before anything was sent.
	default:
		log.Error("generation could not start", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
	}
}

// failureMessage is the error text shown to clients.
func failureMessage(err error) string {
	if err == nil {
		return "generation failed"
	}
	return err.Error()
}
