// Package sse writes the chat wire protocol: newline-delimited
// `data: <json>` records closed by a `data: [DONE]` sentinel.
package sse

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Event is one wire record: a tagged payload.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FormatSSE renders the event as a `data:` record.
func (e Event) FormatSSE() string {
	raw, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("data: %s\n\n", raw)
}

// Writer streams events over one gin response. Not safe for concurrent
// use; a response has a single producer.
type Writer struct {
	ctx *gin.Context
}

// NewWriter prepares a gin response for event streaming and returns the
// writer.
func NewWriter(c *gin.Context) *Writer {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &Writer{ctx: c}
}

// Send writes one event and flushes it to the client.
func (w *Writer) Send(eventType string, data interface{}) error {
	event := Event{Type: eventType, Data: data}
	if _, err := fmt.Fprint(w.ctx.Writer, event.FormatSSE()); err != nil {
		return err
	}
	w.ctx.Writer.Flush()
	return nil
}

// Comment writes a keep-alive comment line, which conforming decoders
// ignore.
func (w *Writer) Comment(text string) error {
	if _, err := fmt.Fprintf(w.ctx.Writer, ": %s\n\n", text); err != nil {
		return err
	}
	w.ctx.Writer.Flush()
	return nil
}

// Done writes the terminal sentinel.
func (w *Writer) Done() error {
	if _, err := fmt.Fprint(w.ctx.Writer, "data: [DONE]\n\n"); err != nil {
		return err
	}
	w.ctx.Writer.Flush()
	return nil
}

// ClientGone reports when the peer disconnected.
func (w *Writer) ClientGone() <-chan struct{} {
	return w.ctx.Request.Context().Done()
}
