package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) (*Writer, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", nil)
	return NewWriter(c), rec
}

func TestEventFormatSSE(t *testing.T) {
	event := Event{Type: "content", Data: map[string]string{"content": "Hi"}}

	assert.Equal(t, "data: {\"type\":\"content\",\"data\":{\"content\":\"Hi\"}}\n\n", event.FormatSSE())
}

func TestWriterHeaders(t *testing.T) {
	_, rec := newTestWriter(t)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestWriterSend(t *testing.T) {
	w, rec := newTestWriter(t)

	require.NoError(t, w.Send("content", map[string]string{"content": "Hi"}))
	require.NoError(t, w.Send("done", map[string]string{"conversation_id": "conv-1"}))
	require.NoError(t, w.Done())

	body := rec.Body.String()
	assert.Contains(t, body, "data: {\"type\":\"content\",\"data\":{\"content\":\"Hi\"}}\n\n")
	assert.Contains(t, body, "data: {\"type\":\"done\",\"data\":{\"conversation_id\":\"conv-1\"}}\n\n")
	assert.Contains(t, body, "data: [DONE]\n\n")
}

func TestWriterComment(t *testing.T) {
	w, rec := newTestWriter(t)

	require.NoError(t, w.Comment("keep-alive"))

	assert.Equal(t, ": keep-alive\n\n", rec.Body.String())
}
