package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Decoder turns a raw byte stream of `data: <json>` records into a sequence
// of typed events. Lines are only parsed once fully received; non-data lines
// (keep-alive comments, blank separators) are ignored; a line that fails to
// parse is logged and skipped without aborting the stream.
type Decoder struct {
	log *logger.Logger
}

// NewDecoder creates a decoder. A nil logger discards diagnostics.
func NewDecoder(log *logger.Logger) *Decoder {
	if log == nil {
		log = logger.Nop()
	}
	return &Decoder{log: log}
}

// Decode consumes the reader until a terminal event, EOF, or context
// cancellation, sending decoded events on the returned channel in arrival
// order. The channel is closed when the stream ends. A natural EOF without a
// done event is normal completion, not an error. In-band error events and
// mid-stream transport failures arrive as a final EventError.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) <-chan types.StreamEvent {
	events := make(chan types.StreamEvent, 10)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}

			data := strings.TrimPrefix(line, dataPrefix)
			if data == doneSentinel {
				// Consumed silently; the stream is over.
				return
			}

			event, terminal, ok := d.decodeLine(data)
			if !ok {
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
			if terminal {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				// User abort closes the body mid-read; not a stream failure.
				return
			}
			d.log.Warn("chat stream read failed", zap.Error(err))
			select {
			case events <- types.StreamEvent{
				Type: types.EventError,
				Err:  &types.TransportError{Op: "read stream", Err: err},
			}:
			case <-ctx.Done():
			}
		}
	}()

	return events
}

// decodeLine parses a single wire record. ok=false means the line was
// malformed or of an unknown type and should be skipped.
func (d *Decoder) decodeLine(data string) (event types.StreamEvent, terminal bool, ok bool) {
	if !gjson.Valid(data) {
		d.log.Warn("skipping malformed stream chunk", zap.String("data", truncate(data, 200)))
		return types.StreamEvent{}, false, false
	}

	kind := gjson.Get(data, "type").String()
	payload := []byte(gjson.Get(data, "data").Raw)

	switch types.EventType(kind) {
	case types.EventContent:
		var body struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			d.log.Warn("skipping malformed content chunk", zap.Error(err))
			return types.StreamEvent{}, false, false
		}
		return types.StreamEvent{Type: types.EventContent, Content: body.Content}, false, true

	case types.EventActivity:
		var activity types.Activity
		if err := json.Unmarshal(payload, &activity); err != nil {
			d.log.Warn("skipping malformed activity chunk", zap.Error(err))
			return types.StreamEvent{}, false, false
		}
		return types.StreamEvent{Type: types.EventActivity, Activity: &activity}, false, true

	case types.EventSchedule:
		var draft types.ScheduleDraft
		if err := json.Unmarshal(payload, &draft); err != nil {
			d.log.Warn("skipping malformed schedule chunk", zap.Error(err))
			return types.StreamEvent{}, false, false
		}
		return types.StreamEvent{Type: types.EventSchedule, Schedule: &draft}, false, true

	case types.EventToolCall:
		var call types.ToolCall
		if err := json.Unmarshal(payload, &call); err != nil {
			d.log.Warn("skipping malformed tool_call chunk", zap.Error(err))
			return types.StreamEvent{}, false, false
		}
		return types.StreamEvent{Type: types.EventToolCall, ToolCall: &call}, false, true

	case types.EventMetadata, types.EventDone:
		var meta types.Metadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			d.log.Warn("skipping malformed metadata chunk", zap.Error(err))
			return types.StreamEvent{}, false, false
		}
		return types.StreamEvent{Type: types.EventType(kind), Metadata: &meta}, false, true

	case types.EventError:
		message := gjson.Get(data, "data.message").String()
		if message == "" {
			message = "backend reported an error"
		}
		return types.StreamEvent{
			Type: types.EventError,
			Err:  &types.ProtocolError{Message: message},
		}, true, true

	default:
		d.log.Warn("skipping unknown stream chunk type", zap.String("type", kind))
		return types.StreamEvent{}, false, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
