package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

// Streamer opens one chat turn against the backend and yields its decoded
// event sequence.
type Streamer interface {
	Stream(ctx context.Context, req types.ChatRequest) (<-chan types.StreamEvent, error)
}

// Session drives chat turns end to end: it opens the stream, folds events
// into the transcript, and guarantees the assistant message of every turn is
// sealed exactly once. Only the most recent turn is live; starting a new one
// supersedes (cancels) the previous.
type Session struct {
	streamer   Streamer
	transcript *Transcript
	log        *logger.Logger

	// turn is the supersession token: reducer mutations are applied only
	// while their originating turn is still the current one, so a stale
	// stream can never corrupt the transcript regardless of cancel timing.
	turn atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSession creates a session over the given streamer and transcript.
func NewSession(streamer Streamer, transcript *Transcript, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		streamer:   streamer,
		transcript: transcript,
		log:        log,
	}
}

// Transcript returns the observable transcript state.
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// Send starts a new turn for the given user input, cancelling any turn
// still in flight. Empty input is ignored. Returns immediately; progress is
// observable through the transcript.
func (s *Session) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	token := s.turn.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.transcript.AppendUser(text)
	messageID := s.transcript.StartAssistant()

	req := types.ChatRequest{
		Message:        text,
		ConversationID: s.transcript.ConversationID(),
	}

	go func() {
		defer cancel()
		s.run(ctx, token, messageID, req)
	}()
}

// Cancel aborts the in-flight turn, if any. Idempotent; a no-op when
// nothing is streaming.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Reset cancels any in-flight turn and clears the conversation back to the
// welcome state.
func (s *Session) Reset() {
	s.Cancel()
	s.transcript.Reset()
}

func (s *Session) live(token uint64) bool {
	return s.turn.Load() == token
}

// run consumes one turn's event stream. The deferred seal always runs, so
// the message reaches sealed state exactly once on every exit path.
func (s *Session) run(ctx context.Context, token uint64, messageID string, req types.ChatRequest) {
	var runErr error

	defer func() {
		switch {
		case ctx.Err() != nil || errors.Is(runErr, context.Canceled):
			// Expected path after Cancel or supersession; not a user-visible
			// error.
			s.transcript.Seal(messageID, OutcomeStopped, "")
		case runErr != nil:
			s.log.Error("chat turn failed", zap.Error(runErr))
			s.transcript.Seal(messageID, OutcomeFailed, runErr.Error())
		default:
			s.transcript.Seal(messageID, OutcomeComplete, "")
		}
	}()

	events, err := s.streamer.Stream(ctx, req)
	if err != nil {
		runErr = err
		return
	}

	for event := range events {
		if !s.live(token) {
			return
		}

		switch event.Type {
		case types.EventContent:
			s.transcript.AppendContent(messageID, event.Content)
		case types.EventActivity:
			s.transcript.AttachActivity(messageID, *event.Activity)
		case types.EventToolCall:
			s.transcript.AttachToolCall(messageID, *event.ToolCall)
		case types.EventSchedule:
			s.transcript.AttachSchedule(messageID, *event.Schedule)
		case types.EventMetadata, types.EventDone:
			s.transcript.RecordMetadata(event.Metadata)
		case types.EventError:
			runErr = event.Err
			return
		}
	}
	// Channel closed without a terminal event: natural end of stream.
}
