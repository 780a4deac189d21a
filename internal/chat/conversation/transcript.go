package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

// Outcome describes how a streaming message reached its sealed state.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeStopped  Outcome = "stopped"
	OutcomeFailed   Outcome = "failed"
)

// Transcript is the authoritative in-memory state of the visible
// conversation. It is the only writer of message state; consumers read
// snapshots via Messages and watch Changes for re-render signals.
type Transcript struct {
	mu             sync.RWMutex
	messages       []*types.Message
	conversationID string
	welcome        string
	changed        chan struct{}
	log            *logger.Logger
}

// NewTranscript creates a transcript seeded with a sealed welcome message.
func NewTranscript(welcome string, log *logger.Logger) *Transcript {
	if log == nil {
		log = logger.Nop()
	}
	t := &Transcript{
		welcome: welcome,
		changed: make(chan struct{}, 1),
		log:     log,
	}
	t.messages = []*types.Message{t.welcomeMessage()}
	return t
}

func (t *Transcript) welcomeMessage() *types.Message {
	return &types.Message{
		ID:        uuid.New().String(),
		Role:      types.RoleAssistant,
		Content:   t.welcome,
		CreatedAt: time.Now(),
	}
}

// Changes returns a channel that receives a signal whenever transcript
// state changed. Signals are coalesced; consumers re-read the snapshot.
func (t *Transcript) Changes() <-chan struct{} {
	return t.changed
}

func (t *Transcript) notify() {
	select {
	case t.changed <- struct{}{}:
	default:
	}
}

// AppendUser appends a sealed user message and returns its id. Users don't
// stream.
func (t *Transcript) AppendUser(text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := &types.Message{
		ID:        uuid.New().String(),
		Role:      types.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	t.messages = append(t.messages, msg)
	t.notify()
	return msg.ID
}

// StartAssistant creates an empty streaming assistant message and returns
// its id. Any message still marked streaming is sealed as stopped first,
// keeping the single-streaming-message invariant even if a superseded
// turn's cleanup is late.
func (t *Transcript) StartAssistant() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range t.messages {
		if m.IsStreaming {
			t.seal(m, OutcomeStopped, "")
		}
	}

	msg := &types.Message{
		ID:          uuid.New().String(),
		Role:        types.RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
	t.messages = append(t.messages, msg)
	t.notify()
	return msg.ID
}

func (t *Transcript) find(id string) *types.Message {
	for _, m := range t.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AppendContent concatenates a fragment to the target message. A sealed or
// unknown target is a no-op; late fragments must not corrupt state.
func (t *Transcript) AppendContent(id, fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(id)
	if msg == nil || !msg.IsStreaming {
		return
	}
	msg.Content += fragment
	t.notify()
}

// AttachActivity appends an activity in arrival order.
func (t *Transcript) AttachActivity(id string, activity types.Activity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(id)
	if msg == nil || !msg.IsStreaming {
		return
	}
	msg.Activities = append(msg.Activities, activity)
	t.notify()
}

// AttachToolCall appends a tool-call annotation in arrival order.
func (t *Transcript) AttachToolCall(id string, call types.ToolCall) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(id)
	if msg == nil || !msg.IsStreaming {
		return
	}
	msg.ToolCalls = append(msg.ToolCalls, call)
	t.notify()
}

// AttachSchedule appends a proposed day plan in arrival order.
func (t *Transcript) AttachSchedule(id string, draft types.ScheduleDraft) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(id)
	if msg == nil || !msg.IsStreaming {
		return
	}
	msg.Schedules = append(msg.Schedules, draft)
	t.notify()
}

// RecordMetadata adopts the backend's conversation id the first time one is
// seen; later turns carry it back to the backend for continuity.
func (t *Transcript) RecordMetadata(meta *types.Metadata) {
	if meta == nil || meta.ConversationID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conversationID == "" {
		t.conversationID = meta.ConversationID
		t.log.Debug("adopted conversation id", zap.String("conversation_id", meta.ConversationID))
	}
}

// Seal flips a message out of streaming state, appending the annotation the
// outcome calls for: a stopped marker for cancellation, a failure notice
// (with detail) for errors, nothing for completion. Idempotent: sealing a
// sealed message changes nothing, so overlapping terminal signals are
// harmless.
func (t *Transcript) Seal(id string, outcome Outcome, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(id)
	if msg == nil {
		return
	}
	t.seal(msg, outcome, detail)
}

func (t *Transcript) seal(msg *types.Message, outcome Outcome, detail string) {
	if !msg.IsStreaming {
		return
	}

	var note string
	switch outcome {
	case OutcomeStopped:
		note = "⏹ Stopped."
	case OutcomeFailed:
		note = "⚠ Something went wrong while answering."
		if detail != "" {
			note = "⚠ Something went wrong while answering: " + detail
		}
	}
	if note != "" {
		if msg.Content != "" {
			note = "\n\n" + note
		}
		msg.Content += note
	}

	msg.IsStreaming = false
	t.log.Debug("sealed message",
		zap.String("id", msg.ID),
		zap.String("outcome", string(outcome)))
	t.notify()
}

// Reset atomically replaces the transcript with a fresh welcome message and
// forgets the adopted conversation id.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = []*types.Message{t.welcomeMessage()}
	t.conversationID = ""
	t.notify()
}

// Messages returns a snapshot copy of the transcript. Attached sequences
// are copied, so callers may hold the snapshot across further streaming.
func (t *Transcript) Messages() []types.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.Message, len(t.messages))
	for i, m := range t.messages {
		c := *m
		c.Activities = append([]types.Activity(nil), m.Activities...)
		c.ToolCalls = append([]types.ToolCall(nil), m.ToolCalls...)
		c.Schedules = append([]types.ScheduleDraft(nil), m.Schedules...)
		out[i] = c
	}
	return out
}

// ConversationID returns the adopted backend conversation id, if any.
func (t *Transcript) ConversationID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conversationID
}
