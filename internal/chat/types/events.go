package types

// EventType tags a decoded stream event.
type EventType string

const (
	EventContent  EventType = "content"
	EventActivity EventType = "activity"
	EventSchedule EventType = "schedule"
	EventToolCall EventType = "tool_call"
	EventMetadata EventType = "metadata"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// StreamEvent is one decoded wire event. Exactly one payload field is set,
// matching Type. Events arrive in wire order; content fragments are never
// coalesced, concatenation is the consumer's job.
type StreamEvent struct {
	Type     EventType
	Content  string         // EventContent
	Activity *Activity      // EventActivity
	Schedule *ScheduleDraft // EventSchedule
	ToolCall *ToolCall      // EventToolCall
	Metadata *Metadata      // EventMetadata, EventDone
	Err      error          // EventError; terminal for the stream
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}
