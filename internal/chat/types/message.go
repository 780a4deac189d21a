package types

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ActivitySource identifies where an activity suggestion came from.
type ActivitySource string

const (
	SourceCatalog       ActivitySource = "catalog-result"
	SourceGenerated     ActivitySource = "generated"
	SourceUserGenerated ActivitySource = "user_generated"
	SourceBlended       ActivitySource = "blended"
	SourceParsed        ActivitySource = "parsed-from-text"
)

// Activity is a planning suggestion attached to an assistant message.
// Immutable once attached; saving a copy to the catalog never touches
// the in-transcript value.
type Activity struct {
	ID              string         `json:"id,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Type            string         `json:"type,omitempty"`
	Supplies        []string       `json:"supplies,omitempty"`
	Instructions    string         `json:"instructions,omitempty"`
	Source          ActivitySource `json:"source,omitempty"`
	NoveltyScore    float64        `json:"novelty_score,omitempty"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
	TargetAge       string         `json:"target_age,omitempty"`
	IndoorOutdoor   string         `json:"indoor_outdoor,omitempty"`
}

// ToolCall records what the backend did while producing a message.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// ScheduleSlot is one block of a proposed day plan.
type ScheduleSlot struct {
	StartTime       string `json:"start_time,omitempty"`
	Type            string `json:"type,omitempty"` // activity, break
	Title           string `json:"title,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	NeedsActivity   bool   `json:"needs_activity,omitempty"`
}

// ScheduleDraft is a day plan proposed by the backend mid-stream.
type ScheduleDraft struct {
	Date     string         `json:"date,omitempty"`
	AgeGroup string         `json:"age_group,omitempty"`
	Theme    string         `json:"theme,omitempty"`
	Slots    []ScheduleSlot `json:"template,omitempty"`
	Note     string         `json:"note,omitempty"`
}

// Metadata carries conversation continuity data from metadata/done events.
type Metadata struct {
	ConversationID string `json:"conversation_id,omitempty"`
}

// Message is one entry in the conversation transcript. While streaming,
// Content only grows; once IsStreaming flips false the message is sealed
// and accepts no further mutation.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Activities  []Activity
	ToolCalls   []ToolCall
	Schedules   []ScheduleDraft
	CreatedAt   time.Time
	IsStreaming bool
}
