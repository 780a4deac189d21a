package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

const welcome = "Hi! I can help plan your week of activities."

func TestTranscript_SeedsSealedWelcome(t *testing.T) {
	tr := NewTranscript(welcome, nil)

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoleAssistant, msgs[0].Role)
	assert.Equal(t, welcome, msgs[0].Content)
	assert.False(t, msgs[0].IsStreaming)
}

func TestTranscript_AppendContentConcatenatesInOrder(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	tr.AppendUser("plan something")
	id := tr.StartAssistant()

	tr.AppendContent(id, "Here are ")
	tr.AppendContent(id, "three ideas")
	tr.AppendContent(id, ".")

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Here are three ideas.", msgs[2].Content)
	assert.True(t, msgs[2].IsStreaming)
}

func TestTranscript_SealComplete(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()
	tr.AppendContent(id, "All set.")

	tr.Seal(id, OutcomeComplete, "")

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	assert.False(t, last.IsStreaming)
	assert.Equal(t, "All set.", last.Content)
}

func TestTranscript_SealStoppedAnnotates(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()
	tr.AppendContent(id, "Let me think")

	tr.Seal(id, OutcomeStopped, "")

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "Let me think\n\n⏹ Stopped.", last.Content)
	assert.False(t, last.IsStreaming)
}

func TestTranscript_SealStoppedOnEmptyMessageHasNoLeadingBlank(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()

	tr.Seal(id, OutcomeStopped, "")

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "⏹ Stopped.", last.Content)
}

func TestTranscript_SealFailedIncludesDetail(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()

	tr.Seal(id, OutcomeFailed, "backend reported an error")

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	assert.True(t, strings.Contains(last.Content, "Something went wrong while answering"))
	assert.True(t, strings.Contains(last.Content, "backend reported an error"))
}

func TestTranscript_SealIsIdempotent(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()
	tr.AppendContent(id, "Done.")

	tr.Seal(id, OutcomeComplete, "")
	// A late cancellation signal must not re-annotate a sealed message.
	tr.Seal(id, OutcomeStopped, "")
	tr.Seal(id, OutcomeFailed, "late failure")

	msgs := tr.Messages()
	assert.Equal(t, "Done.", msgs[len(msgs)-1].Content)
}

func TestTranscript_MutationsAfterSealAreNoOps(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()
	tr.AppendContent(id, "final")
	tr.Seal(id, OutcomeComplete, "")

	tr.AppendContent(id, " trailing")
	tr.AttachActivity(id, types.Activity{Title: "Late"})
	tr.AttachToolCall(id, types.ToolCall{Name: "late_tool"})
	tr.AttachSchedule(id, types.ScheduleDraft{Date: "2025-06-02"})

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "final", last.Content)
	assert.Empty(t, last.Activities)
	assert.Empty(t, last.ToolCalls)
	assert.Empty(t, last.Schedules)
}

func TestTranscript_UnknownIDIsNoOp(t *testing.T) {
	tr := NewTranscript(welcome, nil)

	tr.AppendContent("no-such-id", "x")
	tr.Seal("no-such-id", OutcomeComplete, "")

	assert.Len(t, tr.Messages(), 1)
}

func TestTranscript_StartAssistantSealsStragglers(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	first := tr.StartAssistant()
	tr.AppendContent(first, "half an answer")

	second := tr.StartAssistant()

	var streaming int
	for _, m := range tr.Messages() {
		if m.IsStreaming {
			streaming++
			assert.Equal(t, second, m.ID)
		}
		if m.ID == first {
			assert.True(t, strings.Contains(m.Content, "⏹ Stopped."))
		}
	}
	assert.Equal(t, 1, streaming)
}

func TestTranscript_AttachmentsPreserveArrivalOrder(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()

	tr.AttachActivity(id, types.Activity{Title: "Ring Toss"})
	tr.AttachActivity(id, types.Activity{Title: "Nature Walk"})
	tr.AttachToolCall(id, types.ToolCall{Name: "search_activities"})

	msgs := tr.Messages()
	last := msgs[len(msgs)-1]
	require.Len(t, last.Activities, 2)
	assert.Equal(t, "Ring Toss", last.Activities[0].Title)
	assert.Equal(t, "Nature Walk", last.Activities[1].Title)
	require.Len(t, last.ToolCalls, 1)
}

func TestTranscript_RecordMetadataAdoptsFirstID(t *testing.T) {
	tr := NewTranscript(welcome, nil)

	tr.RecordMetadata(&types.Metadata{ConversationID: "conv-1"})
	tr.RecordMetadata(&types.Metadata{ConversationID: "conv-2"})
	tr.RecordMetadata(nil)
	tr.RecordMetadata(&types.Metadata{})

	assert.Equal(t, "conv-1", tr.ConversationID())
}

func TestTranscript_ResetRestoresWelcomeAndForgetsID(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	tr.AppendUser("hello")
	id := tr.StartAssistant()
	tr.AppendContent(id, "hi")
	tr.RecordMetadata(&types.Metadata{ConversationID: "conv-1"})

	tr.Reset()

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, welcome, msgs[0].Content)
	assert.Empty(t, tr.ConversationID())
}

func TestTranscript_SnapshotIsIsolated(t *testing.T) {
	tr := NewTranscript(welcome, nil)
	id := tr.StartAssistant()
	tr.AttachActivity(id, types.Activity{Title: "Ring Toss"})

	snap := tr.Messages()
	snap[len(snap)-1].Activities[0].Title = "mutated"

	fresh := tr.Messages()
	assert.Equal(t, "Ring Toss", fresh[len(fresh)-1].Activities[0].Title)
}

func TestTranscript_ChangesSignalsOnMutation(t *testing.T) {
	tr := NewTranscript(welcome, nil)

	tr.AppendUser("hello")

	select {
	case <-tr.Changes():
	default:
		t.Fatal("expected a change signal after AppendUser")
	}
}
