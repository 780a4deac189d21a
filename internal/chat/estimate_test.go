package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

// The BPE tables may be unavailable in a sandboxed test run, in which case
// the estimator falls back to its byte heuristic. These tests assert
// properties that hold either way.

func TestEstimatorCount(t *testing.T) {
	e := NewEstimator("")

	assert.Equal(t, 0, e.Count(""))
	assert.GreaterOrEqual(t, e.Count("hi"), 1)

	short := e.Count("plan a day")
	long := e.Count(strings.Repeat("plan a full week of outdoor games ", 20))
	assert.Greater(t, long, short)
}

func TestEstimatorPrompt(t *testing.T) {
	e := NewEstimator("cl100k_base")

	history := []types.Message{
		{Role: types.RoleAssistant, Content: "Hi! What would you like to plan?"},
		{Role: types.RoleUser, Content: "Something for a rainy Tuesday."},
	}

	historyOnly := e.Prompt(history, "")
	withDraft := e.Prompt(history, "And make it cheap to run.")

	assert.Greater(t, historyOnly, 0)
	assert.Greater(t, withDraft, historyOnly)
}

func TestEstimatorUnknownEncodingFallsBack(t *testing.T) {
	e := NewEstimator("no-such-encoding")

	// Heuristic path: four bytes per token, minimum one.
	assert.Equal(t, 1, e.Count("hi"))
	assert.Equal(t, 5, e.Count(strings.Repeat("a", 20)))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 1, approxTokens("abc"))
	assert.Equal(t, 2, approxTokens("eight ch"))
}
