// Package chat provides chat-adjacent helpers shared by the presentation
// layer, currently prompt token estimation.
package chat

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

const defaultEncoding = "cl100k_base"

// Estimator approximates how many tokens a prompt will cost before it is
// sent. When the BPE tables cannot be loaded (offline first run), it falls
// back to a bytes/4 heuristic rather than failing.
type Estimator struct {
	encodingName string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewEstimator creates an estimator for the given tiktoken encoding name.
// An empty name selects cl100k_base.
func NewEstimator(encodingName string) *Estimator {
	if encodingName == "" {
		encodingName = defaultEncoding
	}
	return &Estimator{encodingName: encodingName}
}

func (e *Estimator) encoding() (*tiktoken.Tiktoken, error) {
	e.once.Do(func() {
		e.enc, e.err = tiktoken.GetEncoding(e.encodingName)
	})
	return e.enc, e.err
}

// Count returns the approximate token count for the given text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	enc, err := e.encoding()
	if err != nil {
		return approxTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// Prompt estimates the total tokens for a turn: the visible history plus
// the draft input.
func (e *Estimator) Prompt(history []types.Message, draft string) int {
	total := e.Count(draft)
	for _, msg := range history {
		total += e.Count(msg.Content)
	}
	return total
}

// approxTokens is the offline fallback; four bytes per token is the usual
// rough cut for English text.
func approxTokens(text string) int {
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
