// Package intake validates coaching eligibility and builds the
// immutable request the driver consumes. Pure functions, no I/O.
package intake

import (
	"fmt"
	"strings"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
)

// ValidationError rejects a request before any stream opens; it maps
// to a plain HTTP error, never an in-band event.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) *ValidationError { return &ValidationError{Message: msg} }

// CountWords recomputes the word count from essay content. A
// client-supplied count is never trusted.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// PrepareReviewRequest builds a full-review request.
func PrepareReviewRequest(title, text string) (*coach.Request, error) {
	words := CountWords(text)
	if words == 0 {
		return nil, invalid("Cannot review an empty essay")
	}
	return &coach.Request{
		EssayText:  text,
		EssayTitle: title,
		WordCount:  words,
		Mode:       coach.ModeFullReview,
	}, nil
}

// PrepareAssistantRequest builds a chat or full-review request for the
// assistant pipeline.
func PrepareAssistantRequest(title, text, userMessage string, history []coach.ChatMessage, mode coach.Mode) (*coach.Request, error) {
	words := CountWords(text)
	if words == 0 {
		return nil, invalid("Cannot coach an empty essay")
	}
	switch mode {
	case coach.ModeChat, coach.ModeFullReview:
	case "":
		mode = coach.ModeChat
	default:
		return nil, invalid(fmt.Sprintf("unknown mode %q", mode))
	}
	if mode == coach.ModeChat && strings.TrimSpace(userMessage) == "" {
		return nil, invalid("Message cannot be empty")
	}
	if err := validateHistory(history); err != nil {
		return nil, err
	}
	if len(userMessage) > coach.MaxMessageLen {
		return nil, invalid(fmt.Sprintf("message exceeds %d characters", coach.MaxMessageLen))
	}
	return &coach.Request{
		EssayText:   text,
		EssayTitle:  title,
		WordCount:   words,
		UserMessage: userMessage,
		History:     history,
		Mode:        mode,
	}, nil
}

func validateHistory(history []coach.ChatMessage) error {
	if len(history) > coach.MaxHistoryEntries {
		return invalid(fmt.Sprintf("conversation history exceeds %d entries", coach.MaxHistoryEntries))
	}
	for i, h := range history {
		if len(h.Content) > coach.MaxHistoryEntryLen {
			return invalid(fmt.Sprintf("conversation history entry %d exceeds %d characters", i, coach.MaxHistoryEntryLen))
		}
		switch h.Role {
		case "user", "assistant":
		default:
			return invalid(fmt.Sprintf("conversation history entry %d has unknown role %q", i, h.Role))
		}
	}
	return nil
}
