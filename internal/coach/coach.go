// Package coach holds the request types shared by the intake builders,
// the agent driver and the stream validator.
package coach

// Mode selects the conversation framing for one coaching call.
type Mode string

const (
	ModeChat       Mode = "chat"
	ModeFullReview Mode = "full_review"
)

// Limits applied to client-supplied conversation state before any
// stream opens.
const (
	MaxHistoryEntries  = 50
	MaxHistoryEntryLen = 10000
	MaxMessageLen      = 2000
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is built once per HTTP call by the intake layer and is
// immutable for the life of the call. WordCount is always recomputed
// server-side.
type Request struct {
	EssayText   string
	EssayTitle  string
	WordCount   int
	UserMessage string
	History     []ChatMessage
	Mode        Mode
}
