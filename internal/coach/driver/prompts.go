package driver

import (
	"fmt"
	"strings"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
)

const systemPromptBase = `You are a writing coach. You help people become better writers; you never write for them.

Hard rules:
- Never supply prose the writer could paste into their essay. No rewritten sentences, no "replace with", no model paragraphs.
- Describe problems and actions; let the writer do the writing.
- Anchor feedback in the essay. Quote exactly when using inline comments.
- Record structured feedback through the tools. Keep free text short and conversational.`

const systemPromptReview = systemPromptBase + `

You are performing a full review. Work through the essay, record inline comments and issues as you find them, ask Socratic questions where they will do more than an instruction would, and finish by scoring every rubric dimension (clarity, evidence, structure, argument, originality) exactly once. End your turn when the review is complete.`

const systemPromptAssistant = systemPromptBase + `

You are in an ongoing coaching conversation. Answer what the writer asked, use tools for structured feedback, and suggest outside sources when they would genuinely help the argument.`

// SystemPrompt returns the behavioral contract for the given mode.
func SystemPrompt(mode coach.Mode, assistant bool) string {
	if mode == coach.ModeFullReview {
		return systemPromptReview
	}
	if assistant {
		return systemPromptAssistant
	}
	return systemPromptBase
}

func essayContext(req coach.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Essay title: %s\n", req.EssayTitle)
	fmt.Fprintf(&b, "Word count: %d\n\n", req.WordCount)
	b.WriteString(req.EssayText)
	return b.String()
}

// buildTranscript assembles the initial message list: prior
// conversation history, then the current request. Full-review mode
// prepends a fixed instruction with the essay; chat mode includes the
// essay context only on the first turn of a fresh conversation.
func buildTranscript(req coach.Request) []llm.Message {
	msgs := make([]llm.Message, 0, len(req.History)+1)
	for _, h := range req.History {
		role := llm.RoleUser
		if h.Role == "assistant" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Text: h.Content})
	}

	switch req.Mode {
	case coach.ModeFullReview:
		msgs = append(msgs, llm.Message{
			Role: llm.RoleUser,
			Text: "Please give this essay a full coaching review.\n\n" + essayContext(req),
		})
	default:
		text := req.UserMessage
		if len(req.History) == 0 {
			text = "Here is the essay I'm working on.\n\n" + essayContext(req) + "\n\n" + req.UserMessage
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: text})
	}
	return msgs
}
