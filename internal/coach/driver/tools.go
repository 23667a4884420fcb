package driver

import (
	"encoding/json"

	"github.com/quilldesk/quilldesk-backend/internal/coach/artifact"
	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
)

const (
	toolAddInlineComment = "add_inline_comment"
	toolAddIssue         = "add_issue"
	toolAskQuestion      = "ask_question"
	toolScoreRubric      = "score_rubric"
	toolSuggestSource    = "suggest_source"
)

// decodeToolInput dispatches a tool call to its artifact schema. An
// unknown name returns (nil, nil): the provider is untrusted input, so
// unrecognized tools are answered with an error ack, not a panic.
func decodeToolInput(name string, raw json.RawMessage) (artifact.Artifact, error) {
	switch name {
	case toolAddInlineComment:
		a, err := artifact.DecodeInlineComment(raw)
		if err != nil {
			return nil, err
		}
		return a, nil
	case toolAddIssue:
		a, err := artifact.DecodeIssue(raw)
		if err != nil {
			return nil, err
		}
		return a, nil
	case toolAskQuestion:
		a, err := artifact.DecodeQuestion(raw)
		if err != nil {
			return nil, err
		}
		return a, nil
	case toolScoreRubric:
		a, err := artifact.DecodeRubricScore(raw)
		if err != nil {
			return nil, err
		}
		return a, nil
	case toolSuggestSource:
		a, err := artifact.DecodeSourceSuggestion(raw)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, nil
	}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func enumProp(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ReviewTools is the catalogue offered on the plain review pipeline.
func ReviewTools() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        toolAddInlineComment,
			Description: "Attach a coaching comment to an exact quote from the essay. Describe the problem and the action to take; never supply replacement prose.",
			Parameters: objectSchema(map[string]any{
				"quoted_text":      stringProp("Exact substring of the essay the comment is anchored to."),
				"problem":          stringProp("What is weak about this passage."),
				"why":              stringProp("Why it weakens the essay."),
				"question":         stringProp("A question that pushes the writer to fix it themselves."),
				"suggested_action": stringProp("The action the writer should take, described, not written for them."),
			}, []string{"quoted_text", "problem", "why", "question", "suggested_action"}),
		},
		{
			Name:        toolAddIssue,
			Description: "Record an essay-level issue.",
			Parameters: objectSchema(map[string]any{
				"tag":              enumProp("Issue category.", "clarity", "evidence", "structure", "argument", "style"),
				"severity":         enumProp("How much this hurts the essay.", "high", "medium", "low"),
				"description":      stringProp("What the issue is."),
				"suggested_action": stringProp("What the writer should do about it, described, not written for them."),
			}, []string{"tag", "severity", "description", "suggested_action"}),
		},
		{
			Name:        toolAskQuestion,
			Description: "Ask the writer a Socratic question. It must end with a question mark.",
			Parameters: objectSchema(map[string]any{
				"question": stringProp("The question, ending with a question mark."),
				"context":  stringProp("What part of the essay prompted the question."),
			}, []string{"question", "context"}),
		},
		{
			Name:        toolScoreRubric,
			Description: "Score one rubric dimension from 1 to 5. A full review scores every dimension exactly once.",
			Parameters: objectSchema(map[string]any{
				"dimension": enumProp("Rubric dimension.", "clarity", "evidence", "structure", "argument", "originality"),
				"score":     map[string]any{"type": "integer", "minimum": 1, "maximum": 5, "description": "1 (weak) to 5 (strong)."},
				"rationale": stringProp("Why this score, grounded in the essay."),
			}, []string{"dimension", "score", "rationale"}),
		},
	}
}

// AssistantTools adds source suggestions to the review catalogue.
func AssistantTools() []llm.ToolDef {
	return append(ReviewTools(), llm.ToolDef{
		Name:        toolSuggestSource,
		Description: "Suggest an external source the writer could engage with.",
		Parameters: objectSchema(map[string]any{
			"title":     stringProp("Source title."),
			"url":       stringProp("Where to find it."),
			"snippet":   stringProp("A short quote or summary of the source."),
			"relevance": stringProp("Why it matters for this essay."),
			"stance":    enumProp("Relationship to the essay's argument.", "supporting", "opposing", "neutral"),
		}, []string{"title", "url", "snippet", "relevance", "stance"}),
	})
}
