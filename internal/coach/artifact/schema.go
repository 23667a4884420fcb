package artifact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaError reports a structurally invalid tool input. It is
// recoverable: the driver feeds it back to the model as an error tool
// result instead of aborting the stream.
type SchemaError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s: %s (%s)", e.Kind, e.Field, e.Reason)
}

func schemaErr(kind Kind, field, reason string) *SchemaError {
	return &SchemaError{Kind: kind, Field: field, Reason: reason}
}

// DecodeInlineComment validates raw tool input into an InlineComment.
func DecodeInlineComment(raw json.RawMessage) (*InlineComment, error) {
	var a InlineComment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, schemaErr(KindInlineComment, "input", err.Error())
	}
	for field, val := range map[string]string{
		"quoted_text":      a.QuotedText,
		"problem":          a.Problem,
		"why":              a.Why,
		"question":         a.Question,
		"suggested_action": a.SuggestedAction,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, schemaErr(KindInlineComment, field, "required")
		}
	}
	return &a, nil
}

func DecodeIssue(raw json.RawMessage) (*Issue, error) {
	var a Issue
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, schemaErr(KindIssue, "input", err.Error())
	}
	switch a.Tag {
	case TagClarity, TagEvidence, TagStructure, TagArgument, TagStyle:
	default:
		return nil, schemaErr(KindIssue, "tag", fmt.Sprintf("unknown tag %q", a.Tag))
	}
	switch a.Severity {
	case SeverityHigh, SeverityMedium, SeverityLow:
	default:
		return nil, schemaErr(KindIssue, "severity", fmt.Sprintf("unknown severity %q", a.Severity))
	}
	if strings.TrimSpace(a.Description) == "" {
		return nil, schemaErr(KindIssue, "description", "required")
	}
	if strings.TrimSpace(a.SuggestedAction) == "" {
		return nil, schemaErr(KindIssue, "suggested_action", "required")
	}
	return &a, nil
}

func DecodeQuestion(raw json.RawMessage) (*Question, error) {
	var a Question
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, schemaErr(KindQuestion, "input", err.Error())
	}
	if strings.TrimSpace(a.Question) == "" {
		return nil, schemaErr(KindQuestion, "question", "required")
	}
	return &a, nil
}

func DecodeRubricScore(raw json.RawMessage) (*RubricScore, error) {
	var a RubricScore
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, schemaErr(KindRubricScore, "input", err.Error())
	}
	switch a.Dimension {
	case DimClarity, DimEvidence, DimStructure, DimArgument, DimOriginality:
	default:
		return nil, schemaErr(KindRubricScore, "dimension", fmt.Sprintf("unknown dimension %q", a.Dimension))
	}
	if a.Score < 1 || a.Score > 5 {
		return nil, schemaErr(KindRubricScore, "score", fmt.Sprintf("score %d out of range 1-5", a.Score))
	}
	if strings.TrimSpace(a.Rationale) == "" {
		return nil, schemaErr(KindRubricScore, "rationale", "required")
	}
	return &a, nil
}

func DecodeSourceSuggestion(raw json.RawMessage) (*SourceSuggestion, error) {
	var a SourceSuggestion
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, schemaErr(KindSourceSuggestion, "input", err.Error())
	}
	for field, val := range map[string]string{
		"title":     a.Title,
		"url":       a.URL,
		"snippet":   a.Snippet,
		"relevance": a.Relevance,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, schemaErr(KindSourceSuggestion, field, "required")
		}
	}
	switch a.Stance {
	case StanceSupporting, StanceOpposing, StanceNeutral:
	default:
		return nil, schemaErr(KindSourceSuggestion, "stance", fmt.Sprintf("unknown stance %q", a.Stance))
	}
	return &a, nil
}
