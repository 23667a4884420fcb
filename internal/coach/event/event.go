package event

import "github.com/quilldesk/quilldesk-backend/internal/coach/artifact"

// Type discriminates wire events. Events are append-only and ordered;
// an invalid artifact is replaced by feedback to the model, never by a
// retraction.
type Type string

const (
	TypeTextDelta        Type = "text_delta"
	TypeInlineComment    Type = "inline_comment"
	TypeIssue            Type = "issue"
	TypeQuestion         Type = "question"
	TypeRubricScore      Type = "rubric_score"
	TypeSourceSuggestion Type = "source_suggestion"
	TypeReviewStart      Type = "review_start"
	TypeReviewDone       Type = "review_done"
	TypeDone             Type = "done"
	TypeError            Type = "error"
)

// Event is the sealed union of stream events. All event types live in
// this package; isEvent keeps external implementations out.
type Event interface {
	isEvent()
}

func (TextDelta) isEvent()        {}
func (InlineComment) isEvent()    {}
func (Issue) isEvent()            {}
func (Question) isEvent()         {}
func (RubricScore) isEvent()      {}
func (SourceSuggestion) isEvent() {}
func (ReviewStart) isEvent()      {}
func (ReviewDone) isEvent()       {}
func (Done) isEvent()             {}
func (Error) isEvent()            {}

type TextDelta struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

type InlineComment struct {
	Type Type `json:"type"`
	artifact.InlineComment
}

type Issue struct {
	Type Type `json:"type"`
	artifact.Issue
}

type Question struct {
	Type Type `json:"type"`
	artifact.Question
}

type RubricScore struct {
	Type Type `json:"type"`
	artifact.RubricScore
}

type SourceSuggestion struct {
	Type Type `json:"type"`
	artifact.SourceSuggestion
}

type ReviewStart struct {
	Type Type `json:"type"`
}

type ReviewDone struct {
	Type Type `json:"type"`
}

// Done is the only success terminator. A stream may carry an Error and
// still end with Done (degraded but delivered).
type Done struct {
	Type Type `json:"type"`
}

type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewTextDelta(text string) TextDelta { return TextDelta{Type: TypeTextDelta, Text: text} }

func NewInlineComment(a artifact.InlineComment) InlineComment {
	return InlineComment{Type: TypeInlineComment, InlineComment: a}
}

func NewIssue(a artifact.Issue) Issue { return Issue{Type: TypeIssue, Issue: a} }

func NewQuestion(a artifact.Question) Question {
	return Question{Type: TypeQuestion, Question: a}
}

func NewRubricScore(a artifact.RubricScore) RubricScore {
	return RubricScore{Type: TypeRubricScore, RubricScore: a}
}

func NewSourceSuggestion(a artifact.SourceSuggestion) SourceSuggestion {
	return SourceSuggestion{Type: TypeSourceSuggestion, SourceSuggestion: a}
}

func NewReviewStart() ReviewStart { return ReviewStart{Type: TypeReviewStart} }
func NewReviewDone() ReviewDone   { return ReviewDone{Type: TypeReviewDone} }
func NewDone() Done               { return Done{Type: TypeDone} }

func NewError(message string) Error { return Error{Type: TypeError, Message: message} }

// FromArtifact wraps a validated artifact in its stream event.
func FromArtifact(a artifact.Artifact) Event {
	switch t := a.(type) {
	case *artifact.InlineComment:
		return NewInlineComment(*t)
	case *artifact.Issue:
		return NewIssue(*t)
	case *artifact.Question:
		return NewQuestion(*t)
	case *artifact.RubricScore:
		return NewRubricScore(*t)
	case *artifact.SourceSuggestion:
		return NewSourceSuggestion(*t)
	default:
		return nil
	}
}
