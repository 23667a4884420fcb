package artifact

// Kind discriminates the feedback artifacts a coach turn can produce.
type Kind string

const (
	KindInlineComment    Kind = "inline_comment"
	KindIssue            Kind = "issue"
	KindQuestion         Kind = "question"
	KindRubricScore      Kind = "rubric_score"
	KindSourceSuggestion Kind = "source_suggestion"
)

// Artifact is the sealed union of feedback artifacts. Artifacts are
// immutable once decoded; validation never mutates them.
type Artifact interface {
	Kind() Kind
}

func (InlineComment) Kind() Kind    { return KindInlineComment }
func (Issue) Kind() Kind            { return KindIssue }
func (Question) Kind() Kind         { return KindQuestion }
func (RubricScore) Kind() Kind      { return KindRubricScore }
func (SourceSuggestion) Kind() Kind { return KindSourceSuggestion }

type IssueTag string

const (
	TagClarity   IssueTag = "clarity"
	TagEvidence  IssueTag = "evidence"
	TagStructure IssueTag = "structure"
	TagArgument  IssueTag = "argument"
	TagStyle     IssueTag = "style"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Dimension is one of the five fixed rubric axes a full review scores.
type Dimension string

const (
	DimClarity     Dimension = "clarity"
	DimEvidence    Dimension = "evidence"
	DimStructure   Dimension = "structure"
	DimArgument    Dimension = "argument"
	DimOriginality Dimension = "originality"
)

// Dimensions lists every rubric axis in canonical order.
func Dimensions() []Dimension {
	return []Dimension{DimClarity, DimEvidence, DimStructure, DimArgument, DimOriginality}
}

type Stance string

const (
	StanceSupporting Stance = "supporting"
	StanceOpposing   Stance = "opposing"
	StanceNeutral    Stance = "neutral"
)

// InlineComment anchors feedback to an exact span of the essay. The
// caller is responsible for quoted_text being a real substring.
type InlineComment struct {
	QuotedText      string `json:"quoted_text"`
	Problem         string `json:"problem"`
	Why             string `json:"why"`
	Question        string `json:"question"`
	SuggestedAction string `json:"suggested_action"`
}

type Issue struct {
	Tag             IssueTag `json:"tag"`
	Severity        Severity `json:"severity"`
	Description     string   `json:"description"`
	SuggestedAction string   `json:"suggested_action"`
}

type Question struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type RubricScore struct {
	Dimension Dimension `json:"dimension"`
	Score     int       `json:"score"`
	Rationale string    `json:"rationale"`
}

// SourceSuggestion is produced in assistant mode only.
type SourceSuggestion struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Relevance string `json:"relevance"`
	Stance    Stance `json:"stance"`
}
