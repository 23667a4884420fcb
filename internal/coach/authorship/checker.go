package authorship

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quilldesk/quilldesk-backend/internal/coach/artifact"
)

// Violation marks a well-formed artifact or accumulated text that
// crosses the coach-never-ghostwrites line. Per-artifact violations are
// recoverable (fed back to the model); the accumulated-text case is
// flagged at stream end.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return "authorship violation: " + v.Reason }

// Checker inspects artifact fields and accumulated free text for
// replacement prose. The pattern set comes from configuration, not
// code.
type Checker struct {
	prefixes         []string
	backtickMinWords int
	textPatterns     []*regexp.Regexp
}

var backtickSpan = regexp.MustCompile("`([^`]+)`")

func NewChecker(cfg *PatternConfig) (*Checker, error) {
	textPatterns, err := compileTextPatterns(cfg.TextPatterns)
	if err != nil {
		return nil, err
	}
	prefixes := make([]string, 0, len(cfg.ArtifactPrefixes))
	for _, p := range cfg.ArtifactPrefixes {
		prefixes = append(prefixes, strings.ToLower(p))
	}
	return &Checker{
		prefixes:         prefixes,
		backtickMinWords: cfg.BacktickMinWords,
		textPatterns:     textPatterns,
	}, nil
}

// Default builds a checker from the embedded pattern set.
func Default() (*Checker, error) {
	cfg, err := LoadPatterns("")
	if err != nil {
		return nil, err
	}
	return NewChecker(cfg)
}

// CheckArtifact returns nil when the artifact is behaviorally clean.
// The artifact is never mutated; on success callers keep the value they
// passed in.
func (c *Checker) CheckArtifact(a artifact.Artifact) *Violation {
	switch t := a.(type) {
	case *artifact.InlineComment:
		return c.checkFields(map[string]string{
			"problem":          t.Problem,
			"why":              t.Why,
			"suggested_action": t.SuggestedAction,
		})
	case *artifact.Issue:
		return c.checkFields(map[string]string{
			"description":      t.Description,
			"suggested_action": t.SuggestedAction,
		})
	case *artifact.Question:
		if !strings.HasSuffix(strings.TrimSpace(t.Question), "?") {
			return &Violation{Reason: "a Socratic question must end with a question mark"}
		}
		return nil
	case *artifact.RubricScore:
		return c.checkFields(map[string]string{"rationale": t.Rationale})
	case *artifact.SourceSuggestion:
		// Snippets quote the suggested source, not the user's essay.
		return nil
	default:
		return nil
	}
}

func (c *Checker) checkFields(fields map[string]string) *Violation {
	for name, val := range fields {
		if reason := c.checkField(val); reason != "" {
			return &Violation{Reason: fmt.Sprintf("%s %s", name, reason)}
		}
	}
	return nil
}

func (c *Checker) checkField(val string) string {
	lowered := strings.ToLower(strings.TrimSpace(val))
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(lowered, prefix) {
			return fmt.Sprintf("starts with %q, which supplies replacement prose instead of guidance", prefix)
		}
	}
	for _, m := range backtickSpan.FindAllStringSubmatch(val, -1) {
		if len(strings.Fields(m[1])) >= c.backtickMinWords {
			return "contains a full backticked sentence, which reads as ready-to-paste prose"
		}
	}
	return ""
}

// CheckText scans accumulated free text for ghostwriting phrasings. It
// runs once per stream, over the concatenation of every text delta:
// patterns can straddle chunk boundaries, so per-chunk checks would
// miss them.
func (c *Checker) CheckText(text string) *Violation {
	for _, re := range c.textPatterns {
		if loc := re.FindString(text); loc != "" {
			return &Violation{Reason: fmt.Sprintf("response text contains ghostwriting phrasing %q", loc)}
		}
	}
	return nil
}
