package artifact

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeInlineComment(t *testing.T) {
	valid := `{
		"quoted_text": "The economy growed fast",
		"problem": "Grammatical error in the quoted span",
		"why": "Errors here undermine the essay's credibility",
		"question": "What tense does this sentence need?",
		"suggested_action": "Proofread this paragraph for verb tense"
	}`

	t.Run("valid input decodes", func(t *testing.T) {
		a, err := DecodeInlineComment(json.RawMessage(valid))
		if err != nil {
			t.Fatalf("DecodeInlineComment() error = %v", err)
		}
		if a.QuotedText != "The economy growed fast" {
			t.Errorf("QuotedText = %q", a.QuotedText)
		}
		if a.Kind() != KindInlineComment {
			t.Errorf("Kind() = %q, want %q", a.Kind(), KindInlineComment)
		}
	})

	t.Run("missing field rejected", func(t *testing.T) {
		raw := `{"quoted_text": "x", "problem": "p", "why": "w", "question": "q?"}`
		_, err := DecodeInlineComment(json.RawMessage(raw))
		var sErr *SchemaError
		if !errors.As(err, &sErr) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
		if sErr.Field != "suggested_action" {
			t.Errorf("Field = %q, want suggested_action", sErr.Field)
		}
	})

	t.Run("whitespace-only field rejected", func(t *testing.T) {
		raw := `{"quoted_text": "x", "problem": "  ", "why": "w", "question": "q?", "suggested_action": "a"}`
		if _, err := DecodeInlineComment(json.RawMessage(raw)); err == nil {
			t.Fatal("expected error for whitespace-only problem")
		}
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		if _, err := DecodeInlineComment(json.RawMessage(`{not json`)); err == nil {
			t.Fatal("expected error for malformed json")
		}
	})
}

func TestDecodeIssue(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantField string
	}{
		{
			name: "valid",
			raw:  `{"tag": "evidence", "severity": "high", "description": "No sources cited", "suggested_action": "Find two primary sources"}`,
		},
		{
			name:      "unknown tag",
			raw:       `{"tag": "grammar", "severity": "high", "description": "d", "suggested_action": "a"}`,
			wantErr:   true,
			wantField: "tag",
		},
		{
			name:      "unknown severity",
			raw:       `{"tag": "clarity", "severity": "critical", "description": "d", "suggested_action": "a"}`,
			wantErr:   true,
			wantField: "severity",
		},
		{
			name:      "empty description",
			raw:       `{"tag": "clarity", "severity": "low", "description": "", "suggested_action": "a"}`,
			wantErr:   true,
			wantField: "description",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeIssue(json.RawMessage(tt.raw))
			if tt.wantErr {
				var sErr *SchemaError
				if !errors.As(err, &sErr) {
					t.Fatalf("error = %v, want *SchemaError", err)
				}
				if sErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", sErr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeIssue() error = %v", err)
			}
		})
	}
}

func TestDecodeRubricScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"dimension": "clarity", "score": 3, "rationale": "Mostly readable but meanders"}`},
		{name: "score zero", raw: `{"dimension": "clarity", "score": 0, "rationale": "r"}`, wantErr: true},
		{name: "score six", raw: `{"dimension": "clarity", "score": 6, "rationale": "r"}`, wantErr: true},
		{name: "unknown dimension", raw: `{"dimension": "flow", "score": 3, "rationale": "r"}`, wantErr: true},
		{name: "empty rationale", raw: `{"dimension": "clarity", "score": 3, "rationale": ""}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRubricScore(json.RawMessage(tt.raw))
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Errorf("DecodeRubricScore() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeSourceSuggestion(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := `{"title": "On Writing Well", "url": "https://example.com", "snippet": "Clutter is the disease of American writing.", "relevance": "Directly addresses the wordiness issue", "stance": "supporting"}`
		a, err := DecodeSourceSuggestion(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("DecodeSourceSuggestion() error = %v", err)
		}
		if a.Stance != StanceSupporting {
			t.Errorf("Stance = %q", a.Stance)
		}
	})

	t.Run("unknown stance rejected", func(t *testing.T) {
		raw := `{"title": "t", "url": "u", "snippet": "s", "relevance": "r", "stance": "mixed"}`
		if _, err := DecodeSourceSuggestion(json.RawMessage(raw)); err == nil {
			t.Fatal("expected error for unknown stance")
		}
	})
}

func TestDimensionsOrder(t *testing.T) {
	want := []Dimension{DimClarity, DimEvidence, DimStructure, DimArgument, DimOriginality}
	got := Dimensions()
	if len(got) != len(want) {
		t.Fatalf("Dimensions() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dimensions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
