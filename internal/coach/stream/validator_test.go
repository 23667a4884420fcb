package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quilldesk/quilldesk-backend/internal/coach/artifact"
	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/coach/event"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) ReportError(_ context.Context, err error, _ map[string]string) {
	r.errs = append(r.errs, err)
}

func testValidator(t *testing.T, cfg Config) *Validator {
	t.Helper()
	checker, err := authorship.Default()
	if err != nil {
		t.Fatalf("authorship.Default() error = %v", err)
	}
	return NewValidator(checker, &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}, &recordingReporter{}, cfg)
}

func feed(events ...event.Event) <-chan event.Event {
	ch := make(chan event.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func drain(t *testing.T, ch <-chan event.Event) []event.Event {
	t.Helper()
	var out []event.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("output channel did not close; got %d events", len(out))
		}
	}
}

func score(dim artifact.Dimension) event.RubricScore {
	return event.NewRubricScore(artifact.RubricScore{
		Dimension: dim,
		Score:     3,
		Rationale: "Solid but uneven",
	})
}

func errorMessages(events []event.Event) []string {
	var out []string
	for _, ev := range events {
		if e, ok := ev.(event.Error); ok {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestValidateCompleteReview(t *testing.T) {
	v := testValidator(t, Config{TrackRubric: true})

	in := []event.Event{event.NewReviewStart()}
	for _, dim := range artifact.Dimensions() {
		in = append(in, score(dim))
	}
	in = append(in, event.NewReviewDone(), event.NewDone())

	out := drain(t, v.Validate(context.Background(), feed(in...)))

	if msgs := errorMessages(out); len(msgs) != 0 {
		t.Fatalf("unexpected errors: %v", msgs)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d events, want %d forwarded unchanged", len(out), len(in))
	}
	if _, ok := out[len(out)-1].(event.Done); !ok {
		t.Errorf("last event = %T, want done", out[len(out)-1])
	}
}

func TestValidateMissingRubricScores(t *testing.T) {
	v := testValidator(t, Config{TrackRubric: true})

	out := drain(t, v.Validate(context.Background(), feed(
		event.NewReviewStart(),
		score(artifact.DimClarity),
		score(artifact.DimEvidence),
		event.NewReviewDone(),
		event.NewDone(),
	)))

	msgs := errorMessages(out)
	if len(msgs) != 1 {
		t.Fatalf("errors = %v, want exactly one", msgs)
	}
	if !strings.Contains(msgs[0], "review incomplete") {
		t.Errorf("error = %q, want review incomplete", msgs[0])
	}
	// Missing dimensions are reported in canonical order.
	if !strings.Contains(msgs[0], "structure, argument, originality") {
		t.Errorf("error = %q, want missing dimensions listed in order", msgs[0])
	}
	// The error precedes done; done is still delivered.
	if _, ok := out[len(out)-1].(event.Done); !ok {
		t.Fatalf("last event = %T, want done after the error", out[len(out)-1])
	}
	if _, ok := out[len(out)-2].(event.Error); !ok {
		t.Errorf("second-to-last event = %T, want error before done", out[len(out)-2])
	}
}

func TestValidateDuplicateScoreFlaggedAndDropped(t *testing.T) {
	v := testValidator(t, Config{TrackRubric: true})

	out := drain(t, v.Validate(context.Background(), feed(
		event.NewReviewStart(),
		score(artifact.DimClarity),
		score(artifact.DimClarity),
		event.NewDone(),
	)))

	var scores int
	for _, ev := range out {
		if _, ok := ev.(event.RubricScore); ok {
			scores++
		}
	}
	if scores != 1 {
		t.Fatalf("forwarded rubric scores = %d, want first only", scores)
	}
	msgs := errorMessages(out)
	if len(msgs) != 2 {
		t.Fatalf("errors = %v, want duplicate notice plus incompleteness", msgs)
	}
	if !strings.Contains(msgs[0], "duplicate rubric score for clarity") {
		t.Errorf("error = %q, want duplicate notice", msgs[0])
	}
	// The duplicate does not stand in for the unscored dimensions.
	if !strings.Contains(msgs[1], "evidence, structure, argument, originality") {
		t.Errorf("error = %q, want four missing dimensions", msgs[1])
	}
}

func TestValidateGhostwritingAcrossDeltas(t *testing.T) {
	v := testValidator(t, Config{CheckGhostwriting: true})

	// The phrasing straddles a chunk boundary; only the accumulated
	// text reveals it.
	out := drain(t, v.Validate(context.Background(), feed(
		event.NewTextDelta("Sure. Here's a revised "),
		event.NewTextDelta("version of your intro."),
		event.NewDone(),
	)))

	msgs := errorMessages(out)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "ghostwriting") {
		t.Fatalf("errors = %v, want one ghostwriting violation", msgs)
	}
	if _, ok := out[len(out)-1].(event.Done); !ok {
		t.Errorf("last event = %T, want done", out[len(out)-1])
	}
}

func TestValidateCleanChatStream(t *testing.T) {
	v := testValidator(t, Config{CheckGhostwriting: true})

	out := drain(t, v.Validate(context.Background(), feed(
		event.NewTextDelta("Your thesis hides in paragraph three. "),
		event.NewTextDelta("What would happen if you led with it?"),
		event.NewDone(),
	)))

	if msgs := errorMessages(out); len(msgs) != 0 {
		t.Fatalf("unexpected errors: %v", msgs)
	}
}

func TestValidateRecheckDropsViolatingArtifact(t *testing.T) {
	v := testValidator(t, Config{TrackRubric: true})

	bad := event.NewRubricScore(artifact.RubricScore{
		Dimension: artifact.DimClarity,
		Score:     2,
		Rationale: "Replace with: a single clear thesis sentence",
	})

	out := drain(t, v.Validate(context.Background(), feed(bad, event.NewDone())))

	for _, ev := range out {
		if _, ok := ev.(event.RubricScore); ok {
			t.Fatal("violating rubric score must not be forwarded")
		}
	}
	msgs := errorMessages(out)
	// One error for the dropped artifact, one for the now-incomplete
	// rubric: the dropped score does not count as seen.
	if len(msgs) != 2 {
		t.Fatalf("errors = %v, want drop notice plus incompleteness", msgs)
	}
	if !strings.Contains(msgs[1], "clarity") {
		t.Errorf("completeness error = %q, want clarity listed as missing", msgs[1])
	}
}

func TestValidateNoRubricTrackingInChat(t *testing.T) {
	v := testValidator(t, Config{CheckGhostwriting: true})

	out := drain(t, v.Validate(context.Background(), feed(
		event.NewTextDelta("Good question."),
		event.NewDone(),
	)))

	if msgs := errorMessages(out); len(msgs) != 0 {
		t.Fatalf("chat stream must not require rubric scores, got %v", msgs)
	}
}

func TestValidatePanicContainedToStream(t *testing.T) {
	// A nil checker makes the recheck blow up; the failure must stay
	// inside this stream as one terminal error, not take the process.
	rep := &recordingReporter{}
	v := NewValidator(nil, &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}, rep, Config{TrackRubric: true})

	out := drain(t, v.Validate(context.Background(), feed(
		event.NewInlineComment(artifact.InlineComment{
			QuotedText:      "The economy growed fast",
			Problem:         "Verb tense error",
			Why:             "It distracts from the argument",
			Question:        "Which tense fits here?",
			SuggestedAction: "Check the verb tense",
		}),
	)))

	last := out[len(out)-1]
	errEv, ok := last.(event.Error)
	if !ok {
		t.Fatalf("last event = %T, want event.Error", last)
	}
	if errEv.Message != "Stream failed" {
		t.Errorf("Message = %q, want Stream failed", errEv.Message)
	}
	if len(rep.errs) != 1 {
		t.Errorf("reported errors = %v, want exactly one", rep.errs)
	}
}
