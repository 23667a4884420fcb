package driver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/coach/event"
	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type scriptedTurn struct {
	turn *llm.Turn
	err  error
}

// scriptedModel returns its scripted turns in order and records every
// request it sees, so tests can inspect the growing transcript.
type scriptedModel struct {
	turns []scriptedTurn
	reqs  []llm.TurnRequest
}

func (m *scriptedModel) CreateTurn(_ context.Context, req llm.TurnRequest) (*llm.Turn, error) {
	m.reqs = append(m.reqs, req)
	if len(m.turns) == 0 {
		return &llm.Turn{StopReason: llm.StopEndTurn}, nil
	}
	next := m.turns[0]
	m.turns = m.turns[1:]
	return next.turn, next.err
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) ReportError(_ context.Context, err error, _ map[string]string) {
	r.errs = append(r.errs, err)
}

func testChecker(t *testing.T) *authorship.Checker {
	t.Helper()
	c, err := authorship.Default()
	if err != nil {
		t.Fatalf("authorship.Default() error = %v", err)
	}
	return c
}

func collect(t *testing.T, ch <-chan event.Event) []event.Event {
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
			t.Fatalf("event channel did not close; got %d events so far", len(out))
		}
	}
}

func eventTypes(events []event.Event) []event.Type {
	out := make([]event.Type, 0, len(events))
	for _, ev := range events {
		switch t := ev.(type) {
		case event.TextDelta:
			out = append(out, t.Type)
		case event.InlineComment:
			out = append(out, t.Type)
		case event.Issue:
			out = append(out, t.Type)
		case event.Question:
			out = append(out, t.Type)
		case event.RubricScore:
			out = append(out, t.Type)
		case event.SourceSuggestion:
			out = append(out, t.Type)
		case event.ReviewStart:
			out = append(out, t.Type)
		case event.ReviewDone:
			out = append(out, t.Type)
		case event.Done:
			out = append(out, t.Type)
		case event.Error:
			out = append(out, t.Type)
		}
	}
	return out
}

func reviewRequest() coach.Request {
	return coach.Request{
		EssayText:  "The economy grew fast in the nineties.",
		EssayTitle: "Growth",
		WordCount:  7,
		Mode:       coach.ModeFullReview,
	}
}

func scoreInput(t *testing.T, dim string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"dimension": dim,
		"score":     3,
		"rationale": "Adequate but could be sharper",
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestRunFullReviewHappyPath(t *testing.T) {
	model := &scriptedModel{turns: []scriptedTurn{
		{turn: &llm.Turn{
			Blocks: []llm.ContentBlock{
				{Type: llm.BlockText, Text: "Reading your essay now."},
				{Type: llm.BlockToolUse, ID: "call_1", Name: toolScoreRubric, Input: scoreInput(t, "clarity")},
			},
			StopReason: llm.StopToolUse,
		}},
		{turn: &llm.Turn{
			Blocks:     []llm.ContentBlock{{Type: llm.BlockText, Text: "That covers it."}},
			StopReason: llm.StopEndTurn,
		}},
	}}

	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{
		MaxIterations: MaxIterationsReview,
		System:        SystemPrompt(coach.ModeFullReview, false),
		Tools:         ReviewTools(),
	})
	events := collect(t, d.Run(context.Background(), reviewRequest()))

	want := []event.Type{
		event.TypeReviewStart,
		event.TypeTextDelta,
		event.TypeRubricScore,
		event.TypeTextDelta,
		event.TypeReviewDone,
		event.TypeDone,
	}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event types = %v, want %v", got, want)
		}
	}

	if len(model.reqs) != 2 {
		t.Fatalf("model saw %d requests, want 2", len(model.reqs))
	}
	second := model.reqs[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != llm.RoleTool {
		t.Fatalf("last message role = %q, want tool", last.Role)
	}
	if len(last.ToolResults) != 1 || last.ToolResults[0].Content != "Recorded." {
		t.Errorf("tool results = %+v, want one ack with Recorded.", last.ToolResults)
	}
	assistant := second.Messages[len(second.Messages)-2]
	if assistant.Role != llm.RoleAssistant || len(assistant.ToolCalls) != 1 {
		t.Errorf("assistant turn = %+v, want recorded tool call", assistant)
	}
}

func TestRunSchemaErrorFedBack(t *testing.T) {
	bad := json.RawMessage(`{"dimension": "clarity", "score": 9, "rationale": "off the scale"}`)
	model := &scriptedModel{turns: []scriptedTurn{
		{turn: &llm.Turn{
			Blocks:     []llm.ContentBlock{{Type: llm.BlockToolUse, ID: "call_1", Name: toolScoreRubric, Input: bad}},
			StopReason: llm.StopToolUse,
		}},
		{turn: &llm.Turn{
			Blocks:     []llm.ContentBlock{{Type: llm.BlockToolUse, ID: "call_2", Name: toolScoreRubric, Input: scoreInput(t, "clarity")}},
			StopReason: llm.StopToolUse,
		}},
		{turn: &llm.Turn{StopReason: llm.StopEndTurn}},
	}}

	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: ReviewTools()})
	events := collect(t, d.Run(context.Background(), reviewRequest()))

	// The invalid call produces no event; the corrected retry does.
	var scores int
	for _, ev := range events {
		if _, ok := ev.(event.RubricScore); ok {
			scores++
		}
		if errEv, ok := ev.(event.Error); ok {
			t.Errorf("unexpected error event: %s", errEv.Message)
		}
	}
	if scores != 1 {
		t.Fatalf("rubric score events = %d, want 1", scores)
	}

	second := model.reqs[1]
	last := second.Messages[len(second.Messages)-1]
	if len(last.ToolResults) != 1 {
		t.Fatalf("tool results = %+v, want 1", last.ToolResults)
	}
	res := last.ToolResults[0]
	if !res.IsError {
		t.Error("schema failure ack should be an error result")
	}
	if !strings.Contains(res.Content, "score") {
		t.Errorf("ack content = %q, want mention of score", res.Content)
	}
}

func TestRunAuthorshipViolationFedBack(t *testing.T) {
	ghostwritten, err := json.Marshal(map[string]any{
		"tag":              "style",
		"severity":         "low",
		"description":      "Wordy opening",
		"suggested_action": "Replace with: a crisp one-line hook",
	})
	if err != nil {
		t.Fatal(err)
	}
	model := &scriptedModel{turns: []scriptedTurn{
		{turn: &llm.Turn{
			Blocks:     []llm.ContentBlock{{Type: llm.BlockToolUse, ID: "call_1", Name: toolAddIssue, Input: ghostwritten}},
			StopReason: llm.StopToolUse,
		}},
		{turn: &llm.Turn{StopReason: llm.StopEndTurn}},
	}}

	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: ReviewTools()})
	events := collect(t, d.Run(context.Background(), reviewRequest()))

	for _, ev := range events {
		if _, ok := ev.(event.Issue); ok {
			t.Fatal("ghostwritten issue must not reach the stream")
		}
	}

	res := model.reqs[1].Messages[len(model.reqs[1].Messages)-1].ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, "authorship violation") {
		t.Errorf("ack = %+v, want authorship violation error", res)
	}
}

func TestRunUnknownToolFedBack(t *testing.T) {
	model := &scriptedModel{turns: []scriptedTurn{
		{turn: &llm.Turn{
			Blocks:     []llm.ContentBlock{{Type: llm.BlockToolUse, ID: "call_1", Name: "delete_essay", Input: json.RawMessage(`{}`)}},
			StopReason: llm.StopToolUse,
		}},
		{turn: &llm.Turn{StopReason: llm.StopEndTurn}},
	}}

	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: ReviewTools()})
	collect(t, d.Run(context.Background(), reviewRequest()))

	res := model.reqs[1].Messages[len(model.reqs[1].Messages)-1].ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, "unknown tool") {
		t.Errorf("ack = %+v, want unknown tool error", res)
	}
}

func TestRunProviderErrorIsFatal(t *testing.T) {
	model := &scriptedModel{turns: []scriptedTurn{
		{err: errors.New("upstream 529")},
	}}

	req := reviewRequest()
	req.Mode = coach.ModeChat
	req.UserMessage = "How is my intro?"
	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: AssistantTools()})
	events := collect(t, d.Run(context.Background(), req))

	if len(events) != 1 {
		t.Fatalf("events = %v, want a single error", eventTypes(events))
	}
	errEv, ok := events[0].(event.Error)
	if !ok {
		t.Fatalf("event = %T, want event.Error", events[0])
	}
	if !strings.Contains(errEv.Message, "upstream 529") {
		t.Errorf("Message = %q", errEv.Message)
	}
	if len(model.reqs) != 1 {
		t.Errorf("model saw %d requests after fatal error, want 1", len(model.reqs))
	}
}

func TestRunUnexpectedStopReasonIsFatal(t *testing.T) {
	model := &scriptedModel{turns: []scriptedTurn{
		{turn: &llm.Turn{StopReason: llm.StopReason("content_filter")}},
	}}

	req := reviewRequest()
	req.Mode = coach.ModeChat
	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: ReviewTools()})
	events := collect(t, d.Run(context.Background(), req))

	if len(events) != 1 {
		t.Fatalf("events = %v, want a single error", eventTypes(events))
	}
	errEv, ok := events[0].(event.Error)
	if !ok || !strings.Contains(errEv.Message, "content_filter") {
		t.Errorf("event = %+v, want stop-reason error", events[0])
	}
}

func TestRunIterationBound(t *testing.T) {
	// A model that never stops calling tools must hit the cap.
	loop := scriptedTurn{turn: &llm.Turn{
		Blocks:     []llm.ContentBlock{{Type: llm.BlockToolUse, ID: "call", Name: toolScoreRubric, Input: scoreInput(t, "clarity")}},
		StopReason: llm.StopToolUse,
	}}
	model := &scriptedModel{turns: []scriptedTurn{loop, loop, loop, loop, loop}}

	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{MaxIterations: 3, Tools: ReviewTools()})
	events := collect(t, d.Run(context.Background(), reviewRequest()))

	last := events[len(events)-1]
	errEv, ok := last.(event.Error)
	if !ok {
		t.Fatalf("last event = %T, want event.Error", last)
	}
	if !strings.Contains(errEv.Message, "max iterations") {
		t.Errorf("Message = %q, want max iterations notice", errEv.Message)
	}
	for _, ev := range events {
		if _, isDone := ev.(event.Done); isDone {
			t.Error("exhausted loop must not emit done")
		}
	}
	if len(model.reqs) != 3 {
		t.Errorf("model saw %d requests, want 3", len(model.reqs))
	}
}

func TestRunCancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &scriptedModel{}
	d := New(model, testChecker(t), testLogger(), &recordingReporter{}, Config{Tools: ReviewTools()})
	events := collect(t, d.Run(ctx, reviewRequest()))

	if len(model.reqs) != 0 {
		t.Errorf("model saw %d requests under cancelled context, want 0", len(model.reqs))
	}
	// review_start may or may not land in the buffer before the
	// cancellation check; nothing beyond it is allowed.
	if len(events) > 1 {
		t.Errorf("events = %v, want at most review_start", eventTypes(events))
	}
}

type panickingModel struct{}

func (panickingModel) CreateTurn(context.Context, llm.TurnRequest) (*llm.Turn, error) {
	panic("provider adapter bug")
}

func TestRunPanicContainedToStream(t *testing.T) {
	rep := &recordingReporter{}
	d := New(panickingModel{}, testChecker(t), testLogger(), rep, Config{Tools: ReviewTools()})

	req := reviewRequest()
	req.Mode = coach.ModeChat
	req.UserMessage = "How is my intro?"
	events := collect(t, d.Run(context.Background(), req))

	if len(events) != 1 {
		t.Fatalf("events = %v, want a single terminal error", eventTypes(events))
	}
	errEv, ok := events[0].(event.Error)
	if !ok {
		t.Fatalf("event = %T, want event.Error", events[0])
	}
	if errEv.Message != "Stream failed" {
		t.Errorf("Message = %q, want Stream failed", errEv.Message)
	}
	if len(rep.errs) != 1 || !strings.Contains(rep.errs[0].Error(), "provider adapter bug") {
		t.Errorf("reported errors = %v, want the panic value reported once", rep.errs)
	}
}
