// Package driver runs the bounded tool-call loop against the language
// model port, turning model turns into a validated event stream.
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/coach/event"
	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
	"github.com/quilldesk/quilldesk-backend/internal/observability"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

const (
	// MaxIterationsReview bounds the plain review pipeline;
	// MaxIterationsAssistant the richer assistant variant. The cap is
	// the circuit breaker for tool-call feedback loops.
	MaxIterationsReview    = 10
	MaxIterationsAssistant = 15

	defaultBuffer = 16
)

type Config struct {
	MaxIterations int
	System        string
	Tools         []llm.ToolDef
	Buffer        int
}

// Driver owns one conversation with the model per Run call. The
// transcript grows by one assistant turn per iteration, plus one
// synthetic tool-result turn when tools were invoked, and is discarded
// when the stream ends.
type Driver struct {
	model    llm.Model
	checker  *authorship.Checker
	log      *logger.Logger
	reporter observability.Reporter
	cfg      Config
}

func New(model llm.Model, checker *authorship.Checker, baseLog *logger.Logger, reporter observability.Reporter, cfg Config) *Driver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = MaxIterationsReview
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	return &Driver{
		model:    model,
		checker:  checker,
		log:      baseLog.With("component", "CoachDriver"),
		reporter: reporter,
		cfg:      cfg,
	}
}

// Run starts the loop and returns the event channel. The channel is
// closed when the loop terminates; cancelling ctx stops the loop
// without further provider calls. A panic anywhere in the loop is
// contained to this stream: it is reported and turned into one
// terminal error event before the channel closes.
func (d *Driver) Run(ctx context.Context, req coach.Request) <-chan event.Event {
	out := make(chan event.Event, d.cfg.Buffer)
	go func() {
		defer close(out)
		defer func() {
			if rec := recover(); rec != nil {
				d.reporter.ReportError(ctx, fmt.Errorf("driver panic: %v", rec), nil)
				select {
				case out <- event.NewError("Stream failed"):
				case <-ctx.Done():
				}
			}
		}()
		d.run(ctx, req, out)
	}()
	return out
}

func (d *Driver) run(ctx context.Context, req coach.Request, out chan<- event.Event) {
	send := func(ev event.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	msgs := buildTranscript(req)
	fullReview := req.Mode == coach.ModeFullReview
	if fullReview {
		if !send(event.NewReviewStart()) {
			return
		}
	}

	for iter := 0; iter < d.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			return
		}
		turn, err := d.model.CreateTurn(ctx, llm.TurnRequest{
			System:   d.cfg.System,
			Messages: msgs,
			Tools:    d.cfg.Tools,
		})
		if err != nil {
			// Provider failures are surfaced, not retried.
			d.log.Warn("provider call failed", "iteration", iter, "error", err)
			send(event.NewError(err.Error()))
			return
		}

		var text strings.Builder
		var calls []llm.ToolCall
		var results []llm.ToolResult
		for _, block := range turn.Blocks {
			switch block.Type {
			case llm.BlockText:
				if block.Text == "" {
					continue
				}
				text.WriteString(block.Text)
				if !send(event.NewTextDelta(block.Text)) {
					return
				}
			case llm.BlockToolUse:
				call := llm.ToolCall{ID: block.ID, Name: block.Name, Input: block.Input}
				calls = append(calls, call)
				ev, res := d.execToolCall(call)
				results = append(results, res)
				if ev != nil && !send(ev) {
					return
				}
			case llm.BlockServerToolUse:
				// Provider-managed tools fold their results into the
				// provider's own context; no synthetic turn is owed.
				d.log.Debug("server tool use", "tool", block.Name)
			}
		}

		switch turn.StopReason {
		case llm.StopEndTurn:
			if fullReview {
				if !send(event.NewReviewDone()) {
					return
				}
			}
			send(event.NewDone())
			return
		case llm.StopToolUse:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Text: text.String(), ToolCalls: calls})
			if len(results) > 0 {
				msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolResults: results})
			}
		default:
			send(event.NewError(fmt.Sprintf("model ended turn with unexpected stop reason %q", turn.StopReason)))
			return
		}
	}

	send(event.NewError("incomplete: max iterations reached"))
}

// execToolCall produces exactly one outward signal per tool call:
// either a validated event plus a "Recorded." ack, or an error ack and
// no event. Error acks go back to the model so it can self-correct.
func (d *Driver) execToolCall(call llm.ToolCall) (event.Event, llm.ToolResult) {
	art, err := decodeToolInput(call.Name, call.Input)
	if err != nil {
		d.log.Debug("tool call rejected by schema", "tool", call.Name, "error", err)
		return nil, llm.ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}
	}
	if art == nil {
		d.log.Debug("unknown tool call", "tool", call.Name)
		return nil, llm.ToolResult{CallID: call.ID, Content: fmt.Sprintf("unknown tool %q", call.Name), IsError: true}
	}
	if v := d.checker.CheckArtifact(art); v != nil {
		d.log.Debug("tool call rejected by authorship check", "tool", call.Name, "reason", v.Reason)
		return nil, llm.ToolResult{CallID: call.ID, Content: v.Error(), IsError: true}
	}
	return event.FromArtifact(art), llm.ToolResult{CallID: call.ID, Content: "Recorded."}
}
