// Package stream sits between the agent driver and the transport. It
// re-checks artifact events and enforces the cross-event completeness
// invariant that only becomes decidable at stream end.
package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/quilldesk/quilldesk-backend/internal/coach/artifact"
	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/coach/event"
	"github.com/quilldesk/quilldesk-backend/internal/observability"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type Config struct {
	// TrackRubric enforces one score per rubric dimension before a
	// successful finish (full-review streams).
	TrackRubric bool
	// CheckGhostwriting accumulates free text and runs the
	// ghostwriting check once, at done (chat streams).
	CheckGhostwriting bool
}

type Validator struct {
	checker  *authorship.Checker
	log      *logger.Logger
	reporter observability.Reporter
	cfg      Config
}

func NewValidator(checker *authorship.Checker, baseLog *logger.Logger, reporter observability.Reporter, cfg Config) *Validator {
	return &Validator{
		checker:  checker,
		log:      baseLog.With("component", "StreamValidator"),
		reporter: reporter,
		cfg:      cfg,
	}
}

// accumulator is the per-stream state. One instance per Validate call;
// never shared across requests.
type accumulator struct {
	seen map[artifact.Dimension]bool
	text strings.Builder
}

// Validate consumes the driver's events and forwards them, injecting
// in-band errors where an invariant fails. The terminal event is
// always forwarded: the contract is to tell the truth about
// completeness and let the client decide what to do with a degraded
// review.
func (v *Validator) Validate(ctx context.Context, in <-chan event.Event) <-chan event.Event {
	out := make(chan event.Event, cap(in))
	go func() {
		defer close(out)
		defer func() {
			if rec := recover(); rec != nil {
				v.reporter.ReportError(ctx, fmt.Errorf("validator panic: %v", rec), nil)
				select {
				case out <- event.NewError("Stream failed"):
				case <-ctx.Done():
				}
			}
		}()
		v.run(ctx, in, out)
	}()
	return out
}

func (v *Validator) run(ctx context.Context, in <-chan event.Event, out chan<- event.Event) {
	send := func(ev event.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	acc := accumulator{seen: make(map[artifact.Dimension]bool)}
	for {
		var ev event.Event
		var ok bool
		select {
		case ev, ok = <-in:
		case <-ctx.Done():
			return
		}
		if !ok {
			return
		}

		switch t := ev.(type) {
		case event.TextDelta:
			if v.cfg.CheckGhostwriting {
				acc.text.WriteString(t.Text)
			}
		case event.RubricScore:
			if vio := v.recheck(&t.RubricScore); vio != nil {
				if !send(event.NewError(vio.Reason)) {
					return
				}
				continue
			}
			// One score per dimension per review; a repeat is dropped
			// and flagged rather than letting it shadow the first.
			if v.cfg.TrackRubric && acc.seen[t.Dimension] {
				v.log.Warn("duplicate rubric score", "dimension", t.Dimension)
				if !send(event.NewError(fmt.Sprintf("duplicate rubric score for %s", t.Dimension))) {
					return
				}
				continue
			}
			acc.seen[t.Dimension] = true
		case event.InlineComment:
			if vio := v.recheck(&t.InlineComment); vio != nil {
				if !send(event.NewError(vio.Reason)) {
					return
				}
				continue
			}
		case event.Issue:
			if vio := v.recheck(&t.Issue); vio != nil {
				if !send(event.NewError(vio.Reason)) {
					return
				}
				continue
			}
		case event.Question:
			if vio := v.recheck(&t.Question); vio != nil {
				if !send(event.NewError(vio.Reason)) {
					return
				}
				continue
			}
		case event.SourceSuggestion:
			if vio := v.recheck(&t.SourceSuggestion); vio != nil {
				if !send(event.NewError(vio.Reason)) {
					return
				}
				continue
			}
		case event.Done:
			for _, errEv := range v.finishChecks(&acc) {
				if !send(errEv) {
					return
				}
			}
		}

		if !send(ev) {
			return
		}
	}
}

// recheck runs the authorship check a second time on its way out. The
// driver already filtered; this guards future code paths that might
// feed the transport directly.
func (v *Validator) recheck(a artifact.Artifact) *authorship.Violation {
	vio := v.checker.CheckArtifact(a)
	if vio != nil {
		v.log.Warn("artifact passed the driver but failed revalidation", "kind", a.Kind(), "reason", vio.Reason)
	}
	return vio
}

func (v *Validator) finishChecks(acc *accumulator) []event.Event {
	var out []event.Event
	if v.cfg.TrackRubric {
		var missing []string
		for _, dim := range artifact.Dimensions() {
			if !acc.seen[dim] {
				missing = append(missing, string(dim))
			}
		}
		if len(missing) > 0 {
			out = append(out, event.NewError(fmt.Sprintf(
				"review incomplete: missing rubric scores for %s", strings.Join(missing, ", "))))
		}
	}
	if v.cfg.CheckGhostwriting {
		if vio := v.checker.CheckText(acc.text.String()); vio != nil {
			out = append(out, event.NewError(vio.Error()))
		}
	}
	return out
}
