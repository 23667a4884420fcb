package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/coach/driver"
	"github.com/quilldesk/quilldesk-backend/internal/coach/intake"
	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
	"github.com/quilldesk/quilldesk-backend/internal/coach/stream"
	"github.com/quilldesk/quilldesk-backend/internal/observability"
	"github.com/quilldesk/quilldesk-backend/internal/platform/envutil"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
	"github.com/quilldesk/quilldesk-backend/internal/repos"
	"github.com/quilldesk/quilldesk-backend/internal/sse"
)

// AssistantInput is the client-supplied part of an assistant call.
type AssistantInput struct {
	Message string
	History []coach.ChatMessage
	Mode    coach.Mode
}

// CoachService runs the full coaching pipeline: load essay, build the
// request, drive the model, validate the stream, frame it as SSE. An
// error return means nothing was streamed yet and the handler should
// respond with a plain HTTP error.
type CoachService interface {
	StreamReview(w http.ResponseWriter, r *http.Request, essayID, userID uuid.UUID) error
	StreamAssistant(w http.ResponseWriter, r *http.Request, essayID, userID uuid.UUID, in AssistantInput) error
}

type coachService struct {
	db            *gorm.DB
	log           *logger.Logger
	essays        repos.EssayRepo
	model         llm.Model
	checker       *authorship.Checker
	reporter      observability.Reporter
	streamTimeout time.Duration
}

func NewCoachService(
	db *gorm.DB,
	baseLog *logger.Logger,
	essays repos.EssayRepo,
	model llm.Model,
	checker *authorship.Checker,
	reporter observability.Reporter,
) CoachService {
	return &coachService{
		db:            db,
		log:           baseLog.With("service", "CoachService"),
		essays:        essays,
		model:         model,
		checker:       checker,
		reporter:      reporter,
		streamTimeout: envutil.Duration("COACH_STREAM_TIMEOUT", 5*time.Minute),
	}
}

func (s *coachService) StreamReview(w http.ResponseWriter, r *http.Request, essayID, userID uuid.UUID) error {
	essay, err := s.essays.GetByID(r.Context(), nil, essayID, userID)
	if err != nil {
		return err
	}
	req, err := intake.PrepareReviewRequest(essay.Title, essay.Content)
	if err != nil {
		return err
	}
	s.log.Info("starting review stream", "essay_id", essayID, "user_id", userID, "word_count", req.WordCount)
	s.stream(w, r, *req,
		driver.Config{
			MaxIterations: driver.MaxIterationsReview,
			System:        driver.SystemPrompt(coach.ModeFullReview, false),
			Tools:         driver.ReviewTools(),
		},
		stream.Config{TrackRubric: true},
	)
	return nil
}

func (s *coachService) StreamAssistant(w http.ResponseWriter, r *http.Request, essayID, userID uuid.UUID, in AssistantInput) error {
	essay, err := s.essays.GetByID(r.Context(), nil, essayID, userID)
	if err != nil {
		return err
	}
	req, err := intake.PrepareAssistantRequest(essay.Title, essay.Content, in.Message, in.History, in.Mode)
	if err != nil {
		return err
	}
	s.log.Info("starting assistant stream", "essay_id", essayID, "user_id", userID, "mode", req.Mode)
	s.stream(w, r, *req,
		driver.Config{
			MaxIterations: driver.MaxIterationsAssistant,
			System:        driver.SystemPrompt(req.Mode, true),
			Tools:         driver.AssistantTools(),
		},
		stream.Config{
			TrackRubric:       req.Mode == coach.ModeFullReview,
			CheckGhostwriting: req.Mode == coach.ModeChat,
		},
	)
	return nil
}

// stream wires driver -> validator -> transport. Cancelling the
// derived context when the transport returns is what stops the driver
// from making provider calls for a client that is gone.
func (s *coachService) stream(w http.ResponseWriter, r *http.Request, req coach.Request, dcfg driver.Config, vcfg stream.Config) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	d := driver.New(s.model, s.checker, s.log, s.reporter, dcfg)
	v := stream.NewValidator(s.checker, s.log, s.reporter, vcfg)
	events := v.Validate(ctx, d.Run(ctx, req))

	streamer := sse.NewStreamer(s.log, s.reporter, s.streamTimeout)
	streamer.Stream(w, r.WithContext(ctx), events)
}
