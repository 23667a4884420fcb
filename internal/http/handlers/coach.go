package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quilldesk/quilldesk-backend/internal/coach"
	"github.com/quilldesk/quilldesk-backend/internal/coach/intake"
	"github.com/quilldesk/quilldesk-backend/internal/http/response"
	"github.com/quilldesk/quilldesk-backend/internal/platform/ctxutil"
	"github.com/quilldesk/quilldesk-backend/internal/repos"
	"github.com/quilldesk/quilldesk-backend/internal/services"
)

type CoachHandler struct {
	coach services.CoachService
}

func NewCoachHandler(coachSvc services.CoachService) *CoachHandler {
	return &CoachHandler{coach: coachSvc}
}

type reviewReq struct {
	EssayID uuid.UUID `json:"essay_id" binding:"required"`
}

// POST /api/review
func (h *CoachHandler) Review(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	if err := h.coach.StreamReview(c.Writer, c.Request, req.EssayID, userID); err != nil {
		respondCoachError(c, err)
	}
}

type assistantReq struct {
	EssayID uuid.UUID           `json:"essay_id" binding:"required"`
	Message string              `json:"message"`
	History []coach.ChatMessage `json:"conversation_history"`
	Mode    coach.Mode          `json:"mode"`
}

// POST /api/assistant
func (h *CoachHandler) Assistant(c *gin.Context) {
	var req assistantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	in := services.AssistantInput{Message: req.Message, History: req.History, Mode: req.Mode}
	if err := h.coach.StreamAssistant(c.Writer, c.Request, req.EssayID, userID, in); err != nil {
		respondCoachError(c, err)
	}
}

// respondCoachError only fires for failures detected before the stream
// opened; everything after the first frame is reported in-band.
func respondCoachError(c *gin.Context, err error) {
	var vErr *intake.ValidationError
	switch {
	case errors.Is(err, repos.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "essay_not_found", err)
	case errors.As(err, &vErr):
		response.RespondError(c, http.StatusUnprocessableEntity, "ineligible_request", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "coach_failed", err)
	}
}
