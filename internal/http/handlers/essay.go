package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quilldesk/quilldesk-backend/internal/http/response"
	"github.com/quilldesk/quilldesk-backend/internal/platform/apierr"
	"github.com/quilldesk/quilldesk-backend/internal/platform/ctxutil"
	"github.com/quilldesk/quilldesk-backend/internal/repos"
	"github.com/quilldesk/quilldesk-backend/internal/services"
)

type EssayHandler struct {
	essays services.EssayService
}

func NewEssayHandler(essays services.EssayService) *EssayHandler {
	return &EssayHandler{essays: essays}
}

// respondEssayError maps service errors onto the envelope: not-found,
// then typed API errors, then the handler's fallback code.
func respondEssayError(c *gin.Context, err error, fallbackCode string) {
	var aErr *apierr.Error
	switch {
	case errors.Is(err, repos.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "essay_not_found", err)
	case errors.As(err, &aErr):
		response.RespondError(c, aErr.Status, aErr.Code, err)
	default:
		response.RespondError(c, http.StatusInternalServerError, fallbackCode, err)
	}
}

type createEssayReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// POST /api/essays
func (h *EssayHandler) Create(c *gin.Context) {
	var req createEssayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	essay, err := h.essays.Create(c.Request.Context(), userID, req.Title, req.Content)
	if err != nil {
		respondEssayError(c, err, "create_essay_failed")
		return
	}
	response.RespondOK(c, gin.H{"essay": essay})
}

// GET /api/essays/:id
func (h *EssayHandler) Get(c *gin.Context) {
	essayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_essay_id", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	essay, err := h.essays.Get(c.Request.Context(), essayID, userID)
	if err != nil {
		respondEssayError(c, err, "get_essay_failed")
		return
	}
	response.RespondOK(c, gin.H{"essay": essay})
}

// GET /api/essays?limit=50
func (h *EssayHandler) List(c *gin.Context) {
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	userID := ctxutil.UserID(c.Request.Context())
	essays, err := h.essays.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondEssayError(c, err, "list_essays_failed")
		return
	}
	response.RespondOK(c, gin.H{"essays": essays})
}

type updateEssayReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// PATCH /api/essays/:id
func (h *EssayHandler) Update(c *gin.Context) {
	essayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_essay_id", err)
		return
	}
	var req updateEssayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	essay, err := h.essays.Update(c.Request.Context(), essayID, userID, req.Title, req.Content)
	if err != nil {
		respondEssayError(c, err, "update_essay_failed")
		return
	}
	response.RespondOK(c, gin.H{"essay": essay})
}

// DELETE /api/essays/:id
func (h *EssayHandler) Delete(c *gin.Context) {
	essayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_essay_id", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	if err := h.essays.Delete(c.Request.Context(), essayID, userID); err != nil {
		respondEssayError(c, err, "delete_essay_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
