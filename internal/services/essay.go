package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quilldesk/quilldesk-backend/internal/domain"
	"github.com/quilldesk/quilldesk-backend/internal/platform/apierr"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
	"github.com/quilldesk/quilldesk-backend/internal/repos"
)

type EssayService interface {
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*domain.Essay, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Essay, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Essay, error)
	Update(ctx context.Context, id, userID uuid.UUID, title, content *string) (*domain.Essay, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type essayService struct {
	db     *gorm.DB
	log    *logger.Logger
	essays repos.EssayRepo
}

func NewEssayService(db *gorm.DB, baseLog *logger.Logger, essays repos.EssayRepo) EssayService {
	return &essayService{db: db, log: baseLog.With("service", "EssayService"), essays: essays}
}

func (s *essayService) Create(ctx context.Context, userID uuid.UUID, title, content string) (*domain.Essay, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_title", errors.New("title is required"))
	}
	essay := &domain.Essay{UserID: userID, Title: title, Content: content}
	return s.essays.Create(ctx, nil, essay)
}

func (s *essayService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Essay, error) {
	return s.essays.GetByID(ctx, nil, id, userID)
}

func (s *essayService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Essay, error) {
	return s.essays.ListByUser(ctx, nil, userID, limit)
}

func (s *essayService) Update(ctx context.Context, id, userID uuid.UUID, title, content *string) (*domain.Essay, error) {
	essay, err := s.essays.GetByID(ctx, nil, id, userID)
	if err != nil {
		return nil, err
	}
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return nil, apierr.New(http.StatusBadRequest, "invalid_title", errors.New("title cannot be blank"))
		}
		essay.Title = *title
	}
	if content != nil {
		essay.Content = *content
	}
	if err := s.essays.Update(ctx, nil, essay); err != nil {
		return nil, err
	}
	return essay, nil
}

func (s *essayService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.essays.SoftDeleteByID(ctx, nil, id, userID)
}
