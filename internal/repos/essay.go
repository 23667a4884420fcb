package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quilldesk/quilldesk-backend/internal/domain"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

// ErrNotFound is returned when an essay does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("essay not found")

type EssayRepo interface {
	Create(ctx context.Context, tx *gorm.DB, essay *domain.Essay) (*domain.Essay, error)
	GetByID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*domain.Essay, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*domain.Essay, error)
	Update(ctx context.Context, tx *gorm.DB, essay *domain.Essay) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error
}

type essayRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEssayRepo(db *gorm.DB, baseLog *logger.Logger) EssayRepo {
	return &essayRepo{db: db, log: baseLog.With("repo", "EssayRepo")}
}

func (r *essayRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *essayRepo) Create(ctx context.Context, tx *gorm.DB, essay *domain.Essay) (*domain.Essay, error) {
	if err := r.conn(tx).WithContext(ctx).Create(essay).Error; err != nil {
		return nil, err
	}
	return essay, nil
}

func (r *essayRepo) GetByID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*domain.Essay, error) {
	var essay domain.Essay
	err := r.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&essay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &essay, nil
}

func (r *essayRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*domain.Essay, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var essays []*domain.Essay
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&essays).Error
	if err != nil {
		return nil, err
	}
	return essays, nil
}

func (r *essayRepo) Update(ctx context.Context, tx *gorm.DB, essay *domain.Essay) error {
	return r.conn(tx).WithContext(ctx).Save(essay).Error
}

func (r *essayRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Essay{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
