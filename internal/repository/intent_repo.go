package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"gorm.io/gorm"
)

type IntentRepository interface {
	Create(ctx context.Context, intent *domain.Intent) error
	GetByID(ctx context.Context, id string) (*domain.Intent, error)
	MarkTerminal(ctx context.Context, id string, update domain.TerminalUpdate) error
	TouchEnqueued(ctx context.Context, id string, at time.Time) error
	GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Intent, error)
}

type GormIntentRepo struct {
	db *gorm.DB
}

func NewGormIntentRepo(db *gorm.DB) *GormIntentRepo {
	return &GormIntentRepo{db: db}
}

func (r *GormIntentRepo) Create(ctx context.Context, intent *domain.Intent) error {
	model, err := intentModelFromDomain(intent)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if intent != nil {
		stored, err := intentModelToDomain(model)
		if err != nil {
			return err
		}
		*intent = *stored
	}
	return nil
}

func (r *GormIntentRepo) GetByID(ctx context.Context, id string) (*domain.Intent, error) {
	var model IntentModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return intentModelToDomain(&model)
}

// MarkTerminal merges the terminal status onto an intent. Only pending intents
// are eligible; an intent that already reached a terminal state is left
// untouched and the call reports ErrConflict.
func (r *GormIntentRepo) MarkTerminal(ctx context.Context, id string, update domain.TerminalUpdate) error {
	if !update.Status.IsTerminal() {
		return domain.ErrValidation
	}

	fields := map[string]any{
		"status":       update.Status,
		"processed_at": update.ProcessedAt,
	}
	if update.SuccessCount != nil {
		fields["success_count"] = *update.SuccessCount
	}
	if update.FailureCount != nil {
		fields["failure_count"] = *update.FailureCount
	}
	if update.Error != nil {
		fields["error"] = *update.Error
	}

	result := r.db.WithContext(ctx).
		Model(&IntentModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormIntentRepo) TouchEnqueued(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&IntentModel{}).
		Where("id = ?", id).
		Update("last_enqueued_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormIntentRepo) GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Intent, error) {
	var models []IntentModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", domain.StatusPending, olderThan).
		Where("last_enqueued_at IS NULL OR last_enqueued_at <= ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	intents := make([]domain.Intent, 0, len(models))
	for i := range models {
		intent, err := intentModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		intents = append(intents, *intent)
	}

	return intents, nil
}
