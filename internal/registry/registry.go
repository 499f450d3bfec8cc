// Package registry holds the per-user set of live push endpoints.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registry is the per-user endpoint store the dispatcher resolves recipients
// against. List failures are fatal for an invocation; Remove failures are
// best-effort cleanup and callers only log them.
type Registry interface {
	List(ctx context.Context, userID string) ([]domain.Endpoint, error)
	Register(ctx context.Context, endpoint *domain.Endpoint) error
	Remove(ctx context.Context, userID string, tokens []string) error
}

// EndpointModel is the persistence model for push_endpoints. One row per
// device registration, keyed by (user_id, token).
type EndpointModel struct {
	UserID     string          `gorm:"type:varchar(255);primaryKey"`
	Token      string          `gorm:"type:varchar(512);primaryKey"`
	Platform   domain.Platform `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time
	LastSeenAt time.Time `gorm:"type:timestamptz;not null"`
}

func (EndpointModel) TableName() string {
	return "push_endpoints"
}

type GormRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRegistry(db *gorm.DB) *GormRegistry {
	return &GormRegistry{db: db, now: time.Now}
}

func (r *GormRegistry) List(ctx context.Context, userID string) ([]domain.Endpoint, error) {
	var models []EndpointModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list endpoints: %v", domain.ErrStorage, err)
	}

	endpoints := make([]domain.Endpoint, 0, len(models))
	for i := range models {
		endpoints = append(endpoints, domain.Endpoint{
			Token:      models[i].Token,
			UserID:     models[i].UserID,
			Platform:   models[i].Platform,
			CreatedAt:  models[i].CreatedAt,
			LastSeenAt: models[i].LastSeenAt,
		})
	}

	return endpoints, nil
}

// Register upserts an endpoint. Re-registering the same token only refreshes
// last_seen_at, so client retries are harmless.
func (r *GormRegistry) Register(ctx context.Context, endpoint *domain.Endpoint) error {
	if err := endpoint.Validate(); err != nil {
		return err
	}

	model := EndpointModel{
		UserID:     endpoint.UserID,
		Token:      endpoint.Token,
		Platform:   endpoint.Platform,
		LastSeenAt: r.now().UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "last_seen_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("%w: failed to register endpoint: %v", domain.ErrStorage, err)
	}

	endpoint.CreatedAt = model.CreatedAt
	endpoint.LastSeenAt = model.LastSeenAt
	return nil
}

// Remove deletes the given tokens for a user as one atomic batch. An empty
// token set and already-absent tokens are both no-ops, not errors.
func (r *GormRegistry) Remove(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("user_id = ? AND token IN ?", userID, tokens).
			Delete(&EndpointModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: failed to remove endpoints: %v", domain.ErrStorage, err)
	}

	return nil
}

// IsStorageError reports whether an error came from the underlying store.
func IsStorageError(err error) bool {
	return errors.Is(err, domain.ErrStorage)
}

var _ Registry = (*GormRegistry)(nil)
