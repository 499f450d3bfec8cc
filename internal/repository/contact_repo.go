package repository

import (
	"context"
	"errors"

	"github.com/timeroster/push-relay/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContactRepository interface {
	CreateRequest(ctx context.Context, request *domain.ContactRequest) error
	GetRequestByID(ctx context.Context, id string) (*domain.ContactRequest, error)
	AcceptRequest(ctx context.Context, id string) error
	DeleteRequest(ctx context.Context, id string) error
	MirrorContacts(ctx context.Context, first, second domain.Contact) error
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
}

type GormContactRepo struct {
	db *gorm.DB
}

func NewGormContactRepo(db *gorm.DB) *GormContactRepo {
	return &GormContactRepo{db: db}
}

func (r *GormContactRepo) CreateRequest(ctx context.Context, request *domain.ContactRequest) error {
	model := contactRequestModelFromDomain(request)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if request != nil {
		*request = *contactRequestModelToDomain(model)
	}
	return nil
}

func (r *GormContactRepo) GetRequestByID(ctx context.Context, id string) (*domain.ContactRequest, error) {
	var model ContactRequestModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactRequestModelToDomain(&model), nil
}

func (r *GormContactRepo) AcceptRequest(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&ContactRequestModel{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Update("status", domain.RequestAccepted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormContactRepo) DeleteRequest(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&ContactRequestModel{}, "id = ?", id).Error
}

// MirrorContacts writes both halves of a relationship in one transaction.
// Upsert semantics on the pair key make a repeated mirror run harmless.
func (r *GormContactRepo) MirrorContacts(ctx context.Context, first, second domain.Contact) error {
	models := []ContactModel{
		{UserID: first.UserID, FriendID: first.FriendID, Name: first.Name, AcceptedAt: first.AcceptedAt},
		{UserID: second.UserID, FriendID: second.FriendID, Name: second.Name, AcceptedAt: second.AcceptedAt},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "accepted_at"}),
		}).Create(&models).Error
	})
}

func (r *GormContactRepo) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	var models []ContactModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("accepted_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	contacts := make([]domain.Contact, 0, len(models))
	for i := range models {
		contacts = append(contacts, *contactModelToDomain(&models[i]))
	}

	return contacts, nil
}

var _ ContactRepository = (*GormContactRepo)(nil)
var _ IntentRepository = (*GormIntentRepo)(nil)
