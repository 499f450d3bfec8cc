package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"gorm.io/datatypes"
)

// IntentModel is the persistence model for the intents table.
type IntentModel struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	CorrelationID   string         `gorm:"type:varchar(36);not null"`
	RecipientUserID string         `gorm:"type:varchar(255);not null;index"`
	Data            datatypes.JSON `gorm:"type:jsonb"`
	Status          domain.Status  `gorm:"type:varchar(20);not null"`
	ProcessedAt     *time.Time     `gorm:"type:timestamptz"`
	SuccessCount    int            `gorm:"not null;default:0"`
	FailureCount    int            `gorm:"not null;default:0"`
	Error           *string        `gorm:"type:text"`
	LastEnqueuedAt  *time.Time     `gorm:"type:timestamptz"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (IntentModel) TableName() string {
	return "intents"
}

// ContactRequestModel is the persistence model for contact_requests.
type ContactRequestModel struct {
	ID         string               `gorm:"type:uuid;primaryKey"`
	FromUserID string               `gorm:"type:varchar(255);not null;index"`
	ToUserID   string               `gorm:"type:varchar(255);not null;index"`
	FromName   string               `gorm:"type:varchar(255)"`
	ToName     string               `gorm:"type:varchar(255)"`
	Status     domain.RequestStatus `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ContactRequestModel) TableName() string {
	return "contact_requests"
}

// ContactModel is the persistence model for mirrored contacts. The composite
// key (user_id, friend_id) makes the mirror write an idempotent upsert.
type ContactModel struct {
	UserID     string    `gorm:"type:varchar(255);primaryKey"`
	FriendID   string    `gorm:"type:varchar(255);primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	AcceptedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (ContactModel) TableName() string {
	return "contacts"
}

func intentModelFromDomain(i *domain.Intent) (*IntentModel, error) {
	if i == nil {
		return nil, nil
	}

	var data datatypes.JSON
	if len(i.Data) > 0 {
		raw, err := json.Marshal(i.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode intent data: %w", err)
		}
		data = raw
	}

	return &IntentModel{
		ID:              i.ID,
		CorrelationID:   i.CorrelationID,
		RecipientUserID: i.RecipientUserID,
		Data:            data,
		Status:          i.Status,
		ProcessedAt:     i.ProcessedAt,
		SuccessCount:    i.SuccessCount,
		FailureCount:    i.FailureCount,
		Error:           i.Error,
		LastEnqueuedAt:  i.LastEnqueuedAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}, nil
}

func intentModelToDomain(m *IntentModel) (*domain.Intent, error) {
	if m == nil {
		return nil, nil
	}

	var data map[string]string
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode intent data: %w", err)
		}
	}

	return &domain.Intent{
		ID:              m.ID,
		CorrelationID:   m.CorrelationID,
		RecipientUserID: m.RecipientUserID,
		Data:            data,
		Status:          m.Status,
		ProcessedAt:     m.ProcessedAt,
		SuccessCount:    m.SuccessCount,
		FailureCount:    m.FailureCount,
		Error:           m.Error,
		LastEnqueuedAt:  m.LastEnqueuedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func contactRequestModelFromDomain(r *domain.ContactRequest) *ContactRequestModel {
	if r == nil {
		return nil
	}

	return &ContactRequestModel{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		FromName:   r.FromName,
		ToName:     r.ToName,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func contactRequestModelToDomain(m *ContactRequestModel) *domain.ContactRequest {
	if m == nil {
		return nil
	}

	return &domain.ContactRequest{
		ID:         m.ID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		FromName:   m.FromName,
		ToName:     m.ToName,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func contactModelToDomain(m *ContactModel) *domain.Contact {
	if m == nil {
		return nil
	}

	return &domain.Contact{
		UserID:     m.UserID,
		FriendID:   m.FriendID,
		Name:       m.Name,
		AcceptedAt: m.AcceptedAt,
	}
}
