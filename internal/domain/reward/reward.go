package reward

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reward struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"not null;uniqueIndex;column:name" json:"name"`
	Description    *string   `gorm:"column:description" json:"description"`
	RequiredStamps int       `gorm:"not null;column:required_stamps" json:"required_stamps"`
	ImageURL       *string   `gorm:"column:image_url" json:"image_url"`
	IsActive       bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	DisplayOrder   int       `gorm:"not null;default:0;column:display_order" json:"display_order"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Reward) TableName() string { return "rewards" }

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ExchangeStatus string

const (
	StatusPending   ExchangeStatus = "pending"
	StatusCompleted ExchangeStatus = "completed"
	StatusCancelled ExchangeStatus = "cancelled"
)

// CanTransition reports whether an exchange may move from s to next.
func (s ExchangeStatus) CanTransition(next ExchangeStatus) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusCancelled)
}

type Exchange struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(128);not null;index;column:user_id" json:"user_id"`
	RewardID       uuid.UUID      `gorm:"type:uuid;not null;index;column:reward_id" json:"reward_id"`
	StampCountUsed int            `gorm:"not null;column:stamp_count_used" json:"stamp_count_used"`
	ExchangedAt    time.Time      `gorm:"not null;column:exchanged_at" json:"exchanged_at"`
	Status         ExchangeStatus `gorm:"type:varchar(16);not null;default:'pending';column:status" json:"status"`
	Notes          *string        `gorm:"column:notes" json:"notes"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Exchange) TableName() string { return "reward_exchanges" }

func (e *Exchange) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// WithStatus decorates a reward with exchangeability against a stamp count.
type WithStatus struct {
	Reward
	CanExchange     bool `json:"canExchange"`
	RemainingStamps int  `json:"remainingStamps"`
}

func AddStatus(rewards []*Reward, currentStamps int) []WithStatus {
	out := make([]WithStatus, 0, len(rewards))
	for _, r := range rewards {
		if r == nil {
			continue
		}
		out = append(out, WithStatus{
			Reward:          *r,
			CanExchange:     currentStamps >= r.RequiredStamps,
			RemainingStamps: r.RequiredStamps - currentStamps,
		})
	}
	return out
}
