package survey

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Survey struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Title        string    `gorm:"not null;column:title" json:"title"`
	Description  *string   `gorm:"column:description" json:"description"`
	RewardStamps int       `gorm:"not null;default:0;column:reward_stamps" json:"reward_stamps"`
	IsActive     bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Survey) TableName() string { return "surveys" }

// Target tracks whether and when a survey was offered to a user.
type Target struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string     `gorm:"type:varchar(128);not null;column:user_id" json:"user_id"`
	SurveyID        string     `gorm:"type:varchar(64);not null;column:survey_id" json:"survey_id"`
	ShownCount      int        `gorm:"not null;default:0;column:shown_count" json:"shown_count"`
	PostponedCount  int        `gorm:"not null;default:0;column:postponed_count" json:"postponed_count"`
	LastShownAt     *time.Time `gorm:"column:last_shown_at" json:"last_shown_at"`
	LastPostponedAt *time.Time `gorm:"column:last_postponed_at" json:"last_postponed_at"`
	AnsweredAt      *time.Time `gorm:"column:answered_at" json:"answered_at"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (Target) TableName() string { return "survey_targets" }

func (t *Target) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Snoozed reports whether the target was shown within window of now.
func (t *Target) Snoozed(now time.Time, window time.Duration) bool {
	if t == nil || t.LastShownAt == nil {
		return false
	}
	return now.Sub(*t.LastShownAt) < window
}

type Answer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(128);not null;column:user_id" json:"user_id"`
	SurveyID    string    `gorm:"type:varchar(64);not null;column:survey_id" json:"survey_id"`
	Q1Rating    int       `gorm:"not null;column:q1_rating" json:"q1_rating"`
	Q2Comment   *string   `gorm:"column:q2_comment" json:"q2_comment"`
	Q3Recommend int       `gorm:"not null;column:q3_recommend" json:"q3_recommend"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Answer) TableName() string { return "survey_answers" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
