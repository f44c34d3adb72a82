package stamp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Method string

const (
	MethodQRScan       Method = "qr_scan"
	MethodManualAdmin  Method = "manual_admin"
	MethodImport       Method = "import"
	MethodSurveyReward Method = "survey_reward"
	MethodSlotGame     Method = "slot_game"

	// MethodRefund labels realtime updates for a cancelled exchange. It never
	// appears in stamp_history, so Valid rejects it.
	MethodRefund Method = "refund"
)

func (m Method) Valid() bool {
	switch m {
	case MethodQRScan, MethodManualAdmin, MethodImport, MethodSurveyReward, MethodSlotGame:
		return true
	}
	return false
}

// HistoryRecord is one append-only ledger entry. Amount is signed: manual adjustments may be negative.
type HistoryRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(128);not null;index;column:user_id" json:"user_id"`
	VisitDate   time.Time `gorm:"not null;column:visit_date" json:"visit_date"`
	VisitDay    string    `gorm:"type:varchar(10);not null;column:visit_day" json:"visit_day"`
	StampNumber int       `gorm:"not null;default:0;column:stamp_number" json:"stamp_number"`
	Method      Method    `gorm:"type:varchar(32);not null;column:stamp_method" json:"stamp_method"`
	QRCodeID    *string   `gorm:"type:varchar(255);column:qr_code_id" json:"qr_code_id"`
	Amount      int       `gorm:"not null;default:0;column:amount" json:"amount"`
	Notes       *string   `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (HistoryRecord) TableName() string { return "stamp_history" }

func (r *HistoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Progress describes how close a count is to a goal.
type Progress struct {
	Percentage float64 `json:"percentage"`
	Remaining  int     `json:"remaining"`
	IsComplete bool    `json:"isComplete"`
}

func ComputeProgress(current, goal int) Progress {
	pct := float64(current) / float64(goal) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	remaining := goal - current
	if remaining < 0 {
		remaining = 0
	}
	return Progress{Percentage: pct, Remaining: remaining, IsComplete: current >= goal}
}
