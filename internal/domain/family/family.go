package family

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Family groups profiles under one representative parent. Its id doubles as the invite code.
type Family struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string    `gorm:"not null;column:family_name" json:"family_name"`
	RepresentativeUserID string    `gorm:"type:varchar(128);not null;column:representative_user_id" json:"representative_user_id"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (Family) TableName() string { return "families" }

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Totals aggregates member counts for one family.
type Totals struct {
	FamilyID        string `json:"family_id"`
	TotalStampCount int    `json:"total_stamp_count"`
	TotalVisitCount int    `json:"total_visit_count"`
	MemberCount     int    `json:"member_count"`
}

// Member is the projection of a profile shown on the family page.
type Member struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	FamilyRole   *string `json:"family_role"`
	StampCount   int     `json:"stamp_count"`
	VisitCount   int     `json:"visit_count"`
	LineUserID   *string `json:"line_user_id"`
	TicketNumber *string `json:"ticket_number"`
	PictureURL   *string `json:"picture_url"`
}
