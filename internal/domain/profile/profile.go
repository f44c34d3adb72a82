package profile

import (
	"strings"
	"time"
)

const (
	RoleParent = "parent"
	RoleChild  = "child"

	ViewModeAdult = "adult"
	ViewModeKids  = "kids"

	// ProxyIDPrefix marks members created by a guardian without a LINE account.
	ProxyIDPrefix = "manual-"
)

// Profile is one patient, keyed by their LINE user id, or a proxy member keyed by a manual- id.
type Profile struct {
	ID          string  `gorm:"type:varchar(128);primaryKey;column:id" json:"id"`
	LineUserID  *string `gorm:"type:varchar(128);column:line_user_id" json:"line_user_id"`
	DisplayName string  `gorm:"not null;default:'';column:display_name" json:"display_name"`
	PictureURL  *string `gorm:"column:picture_url" json:"picture_url"`

	StampCount    int        `gorm:"not null;default:0;column:stamp_count" json:"stamp_count"`
	VisitCount    int        `gorm:"not null;default:0;column:visit_count" json:"visit_count"`
	LastVisitDate *time.Time `gorm:"column:last_visit_date" json:"last_visit_date"`

	TicketNumber *string `gorm:"column:ticket_number" json:"ticket_number"`
	RealName     *string `gorm:"column:real_name" json:"real_name"`

	FamilyID   *string `gorm:"type:varchar(64);index;column:family_id" json:"family_id"`
	FamilyRole *string `gorm:"type:varchar(16);column:family_role" json:"family_role"`

	IsLineFriend *bool  `gorm:"column:is_line_friend" json:"is_line_friend"`
	ViewMode     string `gorm:"type:varchar(16);not null;default:'adult';column:view_mode" json:"view_mode"`

	NextVisitDate     *string    `gorm:"type:varchar(10);column:next_visit_date" json:"next_visit_date"`
	NextMemo          *string    `gorm:"type:varchar(800);column:next_memo" json:"next_memo"`
	NextMemoUpdatedAt *time.Time `gorm:"column:next_memo_updated_at" json:"next_memo_updated_at"`

	ReservationButtonClicks int `gorm:"not null;default:0;column:reservation_button_clicks" json:"reservation_button_clicks"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// IsProxy reports whether the profile is a guardian-managed member that may be hard-deleted.
func (p *Profile) IsProxy() bool {
	if p == nil {
		return false
	}
	return p.LineUserID == nil && strings.HasPrefix(p.ID, ProxyIDPrefix)
}

func (p *Profile) Role() string {
	if p == nil || p.FamilyRole == nil {
		return ""
	}
	return *p.FamilyRole
}

func (p *Profile) IsParent() bool { return p.Role() == RoleParent }

func (p *Profile) InFamily() bool {
	return p != nil && p.FamilyID != nil && *p.FamilyID != ""
}

// Memo is the next-visit memo subset of a profile.
type Memo struct {
	NextVisitDate     *string    `json:"next_visit_date"`
	NextMemo          *string    `json:"next_memo"`
	NextMemoUpdatedAt *time.Time `json:"next_memo_updated_at"`
}

func (p *Profile) Memo() Memo {
	return Memo{
		NextVisitDate:     p.NextVisitDate,
		NextMemo:          p.NextMemo,
		NextMemoUpdatedAt: p.NextMemoUpdatedAt,
	}
}
