package analytics

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventAppOpen                = "app_open"
	EventPageView               = "page_view"
	EventSessionStart           = "session_start"
	EventSessionEnd             = "session_end"
	EventStampScanSuccess       = "stamp_scan_success"
	EventStampScanFail          = "stamp_scan_fail"
	EventSlotGamePlay           = "slot_game_play"
	EventReservationButtonClick = "reservation_button_click"
	EventRewardExchangeSuccess  = "reward_exchange_success"
	EventErrorOccurred          = "error_occurred"
	EventFamilyMemberAdd        = "family_member_add"
	EventFamilyMemberEdit       = "family_member_edit"
	EventFamilyMemberDelete     = "family_member_delete"
	EventChildModeEnter         = "child_mode_enter"
	EventChildModeExit          = "child_mode_exit"
	EventChildScreenView        = "child_screen_view"
)

var knownEvents = map[string]struct{}{
	EventAppOpen: {}, EventPageView: {}, EventSessionStart: {}, EventSessionEnd: {},
	EventStampScanSuccess: {}, EventStampScanFail: {}, EventSlotGamePlay: {},
	EventReservationButtonClick: {}, EventRewardExchangeSuccess: {}, EventErrorOccurred: {},
	EventFamilyMemberAdd: {}, EventFamilyMemberEdit: {}, EventFamilyMemberDelete: {},
	EventChildModeEnter: {}, EventChildModeExit: {}, EventChildScreenView: {},
}

func KnownEvent(name string) bool {
	_, ok := knownEvents[name]
	return ok
}

type EventLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *string        `gorm:"type:varchar(128);index;column:user_id" json:"user_id"`
	EventName string         `gorm:"type:varchar(64);not null;index;column:event_name" json:"event_name"`
	Source    *string        `gorm:"type:varchar(64);column:source" json:"source"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (EventLog) TableName() string { return "event_logs" }

func (e *EventLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
