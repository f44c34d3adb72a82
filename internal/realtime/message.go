package realtime

import "strings"

type SSEEvent string

const (
	SSEEventStampCountChanged SSEEvent = "StampCountChanged"
	SSEEventFamilyUpdated     SSEEvent = "FamilyUpdated"
	SSEEventRewardExchanged   SSEEvent = "RewardExchanged"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

func UserChannel(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return "user:" + userID
}

func FamilyChannel(familyID string) string {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return ""
	}
	return "family:" + familyID
}
