package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type SSEClient struct {
	ID       uuid.UUID
	UserID   string
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}
