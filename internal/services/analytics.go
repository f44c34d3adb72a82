package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type AnalyticsService interface {
	// Track never fails the caller; errors are only logged.
	Track(ctx context.Context, userID, eventName, source string, metadata map[string]any)
	Record(ctx context.Context, eventName, source string, metadata json.RawMessage) error
}

type analyticsService struct {
	log     *logger.Logger
	events  repos.EventLogRepo
	metrics *observability.Metrics
}

func NewAnalyticsService(log *logger.Logger, events repos.EventLogRepo, metrics *observability.Metrics) AnalyticsService {
	return &analyticsService{
		log:     log.With("service", "AnalyticsService"),
		events:  events,
		metrics: metrics,
	}
}

func (s *analyticsService) Track(ctx context.Context, userID, eventName, source string, metadata map[string]any) {
	if s == nil {
		return
	}
	var raw datatypes.JSON
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("analytics metadata not serializable", "event", eventName, "error", err)
		} else {
			raw = datatypes.JSON(b)
		}
	}
	if err := s.insert(ctx, userID, eventName, source, raw); err != nil {
		s.metrics.IncAnalyticsEvent(eventName, false)
		s.log.Warn("analytics event not recorded", "event", eventName, "user_id", userID, "error", err)
		return
	}
	s.metrics.IncAnalyticsEvent(eventName, true)
}

func (s *analyticsService) Record(ctx context.Context, eventName, source string, metadata json.RawMessage) error {
	userID, err := actingUser(ctx, "")
	if err != nil {
		return err
	}
	eventName = strings.TrimSpace(eventName)
	if !analytics.KnownEvent(eventName) {
		return apierr.Newf(http.StatusBadRequest, "unknown_event", "unknown event %q", eventName)
	}
	var raw datatypes.JSON
	if len(metadata) > 0 && string(metadata) != "null" {
		if !json.Valid(metadata) {
			return badRequest("invalid_metadata", "metadata must be JSON")
		}
		raw = datatypes.JSON(metadata)
	}
	if err := s.insert(ctx, userID, eventName, source, raw); err != nil {
		s.metrics.IncAnalyticsEvent(eventName, false)
		return apierr.New(http.StatusInternalServerError, "analytics_failed", err)
	}
	s.metrics.IncAnalyticsEvent(eventName, true)
	return nil
}

func (s *analyticsService) insert(ctx context.Context, userID, eventName, source string, metadata datatypes.JSON) error {
	if s.events == nil {
		return fmt.Errorf("event log repo not configured")
	}
	ev := &types.EventLog{EventName: eventName, Metadata: metadata}
	if userID != "" {
		ev.UserID = &userID
	}
	if src := strings.TrimSpace(source); src != "" {
		ev.Source = &src
	}
	return s.events.Create(ctx, nil, []*types.EventLog{ev})
}
