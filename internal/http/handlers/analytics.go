package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// POST /api/analytics/events
// body: { "eventName": "...", "source"?: "...", "metadata"?: {...} }
func (h *AnalyticsHandler) Record(c *gin.Context) {
	var req struct {
		EventName string          `json:"eventName"`
		Source    string          `json:"source"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.analytics.Record(c.Request.Context(), req.EventName, req.Source, req.Metadata); err != nil {
		response.RespondAPIError(c, err, "analytics_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{"eventName": req.EventName}))
}
