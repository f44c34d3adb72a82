package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/realtime"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type RealtimeHandler struct {
	log         *logger.Logger
	hub         *realtime.SSEHub
	userService services.UserService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, userService services.UserService) *RealtimeHandler {
	return &RealtimeHandler{
		log:         log.With("handler", "RealtimeHandler"),
		hub:         hub,
		userService: userService,
	}
}

// GET /api/events?token=...
// Subscribes the caller to its user channel and, when it has one, its family channel.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	userID := ctxutil.UserID(ctx)
	if userID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	p, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		response.RespondAPIError(c, err, "stream_failed")
		return
	}

	client := h.hub.NewSSEClient(userID)
	defer h.hub.CloseClient(client)

	h.hub.AddChannel(client, realtime.UserChannel(userID))
	if p.InFamily() {
		h.hub.AddChannel(client, realtime.FamilyChannel(*p.FamilyID))
	}
	h.log.Info("SSE stream open", "user_id", userID, "client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.log.Debug("SSE stream closed", "user_id", userID, "client_id", client.ID.String())
}
