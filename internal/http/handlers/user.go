package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/profiles/:id
func (uh *UserHandler) GetProfile(c *gin.Context) {
	p, err := uh.userService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "get_profile_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"profile": p}))
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.Me(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_me_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"profile": me.Profile, "family": me.Family}))
}

// POST /api/users/setup-role
// body: { "role": "parent"|"child", "ticketNumber"?: "...", "realName"?: "..." }
func (uh *UserHandler) SetupRole(c *gin.Context) {
	var req services.SetupRoleInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := uh.userService.SetupRole(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "setup_role_failed")
		return
	}
	if res.Created {
		response.RespondCreated(c, success(gin.H{"family": res.Family}))
		return
	}
	response.RespondOK(c, success(gin.H{"needsJoin": res.NeedsJoin}))
}

// GET /api/users/:id/memo
func (uh *UserHandler) GetMemo(c *gin.Context) {
	memo, err := uh.userService.GetMemo(c.Request.Context(), c.Param("id"), staffPin(c))
	if err != nil {
		response.RespondAPIError(c, err, "get_memo_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"memo": memo}))
}

// PUT /api/users/:id/memo
// body: { "next_visit_date"?: "YYYY-MM-DD"|null, "next_memo"?: "..."|null }
func (uh *UserHandler) UpdateMemo(c *gin.Context) {
	var req services.MemoUpdate
	if !bindJSON(c, &req) {
		return
	}
	memo, err := uh.userService.UpdateMemo(c.Request.Context(), c.Param("id"), staffPin(c), req)
	if err != nil {
		response.RespondAPIError(c, err, "update_memo_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"memo": memo}))
}

// POST /api/users/:id/reservation-click
func (uh *UserHandler) ReservationClick(c *gin.Context) {
	clicks, err := uh.userService.RecordReservationClick(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "reservation_click_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"clicks": clicks}))
}

// PUT /api/users/me/view-mode
func (uh *UserHandler) SetViewMode(c *gin.Context) {
	var req struct {
		ViewMode string `json:"viewMode"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := uh.userService.SetViewMode(c.Request.Context(), req.ViewMode)
	if err != nil {
		response.RespondAPIError(c, err, "set_view_mode_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"viewMode": p.ViewMode, "profile": p}))
}

// PUT /api/users/me/line-friend
func (uh *UserHandler) SetLineFriend(c *gin.Context) {
	var req struct {
		IsFriend *bool `json:"isFriend"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.IsFriend == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingField("isFriend"))
		return
	}
	if err := uh.userService.SetLineFriend(c.Request.Context(), *req.IsFriend); err != nil {
		response.RespondAPIError(c, err, "set_line_friend_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"isFriend": *req.IsFriend}))
}

// PUT /api/users/me/child-settings
func (uh *UserHandler) UpdateChildSettings(c *gin.Context) {
	var req struct {
		RealName     string `json:"realName"`
		TicketNumber string `json:"ticketNumber"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := uh.userService.UpdateChildSettings(c.Request.Context(), req.RealName, req.TicketNumber)
	if err != nil {
		response.RespondAPIError(c, err, "update_child_settings_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"profile": p}))
}
