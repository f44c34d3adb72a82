package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type FamilyHandler struct {
	familyService services.FamilyService
}

func NewFamilyHandler(familyService services.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type familyNameRequest struct {
	FamilyName string `json:"familyName"`
}

// POST /api/families/create
func (h *FamilyHandler) Create(c *gin.Context) {
	var req familyNameRequest
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.familyService.Create(c.Request.Context(), req.FamilyName)
	if err != nil {
		response.RespondAPIError(c, err, "create_family_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{"family": f}))
}

// POST /api/families/join
// body: { "inviteCode": "<family id>" }
func (h *FamilyHandler) Join(c *gin.Context) {
	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.familyService.Join(c.Request.Context(), req.InviteCode)
	if err != nil {
		response.RespondAPIError(c, err, "join_family_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"family": f}))
}

// GET /api/families/me
func (h *FamilyHandler) Mine(c *gin.Context) {
	detail, err := h.familyService.Mine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_family_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"family": detail}))
}

// PATCH /api/families/update
func (h *FamilyHandler) Rename(c *gin.Context) {
	var req familyNameRequest
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.familyService.Rename(c.Request.Context(), req.FamilyName)
	if err != nil {
		response.RespondAPIError(c, err, "update_family_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"family": f}))
}

// DELETE /api/families/members
// body: { "memberId": "..." }
func (h *FamilyHandler) Unlink(c *gin.Context) {
	var req struct {
		MemberID string `json:"memberId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.familyService.Unlink(c.Request.Context(), req.MemberID); err != nil {
		response.RespondAPIError(c, err, "remove_member_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"memberId": req.MemberID}))
}

// POST /api/families/members/add
func (h *FamilyHandler) AddMember(c *gin.Context) {
	var req services.AddMemberInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.familyService.AddProxyMember(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "add_member_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{"member": member}))
}

// PATCH /api/families/members/:id
func (h *FamilyHandler) EditMember(c *gin.Context) {
	var req services.EditMemberInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.familyService.EditMember(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondAPIError(c, err, "edit_member_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"member": member}))
}

// DELETE /api/families/members/:id
func (h *FamilyHandler) DeleteMember(c *gin.Context) {
	res, err := h.familyService.RemoveMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "delete_member_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"memberId":    res.MemberID,
		"hardDeleted": res.HardDeleted,
	}))
}
