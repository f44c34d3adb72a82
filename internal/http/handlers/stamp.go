package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type StampHandler struct {
	stampService services.StampService
}

func NewStampHandler(stampService services.StampService) *StampHandler {
	return &StampHandler{stampService: stampService}
}

// GET /api/stamps/history
func (h *StampHandler) History(c *gin.Context) {
	rows, err := h.stampService.History(c.Request.Context(), claimedUserID(c))
	if err != nil {
		response.RespondAPIError(c, err, "stamp_history_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"history": rows}))
}

// POST /api/stamps
// body: { "qrCodeId": "..." }
func (h *StampHandler) Register(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		QRCodeID string `json:"qrCodeId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.stampService.Register(c.Request.Context(), req.UserID, req.QRCodeID)
	if err != nil {
		response.RespondAPIError(c, err, "stamp_register_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{
		"stampCount":  res.StampCount,
		"stampNumber": res.StampNumber,
	}))
}

// POST /api/stamps/scan
// body: { "type": "premium"|"regular", "stamps": N, "qrCodeId"?: "..." }
func (h *StampHandler) Scan(c *gin.Context) {
	var req services.ScanInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.stampService.Scan(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "stamp_scan_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{
		"message":     res.Message,
		"stampCount":  res.StampCount,
		"stampsAdded": res.StampsAdded,
	}))
}

// POST /api/stamps/slot
// body: { "stamps": N }
func (h *StampHandler) Slot(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
		Stamps int    `json:"stamps"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.stampService.Slot(c.Request.Context(), req.UserID, req.Stamps)
	if err != nil {
		response.RespondAPIError(c, err, "slot_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{
		"stampCount":  res.StampCount,
		"stampsAdded": res.StampsAdded,
	}))
}

// POST /api/stamps/manual
// body: { "staffPin": "...", "newStampCount": N }
func (h *StampHandler) ManualAdjust(c *gin.Context) {
	var req services.ManualAdjustInput
	if !bindJSON(c, &req) {
		return
	}
	if req.StaffPin == "" {
		req.StaffPin = staffPin(c)
	}
	res, err := h.stampService.ManualAdjust(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "manual_adjust_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"message":       res.Message,
		"changed":       res.Changed,
		"stampCount":    res.StampCount,
		"previousCount": res.PreviousCount,
		"delta":         res.Delta,
	}))
}

// POST /api/stamps/scan/delete-today
func (h *StampHandler) DeleteTodayScans(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	// the body is optional
	_ = c.ShouldBindJSON(&req)
	res, err := h.stampService.DeleteTodayScans(c.Request.Context(), req.UserID)
	if err != nil {
		response.RespondAPIError(c, err, "delete_today_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"deletedCount":  res.DeletedCount,
		"removedStamps": res.Removed,
		"stampCount":    res.StampCount,
		"message":       res.Message,
	}))
}

// GET /api/stamps/progress?goal=N
func (h *StampHandler) Progress(c *gin.Context) {
	goal, err := strconv.Atoi(c.Query("goal"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal", err)
		return
	}
	p, err := h.stampService.Progress(c.Request.Context(), claimedUserID(c), goal)
	if err != nil {
		response.RespondAPIError(c, err, "stamp_progress_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"percentage": p.Percentage,
		"remaining":  p.Remaining,
		"isComplete": p.IsComplete,
	}))
}
