package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type RewardHandler struct {
	rewardService services.RewardService
}

func NewRewardHandler(rewardService services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// GET /api/rewards
func (h *RewardHandler) List(c *gin.Context) {
	rewards, err := h.rewardService.ListActive(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_rewards_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"rewards": rewards}))
}

// GET /api/rewards/status
func (h *RewardHandler) Status(c *gin.Context) {
	res, err := h.rewardService.Status(c.Request.Context(), claimedUserID(c))
	if err != nil {
		response.RespondAPIError(c, err, "reward_status_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"stampCount": res.StampCount,
		"rewards":    res.Rewards,
	}))
}

// POST /api/rewards/exchange
// body: { "rewardId": "..." }
func (h *RewardHandler) Exchange(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		RewardID string `json:"rewardId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.rewardService.Exchange(c.Request.Context(), req.UserID, req.RewardID)
	if err != nil {
		response.RespondAPIError(c, err, "reward_exchange_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"message":       res.Message,
		"exchange":      res.Exchange,
		"newStampCount": res.NewStampCount,
	}))
}

// GET /api/rewards/exchanges
func (h *RewardHandler) History(c *gin.Context) {
	items, err := h.rewardService.History(c.Request.Context(), claimedUserID(c))
	if err != nil {
		response.RespondAPIError(c, err, "exchange_history_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"history": items}))
}

// PATCH /api/rewards/exchanges/:id
// body: { "staffPin": "...", "status": "completed"|"cancelled" }
func (h *RewardHandler) UpdateExchange(c *gin.Context) {
	var req services.UpdateExchangeInput
	if !bindJSON(c, &req) {
		return
	}
	if req.StaffPin == "" {
		req.StaffPin = staffPin(c)
	}
	ex, err := h.rewardService.UpdateExchangeStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondAPIError(c, err, "update_exchange_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"exchange": ex}))
}
