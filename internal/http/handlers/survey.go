package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type SurveyHandler struct {
	surveyService services.SurveyService
}

func NewSurveyHandler(surveyService services.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// GET|POST /api/survey/check
func (h *SurveyHandler) Check(c *gin.Context) {
	userID := claimedUserID(c)
	if c.Request.Method != http.MethodGet {
		var req struct {
			UserID string `json:"userId"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.UserID != "" {
			userID = req.UserID
		}
	}
	res, err := h.surveyService.Check(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err, "survey_check_failed")
		return
	}
	if !res.ShouldShow {
		response.RespondOK(c, success(gin.H{"shouldShow": false}))
		return
	}
	// title/description are kept alongside the surveyTitle keys older clients read.
	response.RespondOK(c, success(gin.H{
		"shouldShow":        true,
		"surveyId":          res.SurveyID,
		"surveyTitle":       res.SurveyTitle,
		"surveyDescription": res.SurveyDescription,
		"title":             res.SurveyTitle,
		"description":       res.SurveyDescription,
		"shownCount":        res.ShownCount,
		"postponedCount":    res.PostponedCount,
	}))
}

// POST /api/survey/postpone
// body: { "surveyId": "..." }
func (h *SurveyHandler) Postpone(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		SurveyID string `json:"surveyId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.surveyService.Postpone(c.Request.Context(), req.UserID, req.SurveyID); err != nil {
		response.RespondAPIError(c, err, "survey_postpone_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"surveyId": req.SurveyID}))
}

// POST /api/survey/submit
func (h *SurveyHandler) Submit(c *gin.Context) {
	var req services.SubmitSurveyInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.surveyService.Submit(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "survey_submit_failed")
		return
	}
	response.RespondCreated(c, success(gin.H{
		"message":      res.Message,
		"rewardStamps": res.RewardStamps,
		"stampCount":   res.StampCount,
	}))
}

// POST /api/survey/targets
// body: { "staffPin": "...", "surveyId": "...", "userIds": [...] }
func (h *SurveyHandler) AssignTargets(c *gin.Context) {
	var req services.AssignTargetsInput
	if !bindJSON(c, &req) {
		return
	}
	if req.StaffPin == "" {
		req.StaffPin = staffPin(c)
	}
	n, err := h.surveyService.AssignTargets(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "assign_targets_failed")
		return
	}
	response.RespondOK(c, success(gin.H{"created": n}))
}
