package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/auth/line
// body: { "idToken": "..." }
func (ah *AuthHandler) LoginWithLINE(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := ah.authService.LoginWithLINE(c.Request.Context(), req.IDToken)
	if err != nil {
		response.RespondAPIError(c, err, "login_failed")
		return
	}
	response.RespondOK(c, success(gin.H{
		"token":      res.Token,
		"expires_in": int(ah.authService.GetAccessTTL().Seconds()),
		"expiresAt":  res.ExpiresAt,
		"profile":    res.Profile,
	}))
}
