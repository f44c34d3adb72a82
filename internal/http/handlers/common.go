package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
)

const staffPinHeader = "X-Staff-Pin"

// bindJSON writes a 400 and returns false when the body is not valid JSON for req.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// success merges fields into a {"success": true} body.
func success(fields gin.H) gin.H {
	out := gin.H{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// claimedUserID is the optional userId the client sends alongside its token.
func claimedUserID(c *gin.Context) string {
	return strings.TrimSpace(c.Query("userId"))
}

func staffPin(c *gin.Context) string {
	if pin := strings.TrimSpace(c.GetHeader(staffPinHeader)); pin != "" {
		return pin
	}
	return strings.TrimSpace(c.Query("staffPin"))
}

func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}
