package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/http/response"
	"github.com/yungbote/stampcard-backend/internal/version"
)

type VersionHandler struct {
	info version.Info
}

func NewVersionHandler(info version.Info) *VersionHandler {
	return &VersionHandler{info: info}
}

// GET /api/version
func (h *VersionHandler) GetVersion(c *gin.Context) {
	response.RespondOK(c, success(gin.H{
		"version":   h.info.Version,
		"buildDate": h.info.BuildDate,
		"gitCommit": h.info.GitCommit,
		"env":       h.info.Env,
	}))
}
