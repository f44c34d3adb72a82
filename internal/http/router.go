package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/stampcard-backend/internal/http/handlers"
	httpMW "github.com/yungbote/stampcard-backend/internal/http/middleware"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	ServiceName    string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	VersionHandler   *httpH.VersionHandler
	AuthHandler      *httpH.AuthHandler
	UserHandler      *httpH.UserHandler
	StampHandler     *httpH.StampHandler
	RewardHandler    *httpH.RewardHandler
	FamilyHandler    *httpH.FamilyHandler
	SurveyHandler    *httpH.SurveyHandler
	AnalyticsHandler *httpH.AnalyticsHandler
	RealtimeHandler  *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}
		if cfg.VersionHandler != nil {
			api.GET("/version", cfg.VersionHandler.GetVersion)
		}
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/line", cfg.AuthHandler.LoginWithLINE)
		}
		// Reward catalog (public)
		if cfg.RewardHandler != nil {
			api.GET("/rewards", cfg.RewardHandler.List)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/events", cfg.RealtimeHandler.Stream)
		}

		// Profiles / users
		if cfg.UserHandler != nil {
			protected.GET("/profiles/:id", cfg.UserHandler.GetProfile)
			protected.GET("/users/me", cfg.UserHandler.GetMe)
			protected.POST("/users/setup-role", cfg.UserHandler.SetupRole)
			protected.PUT("/users/me/view-mode", cfg.UserHandler.SetViewMode)
			protected.PUT("/users/me/line-friend", cfg.UserHandler.SetLineFriend)
			protected.PUT("/users/me/child-settings", cfg.UserHandler.UpdateChildSettings)
			protected.GET("/users/:id/memo", cfg.UserHandler.GetMemo)
			protected.PUT("/users/:id/memo", cfg.UserHandler.UpdateMemo)
			protected.POST("/users/:id/reservation-click", cfg.UserHandler.ReservationClick)
		}

		// Stamps
		if cfg.StampHandler != nil {
			protected.GET("/stamps/history", cfg.StampHandler.History)
			protected.GET("/stamps/progress", cfg.StampHandler.Progress)
			protected.POST("/stamps", cfg.StampHandler.Register)
			protected.POST("/stamps/scan", cfg.StampHandler.Scan)
			protected.POST("/stamps/scan/delete-today", cfg.StampHandler.DeleteTodayScans)
			protected.POST("/stamps/slot", cfg.StampHandler.Slot)
			protected.POST("/stamps/manual", cfg.StampHandler.ManualAdjust)
		}

		// Rewards
		if cfg.RewardHandler != nil {
			protected.GET("/rewards/status", cfg.RewardHandler.Status)
			protected.POST("/rewards/exchange", cfg.RewardHandler.Exchange)
			protected.GET("/rewards/exchanges", cfg.RewardHandler.History)
			protected.PATCH("/rewards/exchanges/:id", cfg.RewardHandler.UpdateExchange)
		}

		// Families
		if cfg.FamilyHandler != nil {
			protected.POST("/families/create", cfg.FamilyHandler.Create)
			protected.POST("/families/join", cfg.FamilyHandler.Join)
			protected.GET("/families/me", cfg.FamilyHandler.Mine)
			protected.PATCH("/families/update", cfg.FamilyHandler.Rename)
			protected.DELETE("/families/members", cfg.FamilyHandler.Unlink)
			protected.POST("/families/members/add", cfg.FamilyHandler.AddMember)
			protected.PATCH("/families/members/:id", cfg.FamilyHandler.EditMember)
			protected.DELETE("/families/members/:id", cfg.FamilyHandler.DeleteMember)
		}

		// Surveys
		if cfg.SurveyHandler != nil {
			protected.GET("/survey/check", cfg.SurveyHandler.Check)
			protected.POST("/survey/check", cfg.SurveyHandler.Check)
			protected.POST("/survey/postpone", cfg.SurveyHandler.Postpone)
			protected.POST("/survey/submit", cfg.SurveyHandler.Submit)
			protected.POST("/survey/targets", cfg.SurveyHandler.AssignTargets)
		}

		// Analytics
		if cfg.AnalyticsHandler != nil {
			protected.POST("/analytics/events", cfg.AnalyticsHandler.Record)
		}
	}

	return r
}
