package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/stampcard-backend/internal/http"
	httpH "github.com/yungbote/stampcard-backend/internal/http/handlers"
	httpMW "github.com/yungbote/stampcard-backend/internal/http/middleware"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/version"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Version   *httpH.VersionHandler
	Auth      *httpH.AuthHandler
	User      *httpH.UserHandler
	Stamp     *httpH.StampHandler
	Reward    *httpH.RewardHandler
	Family    *httpH.FamilyHandler
	Survey    *httpH.SurveyHandler
	Analytics *httpH.AnalyticsHandler
	Realtime  *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, s Services, infra Infra) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Version:   httpH.NewVersionHandler(version.Resolve(cfg.Env, cfg.AppVersion, cfg.BuildDate, cfg.GitCommit)),
		Auth:      httpH.NewAuthHandler(s.Auth),
		User:      httpH.NewUserHandler(s.User),
		Stamp:     httpH.NewStampHandler(s.Stamp),
		Reward:    httpH.NewRewardHandler(s.Reward),
		Family:    httpH.NewFamilyHandler(s.Family),
		Survey:    httpH.NewSurveyHandler(s.Survey),
		Analytics: httpH.NewAnalyticsHandler(s.Analytics),
		Realtime:  httpH.NewRealtimeHandler(log, infra.Hub, s.User),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, infra Infra) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		Metrics:          infra.Metrics,
		CORSOrigins:      cfg.CORSOrigins,
		ServiceName:      serviceName,
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		VersionHandler:   handlers.Version,
		AuthHandler:      handlers.Auth,
		UserHandler:      handlers.User,
		StampHandler:     handlers.Stamp,
		RewardHandler:    handlers.Reward,
		FamilyHandler:    handlers.Family,
		SurveyHandler:    handlers.Survey,
		AnalyticsHandler: handlers.Analytics,
		RealtimeHandler:  handlers.Realtime,
	})
}
