package app

import (
	"time"

	"github.com/yungbote/stampcard-backend/internal/http/middleware"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/realtime/bus"
	"github.com/yungbote/stampcard-backend/internal/utils"
)

type Config struct {
	Port        string
	Env         string
	AppVersion  string
	BuildDate   string
	GitCommit   string
	AutoMigrate bool

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	LineChannelID     string
	LineChannelSecret string

	StaffPin       string
	ClinicTimezone string
	SurveySnooze   time.Duration

	CORSOrigins []string
	Redis       bus.RedisConfig
	MetricsAddr string
	AvatarFont  string
	CatalogPath string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		Env:         utils.GetEnv("APP_ENV", "development", log),
		AppVersion:  utils.GetEnv("APP_VERSION", "", log),
		BuildDate:   utils.GetEnv("BUILD_DATE", "", log),
		GitCommit:   utils.GetEnv("GIT_COMMIT", "", log),
		AutoMigrate: utils.GetEnvAsBool("DB_AUTO_MIGRATE", true, log),

		JWTSecretKey:   utils.GetEnv("JWT_SECRET", "defaultsecret", log),
		AccessTokenTTL: time.Duration(utils.GetEnvAsInt("JWT_TTL_SECONDS", 7*24*3600, log)) * time.Second,

		LineChannelID:     utils.GetEnv("LINE_CHANNEL_ID", "", log),
		LineChannelSecret: utils.GetEnv("LINE_CHANNEL_SECRET", "", log),

		StaffPin:       utils.GetEnv("STAFF_PIN", "1234", log),
		ClinicTimezone: utils.GetEnv("CLINIC_TIMEZONE", "UTC", log),
		SurveySnooze:   time.Duration(utils.GetEnvAsInt("SURVEY_SNOOZE_HOURS", 24, log)) * time.Hour,

		CORSOrigins: middleware.ParseOrigins(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),
		Redis:       bus.RedisConfigFromEnv(),
		MetricsAddr: utils.GetEnv("METRICS_ADDR", ":9090", log),
		AvatarFont:  utils.GetEnv("AVATAR_FONT", "", log),
		CatalogPath: utils.GetEnv("CATALOG_PATH", "", log),
	}
}
