package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/gcp"
	"github.com/yungbote/stampcard-backend/internal/platform/line"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/realtime"
	"github.com/yungbote/stampcard-backend/internal/realtime/bus"
	"github.com/yungbote/stampcard-backend/internal/services"
)

type Services struct {
	Calendar  *services.ClinicCalendar
	Notifier  services.Notifier
	Analytics services.AnalyticsService
	Avatars   services.AvatarService
	Auth      services.AuthService
	User      services.UserService
	Stamp     services.StampService
	Reward    services.RewardService
	Family    services.FamilyService
	Survey    services.SurveyService
	Catalog   services.CatalogService
}

// Infra holds the long-lived clients the services depend on.
type Infra struct {
	Hub     *realtime.SSEHub
	Bus     bus.Bus
	Bucket  gcp.BucketService
	Metrics *observability.Metrics
}

func wireInfra(log *logger.Logger, cfg Config) (Infra, error) {
	log.Info("Wiring infrastructure...")
	infra := Infra{
		Hub:     realtime.NewSSEHub(log),
		Metrics: observability.Init(log),
	}
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Infra{}, fmt.Errorf("init redis realtime bus: %w", err)
		}
		infra.Bus = b
	}
	bucket, err := resolveBucketService(log)
	if err != nil {
		infra.Close()
		return Infra{}, err
	}
	infra.Bucket = bucket
	return infra, nil
}

func (i *Infra) Close() {
	if i == nil {
		return
	}
	if i.Bus != nil {
		_ = i.Bus.Close()
	}
	if i.Bucket != nil {
		_ = i.Bucket.Close()
	}
}

// emitter publishes through redis when configured so every instance's forwarder sees the event.
func (i *Infra) emitter(log *logger.Logger) services.SSEEmitter {
	if i.Bus != nil {
		return &services.BusEmitter{Bus: i.Bus, Log: log, Metrics: i.Metrics}
	}
	return &services.HubEmitter{Hub: i.Hub}
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, infra Infra) (Services, error) {
	log.Info("Wiring services...")

	calendar, err := services.NewClinicCalendar(cfg.ClinicTimezone)
	if err != nil {
		return Services{}, fmt.Errorf("init clinic calendar: %w", err)
	}
	staff, err := services.NewStaffGate(cfg.StaffPin)
	if err != nil {
		return Services{}, fmt.Errorf("init staff gate: %w", err)
	}
	avatars, err := services.NewAvatarService(log, infra.Bucket, cfg.AvatarFont)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	var verifier line.Verifier
	if v, err := line.NewVerifier(cfg.LineChannelID, cfg.LineChannelSecret); err != nil {
		log.Warn("LINE login disabled", "error", err)
	} else {
		verifier = v
	}

	notify := services.NewNotifier(infra.emitter(log))
	analytics := services.NewAnalyticsService(log, r.EventLog, infra.Metrics)
	user := services.NewUserService(db, log, r.Profile, r.Family, staff, analytics, calendar)

	return Services{
		Calendar:  calendar,
		Notifier:  notify,
		Analytics: analytics,
		Avatars:   avatars,
		Auth:      services.NewAuthService(db, log, user, verifier, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:      user,
		Stamp:     services.NewStampService(db, log, r.Profile, r.StampHistory, r.RewardExchange, staff, analytics, notify, calendar, infra.Metrics),
		Reward:    services.NewRewardService(db, log, r.Profile, r.Reward, r.RewardExchange, r.StampHistory, staff, analytics, notify, calendar, infra.Metrics),
		Family:    services.NewFamilyService(db, log, r.Profile, r.Family, r.StampHistory, r.RewardExchange, avatars, analytics, notify, infra.Metrics),
		Survey:    services.NewSurveyService(db, log, r.Profile, r.StampHistory, r.Survey, r.SurveyTarget, r.SurveyAnswer, staff, notify, calendar, infra.Metrics, cfg.SurveySnooze),
		Catalog:   services.NewCatalogService(db, log, r.Reward, r.Survey, infra.Bucket),
	}, nil
}

// seedCatalog upserts CATALOG_PATH when it is set.
func seedCatalog(ctx context.Context, log *logger.Logger, catalog services.CatalogService, path string) error {
	if path == "" {
		return nil
	}
	c, err := services.LoadCatalog(path)
	if err != nil {
		return err
	}
	res, err := catalog.Seed(ctx, c)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("Catalog seeded", "path", path, "rewards", res.Rewards, "surveys", res.Surveys)
	return nil
}
