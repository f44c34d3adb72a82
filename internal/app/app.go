package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/stampcard-backend/internal/data/db"
	apphttp "github.com/yungbote/stampcard-backend/internal/http"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/realtime"
	"github.com/yungbote/stampcard-backend/internal/version"
)

const (
	serviceName     = "stampcard-api"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Infra    Infra

	pg           *dbpkg.PostgresService
	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects to Postgres and migrates the schema when DB_AUTO_MIGRATE is on.
func OpenDB(log *logger.Logger, autoMigrate bool) (*dbpkg.PostgresService, error) {
	pg, err := dbpkg.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if autoMigrate {
		if err := dbpkg.MigrateAll(pg.DB()); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return pg, nil
}

func New(ctx context.Context) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	info := version.Resolve(cfg.Env, cfg.AppVersion, cfg.BuildDate, cfg.GitCommit)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName:    serviceName,
		Environment:    info.Env,
		Version:        info.Version,
		ClinicTimezone: cfg.ClinicTimezone,
	})

	pg, err := OpenDB(log, cfg.AutoMigrate)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := pg.DB()

	infra, err := wireInfra(log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, infra)
	if err != nil {
		infra.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	if err := seedCatalog(ctx, log, serviceset.Catalog, cfg.CatalogPath); err != nil {
		infra.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, cfg, serviceset, infra)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, infra)

	log.Info("Application wired", "version", info.Version, "env", info.Env, "git_commit", info.GitCommit)
	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Infra:        infra,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// NewCommand wires the database and services for one-shot maintenance commands.
// It skips the HTTP server, the realtime bus and metrics; realtime events stay in-process.
func NewCommand(ctx context.Context) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}
	cfg := LoadConfig(log)
	pg, err := OpenDB(log, cfg.AutoMigrate)
	if err != nil {
		log.Sync()
		return nil, err
	}
	bucket, err := resolveBucketService(log)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	infra := Infra{Hub: realtime.NewSSEHub(log), Bucket: bucket}
	reposet := wireRepos(pg.DB(), log)
	serviceset, err := wireServices(pg.DB(), log, cfg, reposet, infra)
	if err != nil {
		infra.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	return &App{
		Log:      log,
		DB:       pg.DB(),
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Infra:    infra,
		pg:       pg,
	}, nil
}

// Run serves HTTP until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Infra.Bus != nil {
		hub := a.Infra.Hub
		if err := a.Infra.Bus.StartForwarder(gctx, func(m realtime.SSEMessage) { hub.Broadcast(m) }); err != nil {
			return fmt.Errorf("start realtime forwarder: %w", err)
		}
	}

	if m := a.Infra.Metrics; m != nil {
		m.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
		m.StartPostgresCollector(gctx, a.Log, a.DB)
		m.StartRedisCollector(gctx, a.Log, a.Cfg.Redis.Addr, a.Cfg.Redis.Password)
	}

	addr := ":" + a.Cfg.Port
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", addr)
		return a.Server.Run(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("HTTP server shutdown incomplete", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Infra.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
