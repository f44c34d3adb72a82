package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/platform/envutil"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	stampsGranted     *CounterVec
	stampScanRejected *CounterVec
	rewardExchanges   *CounterVec
	familyChanges     *CounterVec
	surveyAnswers     *CounterVec
	analyticsEvents   *CounterVec
	realtimeDropped   *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init returns nil when METRICS_ENABLED is off; every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("stampcard_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"stampcard_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("stampcard_api_inflight_requests", "In-flight API requests."),

		stampsGranted:     NewCounterVec("stampcard_stamps_granted_total", "Stamp units credited or debited, by ledger method.", []string{"method"}),
		stampScanRejected: NewCounterVec("stampcard_stamp_scan_rejected_total", "QR scans rejected, by reason.", []string{"reason"}),
		rewardExchanges:   NewCounterVec("stampcard_reward_exchanges_total", "Reward exchange transitions, by status.", []string{"status"}),
		familyChanges:     NewCounterVec("stampcard_family_changes_total", "Family membership changes, by action.", []string{"action"}),
		surveyAnswers:     NewCounterVec("stampcard_survey_answers_total", "Survey answers, by survey.", []string{"survey_id"}),
		analyticsEvents:   NewCounterVec("stampcard_analytics_events_total", "Analytics events recorded, by name and outcome.", []string{"event", "outcome"}),
		realtimeDropped:   NewCounterVec("stampcard_realtime_publish_failed_total", "Realtime publishes that failed, by event.", []string{"event"}),

		pgStats:   NewGaugeVec("stampcard_postgres_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("stampcard_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("stampcard_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stampsGranted, m.stampScanRejected, m.rewardExchanges, m.familyChanges,
		m.surveyAnswers, m.analyticsEvents, m.realtimeDropped,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// AddStamps records a signed ledger amount; debits are counted under method with a negative value.
func (m *Metrics) AddStamps(method string, amount int) {
	if m == nil || amount == 0 {
		return
	}
	m.stampsGranted.Add(float64(amount), method)
}

func (m *Metrics) IncScanRejected(reason string) {
	if m == nil {
		return
	}
	m.stampScanRejected.Inc(reason)
}

func (m *Metrics) IncRewardExchange(status string) {
	if m == nil {
		return
	}
	m.rewardExchanges.Inc(status)
}

func (m *Metrics) IncFamilyChange(action string) {
	if m == nil {
		return
	}
	m.familyChanges.Inc(action)
}

func (m *Metrics) IncSurveyAnswer(surveyID string) {
	if m == nil {
		return
	}
	m.surveyAnswers.Inc(surveyID)
}

func (m *Metrics) IncAnalyticsEvent(event string, ok bool) {
	if m == nil {
		return
	}
	m.analyticsEvents.Inc(event, strconv.FormatBool(ok))
}

func (m *Metrics) IncRealtimePublishFailed(event string) {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc(event)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr, password string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
