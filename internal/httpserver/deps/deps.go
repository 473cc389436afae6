package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/enumlive/internal/dispatcher"
	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	redisstore "github.com/MrSnakeDoc/enumlive/internal/store/redis"
	"github.com/MrSnakeDoc/enumlive/internal/utils"
)

// ProgressSource reports live counters of the running scan.
type ProgressSource interface {
	Stats() dispatcher.Stats
}

// ResultSource exposes the results gathered so far.
type ResultSource interface {
	Snapshot() []domain.ProbeResult
	Counts() (live, down int)
}

// HistorySource reads mirrored scans and host results back from Redis.
type HistorySource interface {
	GetScanMeta(ctx context.Context, scanID string) (*redisstore.ScanMeta, error)
	GetScanResults(ctx context.Context, scanID string) ([]domain.ProbeResult, error)
	GetResult(ctx context.Context, hostname string) (*domain.ProbeResult, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	ScanID    string
	InputFile string
	Workers   int
	Ready     func() bool // true once probing has started
	Done      func() bool // true once every host has completed

	Progress ProgressSource
	Results  ResultSource
	Gatherer prometheus.Gatherer // backs /metrics; nil disables the route

	RedisClient *redis.Client      // nil when mirroring is disabled
	History     HistorySource      // nil when mirroring is disabled; disables /api/scans and /api/hosts
	Allowed     *utils.IPAllowList // clients allowed on /api and /metrics; nil or empty allows all
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
