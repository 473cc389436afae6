package app

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	redisstore "github.com/MrSnakeDoc/enumlive/internal/store/redis"
)

const mirrorBuffer = 1024

// resultStore is the subset of the Redis store the mirror writes to.
type resultStore interface {
	SaveScanMeta(ctx context.Context, meta redisstore.ScanMeta) error
	SaveResult(ctx context.Context, scanID string, result domain.ProbeResult) error
	FinishScan(ctx context.Context, scanID string, live, down int, at time.Time) error
}

// mirror copies results to Redis off the completion path. Writes are best
// effort: failures are logged and never reach the CSV.
type mirror struct {
	store   resultStore
	scanID  string
	timeout time.Duration
	logger  logger.Logger

	queue   chan domain.ProbeResult
	wg      sync.WaitGroup
	dropped int
	failed  int
}

func newMirror(store resultStore, scanID string, timeout time.Duration, log logger.Logger) *mirror {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &mirror{
		store:   store,
		scanID:  scanID,
		timeout: timeout,
		logger:  log,
		queue:   make(chan domain.ProbeResult, mirrorBuffer),
	}
}

// start records the scan metadata and launches the writer goroutine.
func (m *mirror) start(ctx context.Context, meta redisstore.ScanMeta) {
	wctx, cancel := context.WithTimeout(ctx, m.timeout)
	if err := m.store.SaveScanMeta(wctx, meta); err != nil {
		m.logger.Warn("failed to mirror scan metadata", logger.Error(err))
	}
	cancel()

	m.wg.Add(1)
	go m.run()
}

func (m *mirror) run() {
	defer m.wg.Done()
	for r := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := m.store.SaveResult(ctx, m.scanID, r)
		cancel()
		if err != nil {
			m.failed++
			if m.failed == 1 {
				m.logger.Warn("failed to mirror result, continuing without it",
					logger.String("host", r.Hostname),
					logger.Error(err))
			}
		}
	}
}

// save enqueues r; when the writer falls behind the result is skipped.
func (m *mirror) save(r domain.ProbeResult) {
	select {
	case m.queue <- r:
	default:
		m.dropped++
	}
}

// finish drains the queue and records the final counts.
func (m *mirror) finish(live, down int) {
	close(m.queue)
	m.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.store.FinishScan(ctx, m.scanID, live, down, time.Now()); err != nil {
		m.logger.Warn("failed to mirror scan summary", logger.Error(err))
	}

	if m.dropped > 0 || m.failed > 0 {
		m.logger.Warn("redis mirror incomplete",
			logger.Int("dropped", m.dropped),
			logger.Int("failed", m.failed))
	}
}
