// Package dispatcher fans hostnames out to a bounded set of probe workers
// and streams results back in completion order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
)

// ErrInterrupted is returned by Run when the context is cancelled before
// every host has completed.
var ErrInterrupted = errors.New("dispatcher: scan interrupted")

// ErrProbePanic is returned by Run when a probe panicked. The scan stops
// and no result is recorded for that host.
var ErrProbePanic = errors.New("dispatcher: probe panicked")

// ProbeFunc checks a single host. Network failures are reported as a Down
// result; a panic aborts the whole scan.
type ProbeFunc func(ctx context.Context, host string) domain.ProbeResult

// Completion is delivered once per finished probe.
type Completion struct {
	Index  int // 1-based, in completion order
	Total  int
	Result domain.ProbeResult
}

// Stats is a point-in-time view of a running pool.
type Stats struct {
	Total     int64
	Submitted int64
	Completed int64
	InFlight  int64
}

// outcome carries a probe result, or the panic that replaced it.
type outcome struct {
	result domain.ProbeResult
	err    error
}

// Pool runs at most Workers probes at any instant.
type Pool struct {
	workers int
	logger  logger.Logger

	total     atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	inFlight  atomic.Int64
}

// New creates a pool with the given worker limit (clamped to at least 1).
func New(workers int, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		logger:  log,
	}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns the current counters. Safe to call while Run is active.
func (p *Pool) Stats() Stats {
	return Stats{
		Total:     p.total.Load(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		InFlight:  p.inFlight.Load(),
	}
}

// Run probes every host and calls onComplete for each result as it lands.
//
// onComplete runs on the caller's goroutine, one completion at a time, so
// it needs no locking of its own. Once ctx is cancelled Run stops feeding
// and waiting, abandons in-flight probes and returns ErrInterrupted.
// Results that arrive after cancellation are discarded, even when the
// probe finished in time to send them. A panicking probe ends the scan
// with an error wrapping ErrProbePanic.
func (p *Pool) Run(ctx context.Context, hosts []string, probe ProbeFunc, onComplete func(Completion)) error {
	total := len(hosts)
	p.total.Store(int64(total))
	p.submitted.Store(0)
	p.completed.Store(0)
	p.inFlight.Store(0)

	if total == 0 {
		return nil
	}

	workers := min(p.workers, total)

	// stop is closed when Run returns, releasing workers and the feeder
	// whatever the reason for returning.
	stop := make(chan struct{})
	defer close(stop)

	jobs := make(chan string)
	results := make(chan outcome)

	go p.feed(jobs, hosts, stop)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			p.work(ctx, jobs, results, probe, stop)
		}()
	}

	p.logger.Debug("dispatcher started",
		logger.Int("hosts", total),
		logger.Int("workers", workers))

	for index := 1; index <= total; index++ {
		if ctx.Err() != nil {
			return p.interrupted(ctx, index-1, total)
		}

		select {
		case <-ctx.Done():
			return p.interrupted(ctx, index-1, total)
		case o := <-results:
			// A probe cut short by the cancellation reports Down; that is
			// not an observation of the host.
			if ctx.Err() != nil {
				return p.interrupted(ctx, index-1, total)
			}
			if o.err != nil {
				return o.err
			}
			p.completed.Add(1)
			onComplete(Completion{Index: index, Total: total, Result: o.result})
		}
	}

	wg.Wait()
	return nil
}

func (p *Pool) interrupted(ctx context.Context, completed, total int) error {
	p.logger.Warn("dispatcher interrupted",
		logger.Int("completed", completed),
		logger.Int("total", total),
		logger.Int64("abandoned", p.inFlight.Load()))
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}

// feed hands hosts to workers until all are submitted or stop is closed.
func (p *Pool) feed(jobs chan<- string, hosts []string, stop <-chan struct{}) {
	defer close(jobs)
	for _, h := range hosts {
		select {
		case jobs <- h:
			p.submitted.Add(1)
		case <-stop:
			return
		}
	}
}

// work runs probes until jobs drains or stop is closed. A result that
// cannot be delivered because Run has returned is dropped.
func (p *Pool) work(ctx context.Context, jobs <-chan string, results chan<- outcome, probe ProbeFunc, stop <-chan struct{}) {
	for host := range jobs {
		p.inFlight.Add(1)
		o := p.call(ctx, probe, host)
		p.inFlight.Add(-1)

		select {
		case results <- o:
		case <-stop:
			return
		}
		if o.err != nil {
			return
		}
	}
}

// call runs probe, converting a panic into an ErrProbePanic outcome.
func (p *Pool) call(ctx context.Context, probe ProbeFunc, host string) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("probe panicked",
				logger.String("host", host),
				logger.String("panic", fmt.Sprint(r)),
				logger.String("stack", string(debug.Stack())))
			o = outcome{err: fmt.Errorf("%w: %s: %v", ErrProbePanic, host, r)}
		}
	}()
	return outcome{result: probe(ctx, host)}
}
