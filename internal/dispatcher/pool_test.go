package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
)

func hostList(n int, prefix string) []string {
	hosts := make([]string, n)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("%s-%d.example", prefix, i)
	}
	return hosts
}

func TestRunDeliversEveryHostOnce(t *testing.T) {
	hosts := hostList(25, "h")
	p := New(4, logger.Nop())

	var got []Completion
	err := p.Run(context.Background(), hosts, func(_ context.Context, h string) domain.ProbeResult {
		return domain.Live(h, "t", 200, "http")
	}, func(c Completion) {
		got = append(got, c)
	})

	require.NoError(t, err)
	require.Len(t, got, len(hosts))

	seen := make(map[string]int, len(hosts))
	for i, c := range got {
		assert.Equal(t, i+1, c.Index, "indexes must be sequential in completion order")
		assert.Equal(t, len(hosts), c.Total)
		seen[c.Result.Hostname]++
	}
	for _, h := range hosts {
		assert.Equal(t, 1, seen[h], "host %s", h)
	}

	stats := p.Stats()
	assert.Equal(t, int64(len(hosts)), stats.Completed)
	assert.Equal(t, int64(len(hosts)), stats.Submitted)
	assert.Equal(t, int64(0), stats.InFlight)
}

func TestRunNeverExceedsWorkerLimit(t *testing.T) {
	const workers = 3
	hosts := hostList(30, "c")
	p := New(workers, logger.Nop())

	var active, peak atomic.Int64
	probe := func(_ context.Context, h string) domain.ProbeResult {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return domain.Down(h)
	}

	count := 0
	err := p.Run(context.Background(), hosts, probe, func(Completion) { count++ })

	require.NoError(t, err)
	assert.Equal(t, len(hosts), count)
	assert.LessOrEqual(t, peak.Load(), int64(workers))
	assert.Positive(t, peak.Load())
}

func TestRunEmitsInCompletionOrder(t *testing.T) {
	hosts := []string{"slow.example", "fast-1.example", "fast-2.example"}
	p := New(3, logger.Nop())

	probe := func(_ context.Context, h string) domain.ProbeResult {
		if strings.HasPrefix(h, "slow") {
			time.Sleep(150 * time.Millisecond)
		}
		return domain.Live(h, "", 200, "http")
	}

	var order []string
	err := p.Run(context.Background(), hosts, probe, func(c Completion) {
		order = append(order, c.Result.Hostname)
	})

	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "slow.example", order[2], "slowest host must complete last")
}

func TestRunInterruptAbandonsInFlight(t *testing.T) {
	hosts := append(hostList(3, "fast"), hostList(7, "slow")...)
	p := New(2, logger.Nop())

	release := make(chan struct{})
	defer close(release)

	probe := func(_ context.Context, h string) domain.ProbeResult {
		if strings.HasPrefix(h, "slow") {
			<-release
		}
		return domain.Live(h, "", 200, "http")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Completion
	err := p.Run(ctx, hosts, probe, func(c Completion) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
		if c.Index == 3 {
			cancel()
		}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInterrupted))
	assert.True(t, errors.Is(err, context.Canceled))

	mu.Lock()
	delivered := len(got)
	mu.Unlock()
	assert.Equal(t, 3, delivered)
	for _, c := range got {
		assert.True(t, strings.HasPrefix(c.Result.Hostname, "fast"))
	}

	// Nothing may be delivered once Run has returned.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Len(t, got, delivered)
	mu.Unlock()
}

func TestRunInterruptDiscardsCancelledProbes(t *testing.T) {
	// Slow probes give up as soon as ctx is cancelled and report Down. None
	// of those reports may be recorded as a completion.
	hosts := append([]string{"fast.example"}, hostList(9, "slow")...)

	for trial := 0; trial < 50; trial++ {
		p := New(len(hosts), logger.Nop())
		ctx, cancel := context.WithCancel(context.Background())

		probe := func(ctx context.Context, h string) domain.ProbeResult {
			if h == "fast.example" {
				return domain.Live(h, "", 200, "http")
			}
			<-ctx.Done()
			return domain.Down(h)
		}

		var got []Completion
		err := p.Run(ctx, hosts, probe, func(c Completion) {
			got = append(got, c)
			cancel()
			// Let the cancelled probes queue their Down results.
			time.Sleep(time.Millisecond)
		})
		cancel()

		require.ErrorIs(t, err, ErrInterrupted, "trial %d", trial)
		require.Len(t, got, 1, "trial %d: %+v", trial, got)
		assert.Equal(t, "fast.example", got[0].Result.Hostname)
		assert.Equal(t, int64(1), p.Stats().Completed)
	}
}

func TestRunProbePanicStopsScan(t *testing.T) {
	p := New(1, logger.Nop())
	hosts := []string{"ok.example", "boom.example", "later.example"}

	var got []string
	err := p.Run(context.Background(), hosts, func(_ context.Context, h string) domain.ProbeResult {
		if h == "boom.example" {
			panic("nil map write")
		}
		return domain.Live(h, "", 200, "http")
	}, func(c Completion) {
		got = append(got, c.Result.Hostname)
	})

	require.ErrorIs(t, err, ErrProbePanic)
	assert.False(t, errors.Is(err, ErrInterrupted))
	assert.Contains(t, err.Error(), "boom.example")
	assert.Contains(t, err.Error(), "nil map write")
	assert.Equal(t, []string{"ok.example"}, got)
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(2, logger.Nop())
	block := make(chan struct{})
	defer close(block)

	calls := 0
	err := p.Run(ctx, hostList(5, "x"), func(_ context.Context, h string) domain.ProbeResult {
		<-block
		return domain.Down(h)
	}, func(Completion) { calls++ })

	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 0, calls)
}

func TestRunEmptyHostList(t *testing.T) {
	p := New(4, logger.Nop())

	called := false
	err := p.Run(context.Background(), nil, func(_ context.Context, h string) domain.ProbeResult {
		called = true
		return domain.Down(h)
	}, func(Completion) { called = true })

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestNewClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, New(0, logger.Nop()).Workers())
	assert.Equal(t, 1, New(-5, logger.Nop()).Workers())
	assert.Equal(t, 7, New(7, logger.Nop()).Workers())
}

func TestRunFewerHostsThanWorkers(t *testing.T) {
	p := New(50, logger.Nop())

	var calls atomic.Int64
	err := p.Run(context.Background(), hostList(2, "y"), func(_ context.Context, h string) domain.ProbeResult {
		calls.Add(1)
		return domain.Down(h)
	}, func(Completion) {})

	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}
