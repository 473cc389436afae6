package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/enumlive/internal/config"
	"github.com/MrSnakeDoc/enumlive/internal/dispatcher"
	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/enumlive/internal/loader"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	"github.com/MrSnakeDoc/enumlive/internal/metrics"
	"github.com/MrSnakeDoc/enumlive/internal/probe"
	"github.com/MrSnakeDoc/enumlive/internal/redis"
	"github.com/MrSnakeDoc/enumlive/internal/sink"
	redisstore "github.com/MrSnakeDoc/enumlive/internal/store/redis"
	"github.com/MrSnakeDoc/enumlive/internal/ui"
	"github.com/MrSnakeDoc/enumlive/internal/utils"
	"github.com/MrSnakeDoc/enumlive/internal/version"
)

// ErrSaveFailed wraps a failure to write the results file.
var ErrSaveFailed = errors.New("failed to save results")

type App struct {
	cfg    *config.Config
	logger logger.Logger
	out    io.Writer

	scanID string
	probe  dispatcher.ProbeFunc
	client probe.Doer

	registry *prometheus.Registry
	listener net.Listener

	started  atomic.Bool
	finished atomic.Bool
}

// Option customizes an App.
type Option func(*App)

// WithProbeFunc replaces the HTTP prober.
func WithProbeFunc(fn dispatcher.ProbeFunc) Option {
	return func(a *App) { a.probe = fn }
}

// WithHTTPClient sets the client used by the default prober.
func WithHTTPClient(c probe.Doer) Option {
	return func(a *App) { a.client = c }
}

// WithListener serves the status server on ln instead of binding cfg.ListenAddr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// New wires an App. Progress and results go to out; logs go to log.
func New(cfg *config.Config, log logger.Logger, out io.Writer, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		logger:   log,
		out:      out,
		scanID:   uuid.NewString(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.probe == nil {
		p := probe.New(a.client, probe.Options{
			Timeout:            cfg.HTTPTimeout,
			UserAgent:          cfg.UserAgent,
			InsecureSkipVerify: cfg.Insecure,
		}, log)
		a.probe = p.Probe
	}
	return a
}

// ScanID identifies this run in logs, Redis keys and the status API.
func (a *App) ScanID() string { return a.scanID }

// Registry exposes the metrics registry served on /metrics.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Run performs one scan. On interruption the results gathered so far are
// written and an error wrapping dispatcher.ErrInterrupted is returned.
// Any other failure during the scan, a panicking probe included, leaves
// the output file untouched. Failures are returned unreported; see Report.
func (a *App) Run(ctx context.Context) error {
	log := a.logger.With(logger.String("scan_id", a.scanID))
	log.Info("starting enumlive",
		logger.String("version", version.String()),
		logger.Int("max_threads", a.cfg.MaxThreads),
		logger.Duration("http_timeout", a.cfg.HTTPTimeout))

	ui.Banner(a.out, version.Version)

	raw, err := loader.ReadURLs(a.cfg.URLFile)
	if err != nil {
		return err
	}
	hosts := domain.ExtractHostnames(raw)
	if dropped := len(raw) - len(hosts); dropped > 0 {
		log.Debug("dropped lines without a hostname", logger.Int("count", dropped))
	}

	m, err := a.initMetrics()
	if err != nil {
		return err
	}
	m.SetTotal(len(hosts))

	results := sink.New(a.cfg.OutputFile, log)
	pool := dispatcher.New(a.cfg.MaxThreads, log)

	var (
		redisClient *goredis.Client
		history     deps.HistorySource
		mirror      *mirror
	)
	if a.cfg.RedisAddr != "" {
		redisClient, err = redis.Connect(ctx, a.redisOptions(), log)
		if err != nil {
			return err
		}
		defer utils.CloseLogged(redisClient, log, "redis")

		store := redisstore.NewStore(redisClient, a.cfg.RedisTTL)
		history = store
		mirror = newMirror(store, a.scanID, a.cfg.RedisWT, log)
		mirror.start(ctx, redisstore.ScanMeta{
			ID:        a.scanID,
			InputFile: a.cfg.URLFile,
			Total:     len(hosts),
			StartedAt: time.Now().Unix(),
		})
	}

	srv, ln, err := a.statusServer(pool, results, redisClient, history)
	if err != nil {
		return fmt.Errorf("status server: %w", err)
	}

	reporter := ui.NewReporter(a.cfg.Progress, a.out, len(hosts))
	onComplete := func(c dispatcher.Completion) {
		results.Append(c.Result)
		reporter.Report(c)
		m.Observe(c.Result)
		m.SetInFlight(pool.Stats().InFlight)
		if mirror != nil {
			mirror.save(c.Result)
		}
	}

	ui.Info(a.out, "Checking live status of hosts...")

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errPanic, r)
			}
		}()
		if srv != nil {
			defer a.stopServer(srv, log)
		}

		a.started.Store(true)
		err = pool.Run(gctx, hosts, a.probe, onComplete)
		a.finished.Store(err == nil)
		if errors.Is(err, dispatcher.ErrProbePanic) {
			return fmt.Errorf("%w: %w", errPanic, err)
		}
		return err
	})
	scanErr := g.Wait()

	reporter.Done()
	m.SetInFlight(0)
	live, down := results.Counts()
	if mirror != nil {
		mirror.finish(live, down)
	}

	interrupted := errors.Is(scanErr, dispatcher.ErrInterrupted)
	if scanErr != nil && !interrupted {
		log.Error("scan aborted",
			logger.Int("completed", results.Len()),
			logger.Int("total", len(hosts)),
			logger.Error(scanErr))
		return scanErr
	}

	if interrupted {
		fmt.Fprintln(a.out)
		ui.Warn(a.out, "Scanning interrupted by user. Saving results to file...")
	}

	if err := results.Finalize(); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if interrupted {
		ui.Warn(a.out, "Partial results saved to %s", results.Path())
		ui.Summary(a.out, len(hosts), live, down)
		log.Warn("scan ended early",
			logger.Int("completed", results.Len()),
			logger.Int("total", len(hosts)),
			logger.Error(scanErr))
		return scanErr
	}

	ui.Success(a.out, "Results saved to %s", results.Path())
	ui.Summary(a.out, len(hosts), live, down)
	log.Info("scan complete",
		logger.Int("total", len(hosts)),
		logger.Int("live", live),
		logger.Int("down", down))
	return nil
}

func (a *App) initMetrics() (*metrics.Metrics, error) {
	if err := a.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	m, err := metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

func (a *App) redisOptions() redis.ConnectOptions {
	return redis.ConnectOptions{
		Addr:           a.cfg.RedisAddr,
		User:           a.cfg.RedisUser,
		Password:       a.cfg.RedisPassword,
		DB:             a.cfg.RedisDB,
		DialTimeout:    a.cfg.RedisDT,
		ReadTimeout:    a.cfg.RedisRT,
		WriteTimeout:   a.cfg.RedisWT,
		PoolSize:       a.cfg.RedisPoolSize,
		ConnectTimeout: a.cfg.RedisConnectTimeout,
		RetryInterval:  a.cfg.RedisRetryInterval,
		MaxWait:        a.cfg.RedisMaxWait,
		PingTimeout:    a.cfg.RedisPingTimeout,
		WarnThreshold:  a.cfg.RedisWarnThreshold,
	}
}

// statusServer binds the status listener when one is configured. The
// listener is bound before probing starts so a bad address fails fast.
func (a *App) statusServer(pool *dispatcher.Pool, results *sink.Sink, redisClient *goredis.Client, history deps.HistorySource) (*httpserver.Server, net.Listener, error) {
	ln := a.listener
	if ln == nil && a.cfg.ListenAddr == "" {
		return nil, nil, nil
	}

	allowed, err := utils.NewIPAllowList(a.cfg.AllowCIDRs)
	if err != nil {
		return nil, nil, err
	}

	if ln == nil {
		ln, err = net.Listen("tcp", a.cfg.ListenAddr)
		if err != nil {
			return nil, nil, err
		}
	}

	d := deps.Deps{
		Logger:      a.logger,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		ScanID:      a.scanID,
		InputFile:   a.cfg.URLFile,
		Workers:     pool.Workers(),
		Ready:       a.started.Load,
		Done:        a.finished.Load,
		Progress:    pool,
		Results:     results,
		Gatherer:    a.registry,
		RedisClient: redisClient,
		History:     history,
		Allowed:     allowed,
	}
	return httpserver.New(ln.Addr().String(), d), ln, nil
}

func (a *App) stopServer(srv *httpserver.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Warn("failed to stop status server", logger.Error(err))
	}
}
