package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	"github.com/MrSnakeDoc/enumlive/internal/utils"
	"github.com/MrSnakeDoc/enumlive/internal/version"
)

const (
	// DefaultTimeout bounds a single protocol attempt.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxBodyBytes caps how much of a live response is read for the title.
	DefaultMaxBodyBytes int64 = 2 << 20
)

// Schemes are tried in this order for every host.
var Schemes = []string{"http", "https"}

// ErrDisqualifyingStatus marks an attempt that got a response whose status
// code does not count as live.
var ErrDisqualifyingStatus = errors.New("probe: disqualifying status code")

// Options configures a Prober.
type Options struct {
	Timeout            time.Duration // per protocol attempt
	UserAgent          string        // empty => enumlive/<version>
	InsecureSkipVerify bool          // accept invalid TLS certificates
	MaxBodyBytes       int64         // 0 => DefaultMaxBodyBytes
}

// Attempt is the outcome of one protocol attempt against one host.
type Attempt struct {
	Scheme     string
	URL        string
	StatusCode int // 0 when no response was received
	Title      string
	Err        error
}

// OK reports whether the attempt qualifies the host as live.
func (a Attempt) OK() bool {
	return a.Err == nil && domain.IsLiveStatusCode(a.StatusCode)
}

// Prober performs the scheme-fallback liveness check.
// It holds no mutable state and is safe for concurrent use.
type Prober struct {
	client    Doer
	timeout   time.Duration
	userAgent string
	maxBody   int64
	logger    logger.Logger
}

// New creates a Prober. A nil client gets NewClient(opts).
func New(client Doer, opts Options, log logger.Logger) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if client == nil {
		client = NewClient(opts)
	}
	return &Prober{
		client:    client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		logger:    log,
	}
}

// Probe checks host over http, then https, and never returns an error:
// transport failures and disqualifying responses only steer the fallback.
func (p *Prober) Probe(ctx context.Context, host string) domain.ProbeResult {
	start := time.Now()

	for _, scheme := range Schemes {
		a := p.Attempt(ctx, scheme, host)
		if a.OK() {
			r := domain.Live(host, a.Title, a.StatusCode, scheme)
			r.Duration = time.Since(start)
			return r
		}
		p.logger.Debug("probe attempt failed",
			logger.String("host", host),
			logger.String("scheme", scheme),
			logger.Int("status", a.StatusCode),
			logger.Error(a.Err))
	}

	r := domain.Down(host)
	r.Duration = time.Since(start)
	return r
}

// Attempt issues one GET against scheme://host within the per-attempt timeout.
func (p *Prober) Attempt(ctx context.Context, scheme, host string) Attempt {
	a := Attempt{Scheme: scheme, URL: scheme + "://" + urlHost(host)}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, http.NoBody)
	if err != nil {
		a.Err = fmt.Errorf("failed to create request: %w", err)
		return a
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		a.Err = err
		return a
	}
	defer utils.Close(resp.Body)

	a.StatusCode = resp.StatusCode
	if !domain.IsLiveStatusCode(resp.StatusCode) {
		a.Err = fmt.Errorf("%w: %d", ErrDisqualifyingStatus, resp.StatusCode)
		return a
	}

	// A body that cannot be read in time fails the attempt like any other
	// transport error; the title is only parsed from a complete read.
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		a.Err = fmt.Errorf("failed to read body: %w", err)
		return a
	}

	a.Title = titleFromBody(body, resp.Header.Get("Content-Type"))
	return a
}

// urlHost brackets IPv6 literals for use in a URL authority.
func urlHost(host string) string {
	if strings.Contains(host, ":") && net.ParseIP(host) != nil {
		return "[" + host + "]"
	}
	return host
}
