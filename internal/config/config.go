package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/enumlive/internal/utils"
)

// ErrUsage marks an invalid command line. The app exits with status 2.
var ErrUsage = errors.New("invalid usage")

const (
	ProgressLines = "lines"
	ProgressBar   = "bar"
)

type Config struct {
	// Scan
	URLFile     string        // -u/--url_file, newline-delimited URL list
	OutputFile  string        // -o/--output_file, CSV destination
	HTTPTimeout time.Duration // --http-timeout, per protocol attempt (default: 5s)
	MaxThreads  int           // --max-threads, worker pool size (default: 10)
	UserAgent   string        // --user-agent, empty => enumlive/<version>
	Insecure    bool          // --insecure, skip TLS certificate verification

	// Output
	ConfigFile string // --config, optional YAML file
	LogLevel   string // "debug" | "info" | "warn" | "error"
	PrettyLog  bool   // true => zap dev (color), false => zap prod (JSON)
	NoColor    bool   // disable colored progress lines
	Progress   string // "lines" | "bar"

	// Status server (disabled when ListenAddr is empty)
	ListenAddr      string        // ex: ":9090"
	ShutdownTimeout time.Duration // ex: 5s
	AllowCIDRs      []string      // clients allowed on /api and /metrics; empty allows all

	// Redis result mirror (disabled when RedisAddr is empty)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisTTL            time.Duration // expiry of mirrored host entries (default: 24h)
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 15s)
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisMaxWait        time.Duration // max wait between retries (ex: 5s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	RedisWarnThreshold  int           // warn after this many attempts
}

// Defaults returns the configuration before any file or flag is applied.
// Every field can be seeded from an ENUMLIVE_* environment variable.
func Defaults() *Config {
	return &Config{
		HTTPTimeout: time.Duration(getenvInt("ENUMLIVE_HTTP_TIMEOUT", 5)) * time.Second,
		MaxThreads:  getenvInt("ENUMLIVE_MAX_THREADS", 10),
		UserAgent:   getenv("ENUMLIVE_USER_AGENT", ""),
		Insecure:    mustBool("ENUMLIVE_INSECURE", false),

		LogLevel:  getenv("ENUMLIVE_LOG_LEVEL", "warn"),
		PrettyLog: mustBool("ENUMLIVE_PRETTY_LOG", true),
		NoColor:   mustBool("NO_COLOR", false),
		Progress:  getenv("ENUMLIVE_PROGRESS", ProgressLines),

		ListenAddr:      getenv("ENUMLIVE_LISTEN", ""),
		ShutdownTimeout: mustDuration("ENUMLIVE_SHUTDOWN_TIMEOUT", 5*time.Second),
		AllowCIDRs:      getenvSlice("ENUMLIVE_ALLOW_CIDRS"),

		RedisAddr:           getenv("ENUMLIVE_REDIS_ADDR", ""),
		RedisUser:           getenv("ENUMLIVE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("ENUMLIVE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("ENUMLIVE_REDIS_DB", 0),
		RedisTTL:            mustDuration("ENUMLIVE_REDIS_TTL", 24*time.Hour),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}
}

// Load builds the configuration from the environment, an optional YAML file
// and the command line, in increasing order of precedence.
// Usage text and flag errors are written to out.
func Load(args []string, out io.Writer) (*Config, error) {
	cfg := Defaults()

	fs := flag.NewFlagSet("enumlive", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { printUsage(fs, out) }

	var timeoutSecs int
	bindFlags(fs, cfg, &timeoutSecs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments: %s", ErrUsage, strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["http-timeout"] {
		cfg.HTTPTimeout = time.Duration(timeoutSecs) * time.Second
	}

	if cfg.ConfigFile != "" {
		fc, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		fc.apply(cfg, set)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return cfg, nil
}

// bindFlags registers every flag on fs. Short and long spellings share the
// same destination, mirroring the original -u/--url_file interface.
func bindFlags(fs *flag.FlagSet, cfg *Config, timeoutSecs *int) {
	fs.StringVar(&cfg.URLFile, "u", cfg.URLFile, "Path to the file containing URLs (required)")
	fs.StringVar(&cfg.URLFile, "url_file", cfg.URLFile, "Path to the file containing URLs (required)")
	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "Path to the output CSV file (required)")
	fs.StringVar(&cfg.OutputFile, "output_file", cfg.OutputFile, "Path to the output CSV file (required)")
	fs.IntVar(timeoutSecs, "http-timeout", int(cfg.HTTPTimeout/time.Second), "Timeout for HTTP requests (seconds)")
	fs.IntVar(&cfg.MaxThreads, "max-threads", cfg.MaxThreads, "Maximum number of concurrent probes")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent header sent with probes")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip TLS certificate verification")

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Optional YAML configuration file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.PrettyLog, "pretty-log", cfg.PrettyLog, "Human readable logs instead of JSON")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	fs.StringVar(&cfg.Progress, "progress", cfg.Progress, "Progress display: lines or bar")

	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Serve scan status and metrics on this address (ex: :9090)")
	cidrsFromFlag := false
	fs.Func("allow-cidr", "Restrict /api and /metrics to this IP or CIDR (repeatable)", func(v string) error {
		if !cidrsFromFlag {
			cfg.AllowCIDRs = nil
			cidrsFromFlag = true
		}
		cfg.AllowCIDRs = append(cfg.AllowCIDRs, splitList(v)...)
		return nil
	})

	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Mirror results to this Redis server (ex: localhost:6379)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis DB number")
	fs.DurationVar(&cfg.RedisTTL, "redis-ttl", cfg.RedisTTL, "Expiry of mirrored results")
}

func printUsage(fs *flag.FlagSet, out io.Writer) {
	fmt.Fprintln(out, "Usage: enumlive -u urls.txt -o live_hosts.csv [--http-timeout 5] [--max-threads 10]")
	fmt.Fprintln(out)
	fs.PrintDefaults()
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	var missing []string
	if c.URLFile == "" {
		missing = append(missing, "-u/--url_file")
	}
	if c.OutputFile == "" {
		missing = append(missing, "-o/--output_file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("--http-timeout must be > 0, got %v", c.HTTPTimeout)
	}
	if c.MaxThreads <= 0 {
		return fmt.Errorf("--max-threads must be > 0, got %d", c.MaxThreads)
	}
	if c.Progress != ProgressLines && c.Progress != ProgressBar {
		return fmt.Errorf("--progress must be %q or %q, got %q", ProgressLines, ProgressBar, c.Progress)
	}
	if _, err := utils.NewIPAllowList(c.AllowCIDRs); err != nil {
		return fmt.Errorf("--allow-cidr: %w", err)
	}
	if c.RedisAddr != "" && c.RedisTTL <= 0 {
		return fmt.Errorf("--redis-ttl must be > 0, got %v", c.RedisTTL)
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvSlice splits a comma-separated variable, dropping blank items.
func getenvSlice(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
