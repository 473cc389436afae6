package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/enumlive/internal/config"
	"github.com/MrSnakeDoc/enumlive/internal/dispatcher"
	"github.com/MrSnakeDoc/enumlive/internal/loader"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	"github.com/MrSnakeDoc/enumlive/internal/ui"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var errPanic = errors.New("internal error")

// ExitCode maps a Run or config error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, config.ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Report prints the user-facing line for a failed run. Interruptions were
// already reported by Run.
func Report(w io.Writer, cfg *config.Config, err error) {
	switch {
	case errors.Is(err, dispatcher.ErrInterrupted):
	case errors.Is(err, loader.ErrInputNotFound):
		ui.Error(w, "Error: File '%s' not found.", cfg.URLFile)
	case errors.Is(err, errPanic):
		ui.Error(w, "An error occurred: %v", errPanic)
	default:
		ui.Error(w, "An error occurred: %v", err)
	}
}

// Main parses args, runs one scan until completion or SIGINT/SIGTERM and
// returns the exit code. Banner, progress and outcome lines go to stdout;
// usage errors go to stderr.
func Main(args []string, stdout, stderr io.Writer) (code int) {
	start := time.Now()

	cfg, err := config.Load(args, stderr)
	if err != nil {
		return ExitCode(err)
	}

	ui.SetNoColor(cfg.NoColor)
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()
	log.Debug("configuration loaded", logger.String("config", fmt.Sprintf("%+v", cfg.Redacted())))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic", logger.String("panic", fmt.Sprint(r)), logger.String("stack", string(debug.Stack())))
			ui.Error(stdout, "An error occurred: %v", errPanic)
			code = ExitFailure
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = New(cfg, log, stdout).Run(ctx)
	if err != nil {
		Report(stdout, cfg, err)
		return ExitCode(err)
	}

	ui.Elapsed(stdout, time.Since(start))
	return ExitOK
}
