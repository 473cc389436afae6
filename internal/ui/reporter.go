package ui

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/MrSnakeDoc/enumlive/internal/dispatcher"
	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

// Reporter renders scan progress. Report is called once per completion,
// from a single goroutine; Done is called once after the last Report.
type Reporter interface {
	Report(c dispatcher.Completion)
	Done()
}

// NewReporter returns a BarReporter for mode "bar" with at least one host
// and a LineReporter otherwise.
func NewReporter(mode string, w io.Writer, total int) Reporter {
	if mode == "bar" && total > 0 {
		return NewBarReporter(w, total)
	}
	return NewLineReporter(w)
}

// LineReporter prints one "[i/total] host - status - code" line per result.
type LineReporter struct {
	w    io.Writer
	mu   sync.Mutex
	live *color.Color
	down *color.Color
	dim  *color.Color
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{
		w:    w,
		live: color.New(color.FgGreen),
		down: color.New(color.FgRed),
		dim:  color.New(color.Faint),
	}
}

func (r *LineReporter) Report(c dispatcher.Completion) {
	status := r.down.Sprint(c.Result.Status)
	if c.Result.IsLive() {
		status = r.live.Sprint(c.Result.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s - %s - %s\n",
		r.dim.Sprintf("[%d/%d]", c.Index, c.Total),
		c.Result.Hostname,
		status,
		CodeText(c.Result),
	)
}

func (r *LineReporter) Done() {}

// BarReporter drives a single progress bar and leaves the per-host detail
// to the CSV.
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func NewBarReporter(w io.Writer, total int) *BarReporter {
	return &BarReporter{
		w: w,
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Checking hosts..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("hosts"),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(100*time.Millisecond),
		),
	}
}

func (r *BarReporter) Report(c dispatcher.Completion) {
	_ = r.bar.Add(1)
}

// Done leaves an interrupted bar at its current position.
func (r *BarReporter) Done() {
	if !r.bar.IsFinished() {
		_ = r.bar.Exit()
	}
	fmt.Fprintln(r.w)
}

// CodeText renders the status code column of a progress line; "-" when the
// host is down.
func CodeText(res domain.ProbeResult) string {
	if code, ok := res.Code(); ok {
		return strconv.Itoa(code)
	}
	return "-"
}
