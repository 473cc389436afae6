package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/enumlive/internal/dispatcher"
	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	SetNoColor(true)
	t.Cleanup(func() { color.NoColor = prev })
}

func TestLineReporter(t *testing.T) {
	noColor(t)

	tests := []struct {
		name string
		c    dispatcher.Completion
		want string
	}{
		{
			name: "live",
			c:    dispatcher.Completion{Index: 1, Total: 3, Result: domain.Live("a.example", "A", 200, "http")},
			want: "[1/3] a.example - Live - 200\n",
		},
		{
			name: "live 404",
			c:    dispatcher.Completion{Index: 2, Total: 3, Result: domain.Live("b.example", domain.NoTitle, 404, "https")},
			want: "[2/3] b.example - Live - 404\n",
		},
		{
			name: "down",
			c:    dispatcher.Completion{Index: 3, Total: 3, Result: domain.Down("c.example")},
			want: "[3/3] c.example - Down - -\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewLineReporter(&buf)
			r.Report(tt.c)
			r.Done()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestNewReporter(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &BarReporter{}, NewReporter("bar", &buf, 5))
	assert.IsType(t, &LineReporter{}, NewReporter("bar", &buf, 0))
	assert.IsType(t, &LineReporter{}, NewReporter("lines", &buf, 5))
}

func TestBarReporterCountsCompletions(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	r := NewBarReporter(&buf, 2)
	r.Report(dispatcher.Completion{Index: 1, Total: 2, Result: domain.Down("a.example")})
	r.Report(dispatcher.Completion{Index: 2, Total: 2, Result: domain.Down("b.example")})
	r.Done()

	assert.True(t, r.bar.IsFinished())
}

func TestBarReporterInterrupted(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	r := NewBarReporter(&buf, 10)
	r.Report(dispatcher.Completion{Index: 1, Total: 10, Result: domain.Down("a.example")})
	r.Done()

	assert.Equal(t, int64(1), r.bar.State().CurrentNum)
}

func TestBanner(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	Banner(&buf, "v1.0.0")

	out := buf.String()
	assert.Contains(t, out, "v1.0.0")
	assert.Contains(t, out, UsageLine)
	assert.False(t, strings.Contains(out, "\x1b["), "banner should not contain ANSI codes with color disabled")
}

func TestMessages(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	Info(&buf, "Checking live status of hosts...")
	Success(&buf, "Results saved to %s", "out.csv")
	Elapsed(&buf, 1234*time.Millisecond)
	Summary(&buf, 3, 2, 1)

	assert.Equal(t,
		"[*] Checking live status of hosts...\n"+
			"[+] Results saved to out.csv\n"+
			"Scanning completed in 1.23 seconds.\n"+
			"Hosts probed: 3/3  live 2  down 1\n",
		buf.String())
}
