package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var (
	infoTag    = color.New(color.FgCyan).SprintFunc()
	successTag = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnTag    = color.New(color.FgYellow).SprintFunc()
	errorTag   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func Info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", infoTag("[*]"), fmt.Sprintf(format, args...))
}

func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successTag("[+]"), fmt.Sprintf(format, args...))
}

func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnTag("[!]"), fmt.Sprintf(format, args...))
}

func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", errorTag("[x]"), fmt.Sprintf(format, args...))
}

// Elapsed prints the total run time with two decimals.
func Elapsed(w io.Writer, d time.Duration) {
	fmt.Fprintf(w, "Scanning completed in %.2f seconds.\n", d.Seconds())
}

// Summary prints the live/down split of a finished or interrupted scan.
func Summary(w io.Writer, total, live, down int) {
	fmt.Fprintf(w, "Hosts probed: %d/%d  %s %d  %s %d\n",
		live+down, total,
		successTag("live"), live,
		errorTag("down"), down,
	)
}
