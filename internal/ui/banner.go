package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
)

const bannerArt = `
                                  _ _
  ___ _ __  _   _ _ __ ___  | (_)_   _____
 / _ \ '_ \| | | | '_ ' _ \ | | \ \ / / _ \
|  __/ | | | |_| | | | | | || | |\ V /  __/
 \___|_| |_|\__,_|_| |_| |_||_|_| \_/ \___|
`

// UsageLine is printed under the banner.
const UsageLine = "Usage: enumlive -u urls.txt -o live_hosts.csv --http-timeout 5 --max-threads 10"

var (
	brand = lipgloss.Color("#00D4AA")
	muted = lipgloss.Color("#6B7280")

	bannerStyle  = lipgloss.NewStyle().Foreground(brand).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(brand)
	dividerStyle = lipgloss.NewStyle().Foreground(muted)
	usageStyle   = lipgloss.NewStyle().Foreground(muted).Italic(true)
)

const divider = "=========================================================="

// SetNoColor turns off ANSI styling for the banner and progress output.
func SetNoColor(noColor bool) {
	color.NoColor = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Banner writes the startup banner, version and usage line to w.
func Banner(w io.Writer, version string) {
	fmt.Fprintln(w, dividerStyle.Render(divider))
	for _, line := range strings.Split(strings.Trim(bannerArt, "\n"), "\n") {
		fmt.Fprintln(w, bannerStyle.Render(line))
	}
	fmt.Fprintf(w, "%s %s\n", dividerStyle.Render("live host enumeration"), versionStyle.Render(version))
	fmt.Fprintln(w, dividerStyle.Render(divider))
	fmt.Fprintln(w, usageStyle.Render("    "+UsageLine))
	fmt.Fprintln(w, dividerStyle.Render(divider))
	fmt.Fprintln(w)
}
