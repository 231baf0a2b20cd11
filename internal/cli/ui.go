package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Styles shared by the commands and the browser.
var (
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleKey    = lipgloss.NewStyle().Foreground(colorGray).Width(8)
	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
)

// Status line markers, one per kind of message.
var (
	markSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	markFailure = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	markWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	markFile    = StyleDim.Render("→")
)

func printStatus(w io.Writer, mark, format string, args ...any) {
	fmt.Fprintln(w, mark+" "+fmt.Sprintf(format, args...))
}

func printSuccess(w io.Writer, format string, args ...any) { printStatus(w, markSuccess, format, args...) }
func printFailure(w io.Writer, format string, args ...any) { printStatus(w, markFailure, format, args...) }
func printInfo(w io.Writer, format string, args ...any)    { printStatus(w, markInfo, format, args...) }

func printWarning(w io.Writer, format string, args ...any) {
	printStatus(w, markWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line under a status line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+markFile+" "+StyleValue.Render(path))
}

// printKeyValue prints one card field.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// statsLine joins canvas counters with dots, e.g. "3 cards · 2 connectors".
// Zero counters are left out.
func statsLine(counts ...counter) string {
	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, StyleDim.Render(fmt.Sprintf("%d %s", c.n, c.unit)))
		}
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

type counter struct {
	n    int
	unit string
}

// printStats prints the size of a rendered canvas and whether the render
// came from the cache.
func printStats(w io.Writer, cards, connectors int, cached bool) {
	origin := StyleDim.Render("fresh")
	if cached {
		origin = styleCached.Render("cached")
	}
	line := statsLine(counter{cards, "cards"}, counter{connectors, "connectors"})
	if line != "" {
		line += StyleDim.Render(" · ")
	}
	fmt.Fprintln(w, "  "+line+origin)
}
