// Package ui renders terminal output for the ghtower commands.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passColor   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	warnColor   = lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFB74D"}
	failColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	accentColor = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}

	passStyle   = lipgloss.NewStyle().Foreground(passColor)
	warnStyle   = lipgloss.NewStyle().Foreground(warnColor)
	failStyle   = lipgloss.NewStyle().Foreground(failColor)
	accentStyle = lipgloss.NewStyle().Foreground(accentColor)
	dimStyle    = lipgloss.NewStyle().Foreground(dimColor)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// Init selects the color profile. Color is disabled when noColor is set
// or NO_COLOR is present in the environment.
func Init(noColor bool) {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// RenderPass renders s in the success color.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s in the warning color.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders s in the failure color.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent renders s in the accent color.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderDim renders s muted.
func RenderDim(s string) string { return dimStyle.Render(s) }

// RenderBold renders s in bold.
func RenderBold(s string) string { return boldStyle.Render(s) }
