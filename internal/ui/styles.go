// Package ui styles CLI output.
package ui

import "fmt"

// ANSI256 color codes, matched to the pane palette of the rendered frames.
const (
	colorTopology = 74  // blue
	colorStats    = 172 // orange
	colorWarn     = 167 // red
	colorOK       = 71  // green
	colorMuted    = 245 // medium gray
	colorCmd      = 250 // light gray
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderPane returns a pane name in that pane's color.
func RenderPane(pane string) string {
	switch pane {
	case "topology":
		return paint(colorTopology, pane)
	case "stats":
		return paint(colorStats, pane)
	}
	return pane
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorTopology, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderWarn returns s in the warning (red) color.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderOK returns s in the success (green) color.
func RenderOK(s string) string { return paint(colorOK, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
