// Package color renders the synthesis summary with optional ANSI colors.
package color

import (
	"fmt"
	"os"
	"strings"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	bold   = "\033[1m"
)

// Color wraps text in ANSI escapes when enabled.
type Color struct {
	enabled bool
}

// New returns a Color that is enabled only if requested and the environment
// allows it.
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// Enabled reports whether escapes are emitted.
func (c *Color) Enabled() bool {
	return c.enabled
}

// shouldEnableColor honors NO_COLOR (https://no-color.org/) and dumb terminals.
func shouldEnableColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

func (c *Color) wrap(code, text string) string {
	if !c.enabled {
		return text
	}
	return code + text + reset
}

// Success colors text green.
func (c *Color) Success(text string) string { return c.wrap(green, text) }

// Warn colors text yellow.
func (c *Color) Warn(text string) string { return c.wrap(yellow, text) }

// Failure colors text red.
func (c *Color) Failure(text string) string { return c.wrap(red, text) }

// Bold makes text bold.
func (c *Color) Bold(text string) string { return c.wrap(bold, text) }

// Summary formats the closing line of a synth run, e.g.
// "Synthesized: 3 functions, 1 trigger, 0 failed."
func (c *Color) Summary(functions, triggers, failed int) string {
	parts := []string{
		c.Success(plural(functions, "function")),
		c.Success(plural(triggers, "trigger")),
	}
	if failed > 0 {
		parts = append(parts, c.Failure(fmt.Sprintf("%d failed", failed)))
	} else {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return fmt.Sprintf("%s %s.", c.Bold("Synthesized:"), strings.Join(parts, ", "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
