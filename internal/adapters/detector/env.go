// Package detector picks the renderer for the current terminal.
package detector

import (
	"os"

	"go.trai.ch/mark/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode is the rendering mode of a run.
type OutputMode int

const (
	// ModeAuto chooses between TUI and linear from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive renderer.
	ModeTUI
	// ModeLinear forces line-by-line output for CI and pipes.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// Environment is the slice of the process environment detection looks at.
type Environment struct {
	IsTTY  bool
	Getenv func(string) string
}

// CurrentEnvironment inspects stdout and the process environment.
func CurrentEnvironment() Environment {
	return Environment{
		IsTTY:  term.IsTerminal(int(os.Stdout.Fd())),
		Getenv: os.Getenv,
	}
}

// Detect returns ModeLinear when stdout is not a terminal or CI is set,
// ModeTUI otherwise.
func Detect(env Environment) OutputMode {
	ci := ""
	if env.Getenv != nil {
		ci = env.Getenv("CI")
	}
	if !env.IsTTY || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// DetectEnvironment is Detect applied to the current process.
func DetectEnvironment() OutputMode {
	return Detect(CurrentEnvironment())
}

// ParseMode validates the value of the --output flag.
func ParseMode(flag string) (OutputMode, error) {
	switch flag {
	case "", "auto":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, domain.Annotate(domain.ErrInvalidOutputMode, "output", flag)
	}
}

// ResolveMode applies a user override to the detected mode.
func ResolveMode(detected, requested OutputMode) OutputMode {
	if requested == ModeAuto {
		return detected
	}
	return requested
}
