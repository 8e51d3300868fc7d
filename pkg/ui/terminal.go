package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Terminal is the output device owned by the render loop
type Terminal interface {
	Write(p []byte) (n int, err error)
	Size() (width, height int, err error)
}

// ProcessTerminal writes to os.Stdout and queries its size with x/term
type ProcessTerminal struct{}

// NewProcessTerminal returns a terminal backed by the process stdout
func NewProcessTerminal() *ProcessTerminal {
	return &ProcessTerminal{}
}

// Size returns the current terminal dimensions.
func (t *ProcessTerminal) Size() (width, height int, err error) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return w, h, nil
}

// Write sends bytes to os.Stdout.
func (t *ProcessTerminal) Write(p []byte) (int, error) {
	n, err := os.Stdout.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to stdout: %w", err)
	}
	return n, nil
}

// IsInteractive reports whether stdout is attached to a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// fallbackSize is used when the terminal cannot report its size (pipes, CI)
const (
	fallbackWidth  = 100
	fallbackHeight = 30
)

func terminalSize(t Terminal) (int, int) {
	w, h, err := t.Size()
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}

// Escape sequences used for the full-screen redraw
const (
	clearScreen = "\x1b[2J"
	clearLine   = "\x1b[2K"
)

func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}
