package ui

import (
	"errors"
	"io"
	"log"
)

var (
	// ErrQueueClosed means the message queue was closed under the render loop
	ErrQueueClosed = errors.New("ui: message queue closed")

	// ErrNoChoice means a numeric prompt was asked with an empty range
	ErrNoChoice = errors.New("ui: no valid choice in range")
)

// Kind identifies the message variant
type Kind int

const (
	// KindNotify appends a line to the message log
	KindNotify Kind = iota
	// KindProgress creates or updates a progress bar
	KindProgress
	// KindQuestion prints a prompt and reads one line of input
	KindQuestion
	// KindQuit stops the render loop
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindNotify:
		return "notify"
	case KindProgress:
		return "progress"
	case KindQuestion:
		return "question"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Message is one item on the render queue. Label is the sender's display
// label; the remaining fields are used according to Kind.
type Message struct {
	Label string
	Kind  Kind

	// Text is the notification text or the question prompt
	Text string

	// Current and Total drive a progress bar keyed by BarLabel
	Current  uint64
	Total    uint64
	BarLabel string

	// Reply receives the answer to a question; each question owns its channel
	Reply chan<- Answer

	// Ack is closed once a quit has been processed
	Ack chan<- struct{}
}

// Answer is the outcome of reading one line for a question
type Answer struct {
	Text string
	Err  error
}

// Options configures the output actor
type Options struct {
	Title    string        // First screen line
	Terminal Terminal      // Defaults to the process terminal
	Input    io.Reader     // Defaults to os.Stdin
	Logger   *log.Logger   // Debug logger (optional)
	Debug    bool          // Enable debug logging
	Plain    bool          // Append lines instead of redrawing (pipes, CI)
}

// DefaultTitle is shown on the first line of the screen
const DefaultTitle = "📦 bpkg binary package manager"
