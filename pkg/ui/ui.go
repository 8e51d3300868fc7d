// pkg/ui/ui.go
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// UI is the single writer of the terminal. Producers reach it through
// Handle values; the render loop drains one message at a time.
type UI struct {
	queue  chan Message
	term   Terminal
	input  *bufio.Reader
	screen *screen
	plain  bool
	done   map[string]bool // plain mode: bars already reported complete
	logger *log.Logger
}

// New creates the output actor. The loop is not running until Run or
// Start is called.
func New(opts *Options) *UI {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Terminal == nil {
		opts.Terminal = NewProcessTerminal()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	logger := opts.Logger
	if logger == nil {
		if opts.Debug {
			logger = log.New(os.Stderr, "[UI] ", log.LstdFlags)
		} else {
			logger = log.New(io.Discard, "", 0)
		}
	}

	return &UI{
		// Capacity 1: a send completes only once the loop took the previous item
		queue:  make(chan Message, 1),
		term:   opts.Terminal,
		input:  bufio.NewReader(opts.Input),
		screen: newScreen(opts.Title),
		plain:  opts.Plain,
		done:   make(map[string]bool),
		logger: logger,
	}
}

// Handle returns a producer handle labelled "prefix name"
func (u *UI) Handle(prefix, name string) Handle {
	return Handle{label: joinLabel(prefix, name), queue: u.queue}
}

// Start runs the render loop in its own goroutine. A loop failure is fatal
// for the process: every later message would be silently lost.
func (u *UI) Start() {
	go func() {
		if err := u.Run(); err != nil {
			u.logger.Printf("render loop failed: %v", err)
			fmt.Fprintf(os.Stderr, "Error: ui render failure: %v\n", err)
			os.Exit(1)
		}
	}()
}

// Run drains the queue until a quit message arrives. It returns
// ErrQueueClosed if the queue is closed first.
func (u *UI) Run() error {
	if u.plain {
		return u.runPlain()
	}
	if err := u.write(clearScreen); err != nil {
		return err
	}

	for msg := range u.queue {
		width, height := terminalSize(u.term)

		switch msg.Kind {
		case KindQuit:
			u.logger.Printf("quit requested by %q", msg.Label)
			if msg.Ack != nil {
				close(msg.Ack)
			}
			return nil
		case KindNotify:
			u.screen.notify(msg.Label, msg.Text)
		case KindProgress:
			u.screen.progress(msg.BarLabel, msg.Current, msg.Total)
		case KindQuestion:
			u.ask(msg)
		default:
			u.logger.Printf("dropping message of kind %s from %q", msg.Kind, msg.Label)
			continue
		}

		if err := u.write(draw(u.screen.frame(width, height), height)); err != nil {
			return err
		}
	}

	return ErrQueueClosed
}

// runPlain writes each notice as its own line and reports a progress bar
// once, when it completes. Nothing is redrawn.
func (u *UI) runPlain() error {
	for msg := range u.queue {
		var out string
		switch msg.Kind {
		case KindQuit:
			u.logger.Printf("quit requested by %q", msg.Label)
			if msg.Ack != nil {
				close(msg.Ack)
			}
			return nil
		case KindNotify:
			u.screen.notify(msg.Label, msg.Text)
			out = u.screen.messages[len(u.screen.messages)-1] + "\n"
		case KindProgress:
			u.screen.progress(msg.BarLabel, msg.Current, msg.Total)
			if msg.Total > 0 && msg.Current >= msg.Total && !u.done[msg.BarLabel] {
				u.done[msg.BarLabel] = true
				out = fmt.Sprintf("🚛 %s %dkb\n", msg.BarLabel, msg.Total)
			}
		case KindQuestion:
			u.ask(msg)
		default:
			u.logger.Printf("dropping message of kind %s from %q", msg.Kind, msg.Label)
		}

		if out != "" {
			if err := u.write(out); err != nil {
				return err
			}
		}
	}

	return ErrQueueClosed
}

// ask prints the prompt and blocks the loop until one line is read. The
// answer goes to the reply channel carried by this question only.
func (u *UI) ask(msg Message) {
	prompt := strings.TrimSpace(msg.Text)
	if msg.Label != "" {
		prompt = labelStyle.Render(msg.Label) + " " + prompt
	}

	var answer Answer
	if err := u.write(prompt + " "); err != nil {
		answer.Err = err
	} else {
		line, err := u.input.ReadString('\n')
		answer.Text = strings.TrimRight(line, "\r\n")
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			answer.Err = fmt.Errorf("reading answer: %w", err)
		}
	}

	if msg.Reply != nil {
		msg.Reply <- answer
	}
}

func (u *UI) write(s string) error {
	if _, err := io.WriteString(u.term, s); err != nil {
		return fmt.Errorf("drawing screen: %w", err)
	}
	return nil
}

func joinLabel(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + " " + name
	}
}
