package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle is a labelled producer into the output actor. It is a small value
// and safe to copy and to use from many goroutines.
type Handle struct {
	label string
	queue chan<- Message
}

// Label returns the display label of the handle
func (h Handle) Label() string {
	return h.label
}

// With returns a copy of the handle relabelled as "prefix name"
func (h Handle) With(prefix, name string) Handle {
	return Handle{label: joinLabel(prefix, name), queue: h.queue}
}

// Notify appends a line to the message log
func (h Handle) Notify(text string) {
	h.send(Message{Kind: KindNotify, Text: text})
}

// Notifyf formats and appends a line to the message log
func (h Handle) Notifyf(format string, args ...any) {
	h.Notify(fmt.Sprintf(format, args...))
}

// Progress creates or updates the progress bar keyed by label
func (h Handle) Progress(current, total uint64, label string) {
	h.send(Message{Kind: KindProgress, Current: current, Total: total, BarLabel: label})
}

// Ask prints prompt and waits for one line of input addressed to this call
func (h Handle) Ask(prompt string) (string, error) {
	reply := make(chan Answer, 1)
	h.send(Message{Kind: KindQuestion, Text: prompt, Reply: reply})
	answer := <-reply
	return answer.Text, answer.Err
}

// AskNumber asks until the answer is an integer in [min, max). Invalid
// input is reported and the prompt repeated; only an exhausted input ends
// the loop with an error.
func (h Handle) AskNumber(min, max int, prompt string) (int, error) {
	if min >= max {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrNoChoice, min, max)
	}

	for {
		input, err := h.Ask(prompt)
		if err != nil {
			return 0, err
		}
		line := strings.TrimSpace(input)
		if n, err := strconv.Atoi(line); err == nil && n >= min && n < max {
			return n, nil
		}
		h.Notifyf("Invalid input: %q", line)
	}
}

// Quit stops the render loop and waits until it acknowledged
func (h Handle) Quit() {
	ack := make(chan struct{})
	h.send(Message{Kind: KindQuit, Ack: ack})
	<-ack
}

func (h Handle) send(msg Message) {
	msg.Label = h.label
	h.queue <- msg
}
