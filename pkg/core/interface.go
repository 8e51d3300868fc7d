// pkg/core/interface.go
package core

// Prompter is what installers and resolvers need from the terminal.
// ui.Handle implements it; tests use scripted fakes.
type Prompter interface {
	// Notify appends a line to the message log
	Notify(text string)

	// Notifyf formats and appends a line to the message log
	Notifyf(format string, args ...any)

	// Progress creates or updates the progress bar keyed by label
	Progress(current, total uint64, label string)

	// Ask reads one line of input
	Ask(prompt string) (string, error)

	// AskNumber reads an integer in [min, max), asking again on bad input
	AskNumber(min, max int, prompt string) (int, error)
}
