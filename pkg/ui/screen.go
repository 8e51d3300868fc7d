package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	// maxLabelWidth bounds the label column of progress bars
	maxLabelWidth = 64
	// barDecoration is the room taken by icon, brackets, percent and sizes
	barDecoration = 30
	// minBarWidth keeps bars visible on narrow terminals
	minBarWidth = 10
	// maxStoredMessages bounds the log kept in memory
	maxStoredMessages = 1000
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	barStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	urlStyle   = lipgloss.NewStyle().Italic(true)
)

// bar is a progress bar; it is never removed once created
type bar struct {
	label   string
	current uint64
	total   uint64
}

// screen is the render state owned by the actor goroutine
type screen struct {
	title    string
	messages []string
	bars     []*bar
	index    map[string]*bar
}

func newScreen(title string) *screen {
	return &screen{
		title: title,
		index: make(map[string]*bar),
	}
}

func (s *screen) notify(label, text string) {
	line := strings.TrimSpace(text)
	if label != "" {
		line = labelStyle.Render(label) + " " + line
	}
	s.messages = append(s.messages, line)
	if len(s.messages) > maxStoredMessages {
		s.messages = s.messages[len(s.messages)-maxStoredMessages:]
	}
}

func (s *screen) progress(label string, current, total uint64) {
	if b, ok := s.index[label]; ok {
		b.current = current
		b.total = total
		return
	}
	b := &bar{label: label, current: current, total: total}
	s.index[label] = b
	s.bars = append(s.bars, b)
}

// frame lays out the screen as plain lines: title, the newest messages
// that fit, then one line per progress bar.
func (s *screen) frame(width, height int) []string {
	lines := []string{titleStyle.Render(s.title)}

	room := height - len(s.bars) - 2
	if room < 0 {
		room = 0
	}
	msgs := s.messages
	if len(msgs) > room {
		msgs = msgs[len(msgs)-room:]
	}
	lines = append(lines, msgs...)

	for _, b := range s.bars {
		lines = append(lines, renderBar(b, width))
	}
	return lines
}

func renderBar(b *bar, termWidth int) string {
	label := runewidth.Truncate(b.label, maxLabelWidth, "…")
	width := termWidth - runewidth.StringWidth(label) - barDecoration
	if width < minBarWidth {
		width = minBarWidth
	}

	ratio := 1.0
	if b.total > 0 {
		ratio = float64(b.current) / float64(b.total)
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))

	body := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
	stats := fmt.Sprintf("%3d%% %d/%dkb", int(ratio*100), b.current, b.total)
	return "🚛 " + urlStyle.Render(label) + " " + barStyle.Render(body) + " " + stats
}

// draw turns a frame into a single write: every line is positioned and
// cleared, rows below the frame are blanked and the cursor is parked on
// the first free row.
func draw(lines []string, height int) string {
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(moveTo(i+1, 1))
		sb.WriteString(clearLine)
		sb.WriteString(line)
	}
	for row := len(lines) + 1; row <= height; row++ {
		sb.WriteString(moveTo(row, 1))
		sb.WriteString(clearLine)
	}
	next := len(lines) + 1
	if next > height {
		next = height
	}
	sb.WriteString(moveTo(next, 1))
	return sb.String()
}
