// Package list provides scrollable list components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Entry is one question and what came back for it.
type Entry struct {
	Question string
	Answer   string
	// Context is shown when no answer was generated.
	Context  string
	Matched  []int
	Fallback bool
	Err      error
}

// EntryFromMessage converts a recorded chat message.
func EntryFromMessage(msg domain.ChatMessage) Entry {
	return Entry{Question: msg.Question, Answer: msg.Answer, Matched: msg.MatchedIndices}
}

// EntryFromAnswer converts a fresh answer.
func EntryFromAnswer(question string, answer *domain.Answer) Entry {
	e := Entry{
		Question: question,
		Answer:   answer.Text,
		Matched:  answer.Retrieval.MatchedIndices(),
		Fallback: answer.Retrieval.Fallback,
	}
	if e.Answer == "" {
		e.Context = answer.Retrieval.Context()
	}
	return e
}

// Transcript renders chat entries bottom-aligned, with scrolling.
type Transcript struct {
	entries []Entry
	styles  *styles.Styles
	width   int
	height  int
	// offset is how many lines the view is scrolled up from the bottom.
	offset int
}

// NewTranscript creates an empty transcript.
func NewTranscript(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{styles: s, width: 80, height: 10}
}

// Append adds an entry and scrolls to the bottom.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	t.offset = 0
}

// SetEntries replaces all entries.
func (t *Transcript) SetEntries(entries []Entry) {
	t.entries = entries
	t.offset = 0
}

// Entries returns the current entries.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// ScrollUp moves the view n lines towards older entries.
func (t *Transcript) ScrollUp(n int) {
	t.offset = min(t.offset+n, max(len(t.lines())-t.height, 0))
}

// ScrollDown moves the view n lines towards the newest entry.
func (t *Transcript) ScrollDown(n int) {
	t.offset = max(t.offset-n, 0)
}

// Offset returns how far the view is scrolled up.
func (t *Transcript) Offset() int {
	return t.offset
}

// SetDimensions sets the component dimensions.
func (t *Transcript) SetDimensions(width, height int) {
	t.width = width
	t.height = max(height, 1)
	t.offset = 0
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("No questions yet.")
	}

	lines := t.lines()
	end := len(lines) - t.offset
	start := max(end-t.height, 0)
	return strings.Join(lines[start:end], "\n")
}

func (t *Transcript) lines() []string {
	wrap := lipgloss.NewStyle().Width(max(t.width-2, 10))

	var out []string
	for i := range t.entries {
		e := &t.entries[i]
		out = append(out, t.styles.Question.Render("Q: "+e.Question))

		switch {
		case e.Err != nil:
			out = append(out, t.styles.Error.Render("  "+e.Err.Error()))
		case e.Answer != "":
			out = append(out, strings.Split(t.styles.Answer.Render(wrap.Render(e.Answer)), "\n")...)
		default:
			out = append(out, t.styles.Muted.Render("  (no answer generated, matched passages below)"))
			if e.Context != "" {
				out = append(out, strings.Split(t.styles.Answer.Render(wrap.Render(e.Context)), "\n")...)
			}
		}

		if e.Err == nil {
			out = append(out, t.styles.Passages.Render(passagesLine(e.Matched, e.Fallback)))
		}
		out = append(out, "")
	}
	return out
}

func passagesLine(matched []int, fallback bool) string {
	if len(matched) == 0 {
		return "no passages"
	}
	parts := make([]string, len(matched))
	for i, idx := range matched {
		parts[i] = fmt.Sprintf("#%d", idx)
	}
	line := "passages " + strings.Join(parts, ", ")
	if fallback {
		line += " (no close match, leading passages used)"
	}
	return line
}
