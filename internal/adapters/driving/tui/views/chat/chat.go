// Package chat provides the question and answer view for one document.
package chat

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// chromeLines is the height taken by the title, input and status bar.
const chromeLines = 8

// View is the chat view. It continues the newest session of the document
// until the user starts a new one.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	questions driving.QuestionService

	document   *domain.Document
	sessionID  string
	input      *input.QuestionInput
	transcript *list.Transcript
	status     *status.Bar
	pending    bool
	width      int
	height     int
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, questions driving.QuestionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	v := &View{
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		questions:  questions,
		input:      input.NewQuestionInput(s),
		transcript: list.NewTranscript(s),
		status:     status.NewBar(s, km),
	}
	v.SetDimensions(80, 24)
	return v
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDocument switches the view to doc and loads its history.
func (v *View) SetDocument(doc domain.Document) tea.Cmd {
	v.document = &doc
	v.sessionID = ""
	v.pending = false
	v.input.Reset()
	v.transcript.SetEntries(nil)
	v.status.SetState(status.StateLoading)
	v.status.SetMessage("")
	return tea.Batch(v.input.Focus(), v.loadHistory())
}

func (v *View) loadHistory() tea.Cmd {
	ctx, svc, docID := v.ctx, v.questions, v.document.ID
	return func() tea.Msg {
		sessions, err := svc.History(ctx, docID)
		return messages.HistoryLoaded{DocumentID: docID, Sessions: sessions, Err: err}
	}
}

func (v *View) ask(question string) tea.Cmd {
	ctx, svc, docID, sessionID := v.ctx, v.questions, v.document.ID, v.sessionID
	return func() tea.Msg {
		answer, err := svc.Ask(ctx, docID, question, sessionID)
		return messages.AnswerReceived{DocumentID: docID, Question: question, Answer: answer, Err: err}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		if !v.current(msg.DocumentID) {
			return v, nil
		}
		v.status.SetState(status.StateChat)
		if msg.Err != nil {
			v.status.SetState(status.StateError)
			v.status.SetMessage(msg.Err.Error())
			return v, nil
		}
		if len(msg.Sessions) > 0 {
			newest := msg.Sessions[0]
			v.sessionID = newest.ID
			entries := make([]list.Entry, len(newest.Messages))
			for i, m := range newest.Messages {
				entries[i] = list.EntryFromMessage(m)
			}
			v.transcript.SetEntries(entries)
			v.status.SetMessage(fmt.Sprintf("Continuing session from %s", newest.CreatedAt.Format("2006-01-02 15:04")))
		}
		return v, nil

	case messages.AnswerReceived:
		if !v.current(msg.DocumentID) {
			return v, nil
		}
		v.pending = false
		if msg.Err != nil {
			v.transcript.Append(list.Entry{Question: msg.Question, Err: msg.Err})
			v.status.SetState(status.StateError)
			v.status.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.sessionID = msg.Answer.SessionID
		v.transcript.Append(list.EntryFromAnswer(msg.Question, msg.Answer))
		v.status.SetState(status.StateChat)
		v.status.SetMessage(fmt.Sprintf("%d passages used", msg.Answer.Retrieval.PassagesUsed()))
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()
	case keymap.Matches(key, v.keymap.NewSession):
		v.sessionID = ""
		v.transcript.SetEntries(nil)
		v.status.SetState(status.StateChat)
		v.status.SetMessage("New session")
		return v, nil
	case keymap.Matches(key, v.keymap.ScrollUp):
		v.transcript.ScrollUp(v.pageSize())
		return v, nil
	case keymap.Matches(key, v.keymap.ScrollDown):
		v.transcript.ScrollDown(v.pageSize())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.pending || v.document == nil || v.questions == nil {
		return nil
	}
	v.pending = true
	v.input.Reset()
	v.status.SetState(status.StateThinking)
	v.status.SetMessage("")
	return v.ask(question)
}

func (v *View) current(documentID string) bool {
	return v.document != nil && v.document.ID == documentID
}

func (v *View) pageSize() int {
	return max((v.height-chromeLines)/2, 1)
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chat"
	if v.document != nil {
		title = "Chat - " + v.document.Title
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(v.transcript.View())
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.status.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.status.SetWidth(width)
	v.transcript.SetDimensions(width, height-chromeLines)
}

// Document returns the document being chatted with.
func (v *View) Document() *domain.Document {
	return v.document
}

// SessionID returns the session the next question is recorded under.
func (v *View) SessionID() string {
	return v.sessionID
}

// Pending reports whether an answer is being generated.
func (v *View) Pending() bool {
	return v.pending
}

// Transcript returns the rendered exchanges.
func (v *View) Transcript() []list.Entry {
	return v.transcript.Entries()
}
