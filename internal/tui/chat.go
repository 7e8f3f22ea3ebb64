// ABOUTME: Bubble Tea chat interface over one ragchat session
// ABOUTME: Questions are asked asynchronously and answers are shown with their sources
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/ragchat/internal/models"
)

// Session is the chat-facing subset of a ragchat session
type Session interface {
	ID() string
	Ask(ctx context.Context, question string) (models.Answer, error)
	ClearMemory(ctx context.Context) error
	Stats() models.Stats
}

type entry struct {
	question string
	answer   string
	sources  []models.SourceRef
	err      error
}

type answerMsg struct {
	answer models.Answer
	err    error
}

type clearedMsg struct{ err error }

// Model is the Bubble Tea model for the chat screen
type Model struct {
	ctx      context.Context
	session  Session
	input    textinput.Model
	viewport viewport.Model
	history  []entry
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model bound to session
func New(ctx context.Context, session Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents (/clear forgets the conversation, ctrl+c quits)"
	ti.Focus()
	ti.CharLimit = 0

	stats := session.Stats()
	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   fmt.Sprintf("%d document(s), %d chunk(s) indexed", stats.Documents, stats.Chunks),
	}
}

// Init starts the cursor blinking
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles input, window and answer events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-fh-ih-3)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		last := &m.history[len(m.history)-1]
		if msg.err != nil {
			last.err = msg.err
			m.status = "Error: " + msg.err.Error()
		} else {
			last.answer = msg.answer.Text
			last.sources = msg.answer.Sources
			m.status = fmt.Sprintf("Answered with %d source(s)", len(msg.answer.Sources))
		}
		m.refresh()
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = nil
			m.status = "Conversation memory cleared"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		if msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	switch q {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		return m, m.clear()
	}

	m.waiting = true
	m.history = append(m.history, entry{question: q})
	m.status = "Thinking..."
	m.refresh()
	return m, m.ask(q)
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.session.Ask(m.ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) clear() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{err: m.session.ClearMemory(m.ctx)}
	}
}

// View renders the transcript, the input box and the status line
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("ragchat") + " " + dimStyle.Render("session "+m.session.ID())
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return dimStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, e := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("You: " + e.question))
		b.WriteString("\n")
		switch {
		case e.err != nil:
			b.WriteString(errorStyle.Render(e.err.Error()))
		case e.answer == "":
			b.WriteString(dimStyle.Render("..."))
		default:
			b.WriteString(e.answer)
			for j, s := range e.sources {
				b.WriteString("\n")
				b.WriteString(dimStyle.Render(fmt.Sprintf("  [%d] %s chunk %d (score %.3f)", j+1, s.DocumentID, s.Index, s.Score)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
