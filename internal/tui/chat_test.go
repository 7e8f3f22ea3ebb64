// ABOUTME: Tests for the chat model's update loop
// ABOUTME: Drives Update with key and answer messages against a fake session
package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/ragchat/internal/models"
)

type fakeSession struct {
	answer  models.Answer
	err     error
	asked   []string
	cleared int
}

func (f *fakeSession) ID() string { return "test" }

func (f *fakeSession) Ask(_ context.Context, q string) (models.Answer, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func (f *fakeSession) ClearMemory(context.Context) error {
	f.cleared++
	return nil
}

func (f *fakeSession) Stats() models.Stats {
	return models.Stats{State: models.StateIndexed, Documents: 2, Chunks: 5}
}

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func sized(t *testing.T, s Session) tea.Model {
	t.Helper()
	var m tea.Model = New(context.Background(), s)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func TestAskRoundTrip(t *testing.T) {
	sess := &fakeSession{answer: models.Answer{
		Text:    "Paris [1].",
		Sources: []models.SourceRef{{DocumentID: "france.txt", Index: 0, Score: 0.9}},
	}}
	m := sized(t, sess)
	if !strings.Contains(m.View(), "2 document(s), 5 chunk(s)") {
		t.Errorf("initial status missing from view:\n%s", m.View())
	}

	m = typeText(m, "What is the capital?")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should return an ask command")
	}
	if !m.(Model).waiting {
		t.Error("model should be waiting for the answer")
	}

	msg := cmd()
	if len(sess.asked) != 1 || sess.asked[0] != "What is the capital?" {
		t.Fatalf("asked = %v", sess.asked)
	}
	m, _ = m.Update(msg)

	view := m.View()
	for _, want := range []string{"You: What is the capital?", "Paris [1].", "france.txt", "Answered with 1 source(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if m.(Model).waiting {
		t.Error("model should not be waiting after the answer")
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		session    *fakeSession
		wantStatus string
		wantQuit   bool
	}{
		{
			name:       "ask error is shown",
			input:      "anything?",
			session:    &fakeSession{err: errors.New("generation unavailable")},
			wantStatus: "Error: generation unavailable",
		},
		{
			name:       "clear command",
			input:      "/clear",
			session:    &fakeSession{},
			wantStatus: "Conversation memory cleared",
		},
		{
			name:     "quit command",
			input:    "/quit",
			session:  &fakeSession{},
			wantQuit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := typeText(sized(t, tt.session), tt.input)
			m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("expected a command")
			}
			msg := cmd()
			if tt.wantQuit {
				if _, ok := msg.(tea.QuitMsg); !ok {
					t.Fatalf("msg = %T, want tea.QuitMsg", msg)
				}
				return
			}
			m, _ = m.Update(msg)
			if got := m.(Model).status; got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
		})
	}
}

func TestBlankInputIgnored(t *testing.T) {
	sess := &fakeSession{}
	m := typeText(sized(t, sess), "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank input should not produce a command")
	}
	if len(sess.asked) != 0 {
		t.Errorf("asked = %v, want none", sess.asked)
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := sized(t, &fakeSession{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should produce tea.QuitMsg")
	}
}
