package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/cutover/internal/simulation"
)

type stubTurner struct {
	turns []*simulation.Turn
	errs  []error
	seen  []string
}

func (s *stubTurner) Submit(_ context.Context, text string) (*simulation.Turn, simulation.RoundInfo, error) {
	i := len(s.seen)
	s.seen = append(s.seen, text)
	info := simulation.RoundInfo{Round: i + 1, MaxRounds: 4, Phase: simulation.PhaseActive}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, info, s.errs[i]
	}
	t := s.turns[i]
	info.Phase = t.Phase
	return t, info, nil
}

func newModel(t *testing.T, turner Turner) ChatModel {
	t.Helper()
	return NewChatModel(context.Background(), turner, "file_processor", "Welcome to the migration.",
		simulation.RoundInfo{MaxRounds: 4, Phase: simulation.PhaseActive})
}

// send types text and presses enter, then runs the submit command.
func send(t *testing.T, m ChatModel, text string) ChatModel {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ChatModel)
	require.NotNil(t, cmd)
	require.True(t, m.loading)

	msg := findTurn(t, cmd())
	next, _ = m.Update(msg)
	return next.(ChatModel)
}

func findTurn(t *testing.T, msg tea.Msg) turnMsg {
	t.Helper()
	switch msg := msg.(type) {
	case turnMsg:
		return msg
	case tea.BatchMsg:
		for _, cmd := range msg {
			if cmd == nil {
				continue
			}
			if tm, ok := cmd().(turnMsg); ok {
				return tm
			}
		}
	}
	t.Fatalf("no turn result in %T", msg)
	return turnMsg{}
}

func TestChatPersonaReply(t *testing.T) {
	turner := &stubTurner{turns: []*simulation.Turn{{
		Response: "[Alex (DevOps Engineer)]: Who owns the IAM roles?",
		Phase:    simulation.PhaseActive,
		Round:    1,
		Persona:  simulation.PersonaDevOps,
	}}}
	m := send(t, newModel(t, turner), "  adapter layer  ")

	assert.Equal(t, []string{"adapter layer"}, turner.seen)
	assert.False(t, m.loading)
	require.Len(t, m.entries, 3)
	assert.Equal(t, "You", m.entries[1].speaker)
	assert.Equal(t, "Alex (DevOps Engineer)", m.entries[2].speaker)
	assert.Equal(t, "Who owns the IAM roles?", m.entries[2].text)
	assert.Equal(t, 1, m.info.Round)
	assert.Empty(t, m.input.Value())
}

func TestChatEmptyInputIgnored(t *testing.T) {
	turner := &stubTurner{}
	m := newModel(t, turner)
	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(ChatModel).loading)
	assert.Empty(t, turner.seen)
}

func TestChatQuitWords(t *testing.T) {
	for _, word := range []string{"exit", "quit", "Q"} {
		t.Run(word, func(t *testing.T) {
			m := newModel(t, &stubTurner{})
			m.input.SetValue(word)
			next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)
			_, isQuit := cmd().(tea.QuitMsg)
			assert.True(t, isQuit)
			assert.True(t, next.(ChatModel).Quit())
		})
	}
}

func TestChatExtractionFailureRestoresInput(t *testing.T) {
	turner := &stubTurner{errs: []error{&simulation.ExtractionError{Round: 1, Err: errors.New("prose")}}}
	m := send(t, newModel(t, turner), "adapter layer")

	assert.Len(t, m.entries, 1)
	assert.Equal(t, "adapter layer", m.input.Value())
	assert.ErrorIs(t, m.lastErr, simulation.ErrExtraction)
	assert.Contains(t, m.View(), "Turn failed")
}

func TestChatPersonaFailureKeepsMessage(t *testing.T) {
	turner := &stubTurner{errs: []error{&simulation.PersonaError{Persona: simulation.PersonaPM, Round: 1, Err: errors.New("timeout")}}}
	m := send(t, newModel(t, turner), "adapter layer")

	assert.Len(t, m.entries, 2)
	assert.Empty(t, m.input.Value())
	assert.ErrorIs(t, m.lastErr, simulation.ErrPersonaResponse)
}

func TestChatFinalReviewAndEnd(t *testing.T) {
	turner := &stubTurner{turns: []*simulation.Turn{
		{Response: "Final review: summarise your plan.", Phase: simulation.PhaseFinalReview, Round: 1},
		{Response: "Score: 7/10", Phase: simulation.PhaseEnded, Round: 2, Ended: true},
	}}
	m := send(t, newModel(t, turner), "adapter layer, 6 weeks, budget")
	assert.Contains(t, m.View(), "[Final Review Round]")
	assert.Equal(t, "Facilitator", m.entries[len(m.entries)-1].speaker)

	m = send(t, m, "rollback by flag")
	assert.True(t, m.Ended())
	assert.False(t, m.Quit())
	assert.Contains(t, m.View(), "Session over")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestStatusLine(t *testing.T) {
	got := statusLine(simulation.RoundInfo{
		Round:                2,
		MaxRounds:            4,
		Phase:                simulation.PhaseActive,
		PersonasTriggered:    []simulation.PersonaID{simulation.PersonaDevOps},
		ConstraintsAddressed: []simulation.Constraint{simulation.ConstraintTime, simulation.ConstraintCost},
	})
	assert.Equal(t, "Round 2/4 · active · personas: DevOps · constraints: time, cost", got)
	assert.True(t, strings.HasSuffix(statusLine(simulation.RoundInfo{MaxRounds: 4}), "personas: none · constraints: none"))
}

func TestReplyEntryWithoutBrackets(t *testing.T) {
	e := replyEntry(&simulation.Turn{Response: "plain", Persona: simulation.PersonaCTO})
	assert.Equal(t, "CTO", e.speaker)
	assert.Equal(t, "plain", e.text)
}
