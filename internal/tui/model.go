package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/cutover/internal/simulation"
)

// entry is one rendered line of conversation.
type entry struct {
	speaker string
	style   lipgloss.Style
	text    string
}

// ChatModel is the Bubble Tea model for one simulation session.
type ChatModel struct {
	ctx    context.Context
	turner Turner
	keys   KeyMap
	module string

	entries []entry
	info    simulation.RoundInfo

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	loading  bool
	ended    bool
	quitting bool
	lastErr  error

	width  int
	height int
}

// NewChatModel creates a chat opened on the scenario introduction.
func NewChatModel(ctx context.Context, turner Turner, module, intro string, info simulation.RoundInfo) ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Explain your migration plan... (Enter to send)"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = DefaultKeyMap.NewLine
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor))

	m := ChatModel{
		ctx:      ctx,
		turner:   turner,
		keys:     DefaultKeyMap,
		module:   module,
		info:     info,
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    88,
		height:   32,
	}
	m.entries = append(m.entries, entry{speaker: "Facilitator", style: TitleStyle, text: intro})
	m.resize(m.width, m.height)
	return m
}

// Ended reports whether the session reached its evaluation.
func (m ChatModel) Ended() bool { return m.ended }

// Quit reports whether the player left before the session ended.
func (m ChatModel) Quit() bool { return m.quitting && !m.ended }

// Init starts the cursor blinking.
func (m ChatModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnMsg:
		m.loading = false
		m.applyTurn(msg)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	if !m.loading && !m.ended {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDn):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
		return m, nil
	}

	if m.loading {
		return m, nil
	}
	if m.ended {
		if key.Matches(msg, m.keys.Send) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Send) {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if quitWords[strings.ToLower(text)] {
			m.quitting = true
			return m, tea.Quit
		}
		m.entries = append(m.entries, entry{speaker: "You", style: UserStyle, text: text})
		m.input.Reset()
		m.loading = true
		m.lastErr = nil
		m.refresh()
		return m, tea.Batch(m.submit(text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) submit(text string) tea.Cmd {
	ctx, turner := m.ctx, m.turner
	return func() tea.Msg {
		turn, info, err := turner.Submit(ctx, text)
		return turnMsg{text: text, turn: turn, info: info, err: err}
	}
}

func (m *ChatModel) applyTurn(msg turnMsg) {
	m.info = msg.info
	if msg.err != nil {
		m.lastErr = msg.err
		// An unread message left the session untouched; hand it back.
		if errors.Is(msg.err, simulation.ErrExtraction) {
			m.entries = m.entries[:len(m.entries)-1]
			m.input.SetValue(msg.text)
		}
		return
	}

	m.entries = append(m.entries, replyEntry(msg.turn))
	m.ended = msg.turn.Ended
	if m.ended {
		m.input.Blur()
	}
}

// replyEntry splits a "[Speaker]: text" persona reply so the speaker can
// be coloured. Facilitator messages carry no persona.
func replyEntry(t *simulation.Turn) entry {
	if t.Persona == "" {
		return entry{speaker: "Facilitator", style: TitleStyle, text: t.Response}
	}
	if rest, ok := strings.CutPrefix(t.Response, "["); ok {
		if speaker, text, ok := strings.Cut(rest, "]: "); ok {
			return entry{speaker: speaker, style: personaStyle(t.Persona), text: text}
		}
	}
	return entry{speaker: string(t.Persona), style: personaStyle(t.Persona), text: t.Response}
}

func (m *ChatModel) resize(width, height int) {
	m.width, m.height = width, height

	vpWidth := max(width-4, 20)
	// Header, status bar, spacer, input (3 lines + border) and footer.
	vpHeight := max(height-11, 5)
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.input.SetWidth(vpWidth)
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(formatEntries(m.entries, m.viewport.Width))
	m.viewport.GotoBottom()
}

func formatEntries(entries []entry, width int) string {
	body := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.style.Render(e.speaker))
		b.WriteString("\n")
		b.WriteString(body.Render(e.text))
	}
	return b.String()
}

// statusLine summarises the round for the status bar.
func statusLine(info simulation.RoundInfo) string {
	phase := "active"
	switch info.Phase {
	case simulation.PhaseFinalReview:
		phase = "final review"
	case simulation.PhaseEnded:
		phase = "ended"
	}
	personas := "none"
	if len(info.PersonasTriggered) > 0 {
		names := make([]string, len(info.PersonasTriggered))
		for i, p := range info.PersonasTriggered {
			names[i] = string(p)
		}
		personas = strings.Join(names, ", ")
	}
	constraints := "none"
	if len(info.ConstraintsAddressed) > 0 {
		names := make([]string, len(info.ConstraintsAddressed))
		for i, c := range info.ConstraintsAddressed {
			names[i] = string(c)
		}
		constraints = strings.Join(names, ", ")
	}
	return fmt.Sprintf("Round %d/%d · %s · personas: %s · constraints: %s",
		info.Round, info.MaxRounds, phase, personas, constraints)
}

// View renders the chat.
func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Cutover: " + m.module))
	b.WriteString("\n")
	b.WriteString(StatusBarStyle.Width(m.viewport.Width).Render(statusLine(m.info)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Stakeholders are thinking...")
	case m.lastErr != nil:
		b.WriteString(ErrorStyle.Render("Turn failed, try again: " + m.lastErr.Error()))
	case m.info.InFinalReview():
		b.WriteString(WarningStyle.Render("[Final Review Round] Answer the review to finish."))
	}
	b.WriteString("\n")

	if m.ended {
		b.WriteString(DimStyle.Render("Session over. Press enter to exit."))
	} else {
		b.WriteString(BoxStyle.Render(m.input.View()))
		b.WriteString("\n")
		b.WriteString(DimStyle.Render(m.keys.help()))
	}
	return b.String()
}
