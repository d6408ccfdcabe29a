package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/pentanote/internal/grade"
	"github.com/0xlemi/pentanote/internal/pitch"
	"github.com/0xlemi/pentanote/internal/session"
)

// Phase is the stage the practice round is currently in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDemo
	PhaseCountIn
	PhaseRecording
	PhaseResult
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	goodStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	badStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// noteStyle returns the colored card style for a note name.
func noteStyle(name string) lipgloss.Style {
	base := string(name[0])
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[base])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(1, 3).
		MarginBottom(1)
}

// Messages sent by the round driver.

// PhaseMsg switches the displayed phase.
type PhaseMsg Phase

// EstimateMsg carries the latest per-frame pitch estimate.
type EstimateMsg pitch.Estimate

// LevelMsg carries the input level for the meter.
type LevelMsg struct {
	RMS float64
	DB  float64
}

// NoteMsg reports a confirmed note event during recording.
type NoteMsg pitch.NoteEvent

// ResultMsg delivers the graded round and the session state after applying it.
type ResultMsg struct {
	Result grade.Result
	State  session.State
}

// ErrMsg aborts the session with an error.
type ErrMsg struct{ Err error }

// Model represents the UI state
type Model struct {
	state       session.State
	phase       Phase
	currentNote *pitch.Note
	levelDB     float64
	captured    []pitch.NoteEvent
	result      *grade.Result
	err         error
	proceed     chan<- struct{}
	width       int
	height      int
}

// NewModel creates the practice UI. proceed is signalled when the player
// asks for the next round from the result screen.
func NewModel(state session.State, proceed chan<- struct{}) Model {
	return Model{
		state:   state,
		phase:   PhaseIdle,
		levelDB: -100,
		proceed: proceed,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.phase == PhaseResult {
				select {
				case m.proceed <- struct{}{}:
					m.phase = PhaseIdle
					m.captured = nil
					m.currentNote = nil
					m.result = nil
				default:
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case PhaseMsg:
		m.phase = Phase(msg)
		if m.phase == PhaseRecording {
			m.captured = nil
			m.currentNote = nil
		}

	case EstimateMsg:
		if msg.Voiced {
			note := pitch.FromFrequency(msg.Frequency)
			m.currentNote = &note
		} else {
			m.currentNote = nil
		}

	case LevelMsg:
		m.levelDB = msg.DB

	case NoteMsg:
		m.captured = append(m.captured, pitch.NoteEvent(msg))

	case ResultMsg:
		m.result = &msg.Result
		m.state = msg.State
		m.phase = PhaseResult

	case ErrMsg:
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	s := titleStyle.Render("Pentanote - Pentatonic Practice")
	s += "\n"
	s += infoStyle.Render(fmt.Sprintf("Position %d | %d bpm (target %d)",
		m.state.Position+1, m.state.CurrentBPM, m.state.TargetBPM))
	s += "\n\n"

	switch m.phase {
	case PhaseIdle:
		s += infoStyle.Render("Preparing round...")
	case PhaseDemo:
		s += infoStyle.Render("Playing demonstration... listen closely")
	case PhaseCountIn:
		s += infoStyle.Render("Count-in... start on the next downbeat")
	case PhaseRecording:
		s += m.recordingView()
	case PhaseResult:
		s += m.resultView()
	}

	s += "\n\n"
	s += infoStyle.Render("Press q to quit")
	return s
}

func (m Model) recordingView() string {
	var s string
	if m.currentNote != nil {
		name := m.currentNote.Name()
		s += noteStyle(m.currentNote.Class.String()).Render(name)
		s += "\n"
		s += infoStyle.Render(fmt.Sprintf("Frequency: %.2f Hz | Cents: %+.1f",
			m.currentNote.Frequency, m.currentNote.Cents))
	} else {
		s += infoStyle.Render("Listening...")
	}
	s += "\n"
	s += infoStyle.Render(fmt.Sprintf("Level: %s %.0f dB", levelBar(m.levelDB), m.levelDB))
	s += "\n"
	s += infoStyle.Render(fmt.Sprintf("Notes captured: %d", len(m.captured)))
	return s
}

func (m Model) resultView() string {
	if m.result == nil {
		return ""
	}
	var s string
	accuracy := fmt.Sprintf("Accuracy: %.1f%%", m.result.Accuracy*100)
	if m.result.Accuracy == 1.0 {
		s += goodStyle.Render(accuracy + "  Perfect!")
	} else {
		s += badStyle.Render(accuracy)
	}
	s += "\n"
	s += infoStyle.Render(fmt.Sprintf("%d matched, %d wrong, %d missed, %d extra",
		m.result.Matched, m.result.Substituted, m.result.Missed, m.result.Extra))
	s += "\n" + resultLine(m.result.Notes)
	s += "\n\n"
	s += infoStyle.Render("Press enter for the next round")
	return s
}

// resultLine renders one symbol per aligned slot: ✓ match, ✗ wrong pitch,
// − missed, + extra.
func resultLine(notes []grade.NoteResult) string {
	var b strings.Builder
	for _, nr := range notes {
		switch nr.Outcome {
		case grade.Matched:
			b.WriteString(goodStyle.Render("✓"))
		case grade.Substituted:
			b.WriteString(badStyle.Render("✗"))
		case grade.Missed:
			b.WriteString(badStyle.Render("−"))
		case grade.Extra:
			b.WriteString(infoStyle.Render("+"))
		}
	}
	return b.String()
}

func levelBar(db float64) string {
	// map -60..0 dB onto 20 cells
	cells := int((db + 60) / 3)
	if cells < 0 {
		cells = 0
	}
	if cells > 20 {
		cells = 20
	}
	return "[" + strings.Repeat("█", cells) + strings.Repeat(" ", 20-cells) + "]"
}
