package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/feedback"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type TranscribingMsg struct{}
type TranscriptionMsg struct {
	Text     string
	NoSpeech bool
}
type WarningMsg struct{ Text string }
type ErrorMsg struct{ Text string }
type ModeLineMsg struct{ Text string }   // provider/format info
type DeviceLineMsg struct{ Text string } // microphone device name
type frameMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateBusy
)

var (
	statusRecStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusBusyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusIdleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	levelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	textStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	faintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBoldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

type tuiModel struct {
	state             tuiState
	recordingDuration float64
	audioLevel        float64
	warning           string
	errText           string
	lastText          string
	noSpeech          bool
	msgCount          int
	modeLine          string
	deviceLine        string
	hotkeyLabel       string
	width, height     int
}

func NewTUIProgram(hotkeyLabel string) *tea.Program {
	m := tuiModel{hotkeyLabel: hotkeyLabel}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiFrame() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiFrame()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case frameMsg:
		return m, tuiFrame()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordingDuration = 0
		m.audioLevel = 0
		m.warning = ""
		m.errText = ""

	case RecordingStopMsg:
		if m.state == tuiStateRecording {
			m.state = tuiStateIdle
		}
		m.audioLevel = 0
		m.warning = ""

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case TranscribingMsg:
		m.state = tuiStateBusy

	case TranscriptionMsg:
		m.state = tuiStateIdle
		m.msgCount++
		m.lastText = msg.Text
		m.noSpeech = msg.NoSpeech
		m.errText = ""

	case WarningMsg:
		m.warning = msg.Text

	case ErrorMsg:
		m.state = tuiStateIdle
		m.errText = msg.Text

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func levelBar(level float64, width int) string {
	filled := int(level * 3 * float64(width))
	if filled > width {
		filled = width
	}
	return levelStyle.Render(strings.Repeat("▮", filled)) +
		faintStyle.Render(strings.Repeat("▯", width-filled))
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	switch m.state {
	case tuiStateRecording:
		b.WriteString(statusRecStyle.Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration)))
		b.WriteString("  " + levelBar(m.audioLevel, 24))
	case tuiStateBusy:
		b.WriteString(statusBusyStyle.Render("◌ TRANSCRIBING"))
	default:
		b.WriteString(statusIdleStyle.Render("○ STANDBY"))
	}
	b.WriteString("\n")

	if m.warning != "" {
		b.WriteString(warnStyle.Render("⚠ "+m.warning) + "\n")
	}
	if m.errText != "" {
		b.WriteString(errStyle.Render("✗ "+m.errText) + "\n")
	}

	if m.modeLine != "" {
		b.WriteString(faintStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(faintStyle.Render(m.deviceLine) + "\n")
	}

	b.WriteString("\n")
	if m.lastText != "" {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount)) + "\n")
		style := textStyle
		if m.noSpeech {
			style = warnStyle
		}
		wrapWidth := m.width - 2
		if wrapWidth < 10 {
			wrapWidth = 10
		}
		for _, line := range wrapText(m.lastText, wrapWidth) {
			b.WriteString(style.Render(line) + "\n")
		}
	} else {
		b.WriteString(faintStyle.Render("No transcriptions yet") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpBoldStyle.Render(m.hotkeyLabel) + helpStyle.Render(" to record, Esc to cancel") + "\n")
	b.WriteString(helpStyle.Render("murmur " + version))

	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

// tuiSink forwards pipeline notifications to the Bubble Tea program.
type tuiSink struct {
	p *tea.Program
}

func (s tuiSink) RecordingStarted()    { s.p.Send(RecordingStartMsg{}) }
func (s tuiSink) RecordingStopped()    { s.p.Send(RecordingStopMsg{}) }
func (s tuiSink) TranscribingStarted() { s.p.Send(TranscribingMsg{}) }
func (s tuiSink) Warning(msg string)   { s.p.Send(WarningMsg{Text: msg}) }
func (s tuiSink) Level(rms float64)    { s.p.Send(AudioLevelMsg{Level: rms}) }
func (s tuiSink) Tick(seconds float64) { s.p.Send(RecordingTickMsg{Duration: seconds}) }

func (s tuiSink) NoSpeechDetected() {
	s.p.Send(TranscriptionMsg{Text: "(no speech detected)", NoSpeech: true})
}

func (s tuiSink) Error(kind feedback.ErrorKind, msg string) {
	s.p.Send(ErrorMsg{Text: fmt.Sprintf("%s: %s", kind, msg)})
}

func (s tuiSink) Done(text string) {
	s.p.Send(TranscriptionMsg{Text: text})
}
