// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	tuiMaxLogEntries = 100
	tuiActionTimeout = 5 * time.Second
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// tuiModel is the Bubble Tea model for the live dashboard.
type tuiModel struct {
	engine   *mastlink.Engine
	connInfo string

	// Link statistics snapshot, refreshed every tick
	stats mastlink.Statistics

	// Output states learned from push events
	outputs map[int]bool

	eventLog  []eventLogEntry
	lastEvent *mastlink.Event

	// Basic action input: "type action device [extra]"
	actionInput  textinput.Model
	inputFocused bool

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type tuiTickMsg time.Time

type tuiEventMsg struct {
	event *mastlink.Event
}

type tuiErrorMsg struct {
	errType    int
	parameterA int
	parameterB int
	parameterC int
}

type tuiActionResultMsg struct {
	summary string
	err     error
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

func initialTUIModel(engine *mastlink.Engine, connInfo string) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "type action device [extra]"
	ti.CharLimit = 24
	ti.Width = 28

	return tuiModel{
		engine:   engine,
		connInfo: connInfo,
		outputs:  make(map[int]bool),
		eventLog: make([]eventLogEntry, 0),
		width:    80,
		height:   24,

		actionInput: ti,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if !m.inputFocused {
				m.quitting = true
				return m, tea.Quit
			}
		case "tab":
			m.inputFocused = !m.inputFocused
			if m.inputFocused {
				m.actionInput.Focus()
			} else {
				m.actionInput.Blur()
			}
			return m, nil
		case "enter":
			if m.inputFocused {
				cmd := m.submitAction()
				m.actionInput.SetValue("")
				return m, cmd
			}
		}
		if m.inputFocused {
			var cmd tea.Cmd
			m.actionInput, cmd = m.actionInput.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tuiTickMsg:
		m.stats = m.engine.Statistics()
		return m, tuiTickCmd()

	case tuiEventMsg:
		m.lastEvent = msg.event
		if out, ok := msg.event.Output(); ok {
			m.outputs[out.Output] = out.Status
		}
		m.addLogEntry(msg.event.String(), false)

	case tuiErrorMsg:
		m.addLogEntry(fmt.Sprintf("ERROR type=%d a=%d b=%d c=%d",
			msg.errType, msg.parameterA, msg.parameterB, msg.parameterC), true)

	case tuiActionResultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("action failed: %v", msg.err), true)
		} else {
			m.addLogEntry(msg.summary, false)
		}
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > tuiMaxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-tuiMaxLogEntries:]
	}
}

// submitAction parses the input line and issues the basic action off the
// Update loop.
func (m *tuiModel) submitAction() tea.Cmd {
	parts := strings.Fields(m.actionInput.Value())
	if len(parts) < 3 || len(parts) > 4 {
		return func() tea.Msg {
			return tuiActionResultMsg{err: fmt.Errorf("expected: type action device [extra]")}
		}
	}

	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return func() tea.Msg {
				return tuiActionResultMsg{err: fmt.Errorf("invalid number %q", part)}
			}
		}
		values[i] = v
	}

	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tuiActionTimeout)
		defer cancel()
		_, err := engine.DoBasicAction(ctx, values[0], values[1], values[2], values[3])
		if err != nil {
			return tuiActionResultMsg{err: err}
		}
		return tuiActionResultMsg{
			summary: fmt.Sprintf("BA %d %d sent to device %d", values[0], values[1], values[2]),
		}
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("MASTLINK - LIVE DASHBOARD"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Tab: action input | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Link statistics
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Succeeded:"), valueStyle.Render(fmt.Sprintf("%d", len(m.stats.Succeeded))),
		labelStyle.Render("Timed out:"), func() string {
			if len(m.stats.TimedOut) > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", len(m.stats.TimedOut)))
			}
			return valueStyle.Render("0")
		}(),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Bytes out:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.BytesWritten)),
		labelStyle.Render("Bytes in:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.BytesRead)),
	))
	if m.stats.LastSuccess.IsZero() {
		statsContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Last success:"), warningStyle.Render("never"),
		))
	} else {
		statsContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Last success:"), valueStyle.Render(fmt.Sprintf("%.1fs ago", time.Since(m.stats.LastSuccess).Seconds())),
		))
	}
	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Output states
	if len(m.outputs) > 0 {
		ids := make([]int, 0, len(m.outputs))
		for id := range m.outputs {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		outputContent := strings.Builder{}
		for i, id := range ids {
			state := "OFF"
			style := headerStyle
			if m.outputs[id] {
				state = "ON"
				style = valueStyle
			}
			if i > 0 && i%6 == 0 {
				outputContent.WriteString("\n")
			}
			outputContent.WriteString(fmt.Sprintf("%s %s   ",
				labelStyle.Render(fmt.Sprintf("%d:", id)), style.Render(state)))
		}
		s.WriteString(labelStyle.Render("Outputs:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(outputContent.String()))
		s.WriteString("\n\n")
	}

	// Basic action input
	inputLabel := "Basic Action:"
	if m.inputFocused {
		inputLabel = "Basic Action (enter to send):"
	}
	s.WriteString(labelStyle.Render(inputLabel))
	s.WriteString(" ")
	s.WriteString(m.actionInput.View())
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 16
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					valueStyle.Render("• "+entry.message),
				))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live dashboard for master traffic",
	Long: `Full-screen dashboard showing link statistics, output states learned
from push events, and a rolling event log. A basic action can be sent
from the input bar (Tab to focus, format: type action device [extra]).`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	m := initialTUIModel(engine, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	engine.RegisterBackgroundConsumer(mastlink.NewBackgroundConsumer(
		mastlink.EventInformation(), 0, func(fields mastlink.Fields) {
			event, err := mastlink.ParseEvent(fields)
			if err != nil {
				return
			}
			p.Send(tuiEventMsg{event: event})
		}))

	engine.RegisterBackgroundConsumer(mastlink.NewBackgroundConsumer(
		mastlink.ErrorInformation(), 0, func(fields mastlink.Fields) {
			errType, _ := fields.Int("type")
			paramA, _ := fields.Int("parameter_a")
			paramB, _ := fields.Int("parameter_b")
			paramC, _ := fields.Int("parameter_c")
			p.Send(tuiErrorMsg{errType: errType, parameterA: paramA, parameterB: paramB, parameterC: paramC})
		}))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
