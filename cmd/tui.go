// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type model struct {
	connInfo      string
	values        bool
	showAll       bool
	stats         *bootio.Statistics
	eventLog      []logEntry
	maxLogEntries int
	lastBlock     []byte
	lastCode      byte
	spinner       spinner.Model
	started       time.Time
	closed        bool
	closedErr     error
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type frameMsg bootio.Event
type linkClosedMsg struct {
	err error
}

// formatDuration formats a duration as a human-friendly string
func formatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	hours := seconds / 3600
	minutes := seconds / 60 % 60
	seconds %= 60

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	last := parts[len(parts)-1]
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + last
}

func initialModel(connInfo string, values, showAll bool) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return model{
		connInfo:      connInfo,
		values:        values,
		showAll:       showAll,
		stats:         bootio.NewStatistics(),
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		spinner:       sp,
		started:       time.Now(),
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case linkClosedMsg:
		m.closed = true
		m.closedErr = msg.err
		m.addLogEntry(fmt.Sprintf("Connection closed: %v", msg.err), true)

	case frameMsg:
		m.handleFrame(bootio.Event(msg))
	}

	return m, nil
}

func (m *model) handleFrame(e bootio.Event) {
	m.stats.Observe(e)

	if e.Err != nil {
		if errors.Is(e.Err, bootio.ErrTimeout) && !m.showAll {
			return
		}
		m.addLogEntry(fmt.Sprintf("%s %s: %v", e.Kind, bootio.FormatErrorKind(e.Err), e.Err), true)
		return
	}

	switch e.Kind {
	case bootio.KindValue:
		m.addLogEntry(fmt.Sprintf("%s VALUE 0x%02X (%d)", e.Dir, e.Value, e.Value), false)
	case bootio.KindBlock:
		if e.Dir == bootio.DirRecv {
			m.lastBlock = e.Payload
			m.lastCode = e.Value
		}
		m.addLogEntry(fmt.Sprintf("%s BLOCK %d bytes, CRC 0x%08X", e.Dir, len(e.Payload), bootio.CRC32(e.Payload)), false)
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
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

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("BOOTLINK - FRAME MONITOR"))
	s.WriteString("\n")
	frames := "Block frames"
	if m.values {
		frames = "Value frames"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s | 'r' reset, 'q' quit", m.connInfo, frames)))
	s.WriteString("\n\n")

	// Line status
	if m.closed {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Connection closed: %v", m.closedErr)))
	} else {
		s.WriteString(m.spinner.View())
		s.WriteString(statsValueStyle.Render(" Listening"))
		s.WriteString(headerStyle.Render(" for " + formatDuration(time.Since(m.started))))
	}
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	var validPercent, errorPercent float64
	if st.TotalFrames > 0 {
		validPercent = float64(st.ValidFrames) * 100.0 / float64(st.TotalFrames)
		errorPercent = float64(st.Errors()) * 100.0 / float64(st.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Errors(), errorPercent)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Timeouts:"), warningStyle.Render(fmt.Sprintf("%d", st.Timeouts)),
		statsLabelStyle.Render("Framing:"), errorStyle.Render(fmt.Sprintf("%d", st.FramingErrors)),
		statsLabelStyle.Render("Checksum:"), errorStyle.Render(fmt.Sprintf("%d", st.ChecksumErrors)),
	))
	if st.BlockFrames > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Payload:"), statsValueStyle.Render(fmt.Sprintf("%d bytes in %d blocks", st.BytesIn, st.BlockFrames)),
		))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if st.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Last block (only shown once one arrived)
	if m.lastBlock != nil {
		s.WriteString(statsLabelStyle.Render(fmt.Sprintf("Last Block (code 0x%02X, %d bytes):", m.lastCode, len(m.lastBlock))))
		s.WriteString("\n")
		preview := m.lastBlock
		if len(preview) > 64 {
			preview = preview[:64]
		}
		dump := strings.TrimSuffix(bootio.FormatPayload(preview), "\n")
		s.WriteString(boxStyle.Render(dump))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 // Reserve space for header and stats
	if m.lastBlock != nil {
		logHeight -= 7
	}
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
					statsValueStyle.Render("✓ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
