// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"samtv/internal/device"
	"samtv/internal/logger"
)

// sendTimeout bounds one key press including connect and handshake
const sendTimeout = 30 * time.Second

// LogEntry represents a log entry for display
type LogEntry struct {
	Timestamp time.Time
	Level     string // INF, DBG, ERR
	Message   string
	Key       string
}

// keySentMsg reports the outcome of a key press sent in the background
type keySentMsg struct {
	button   remoteButton
	key      string
	response *device.ActionResponse
	err      error
	elapsed  time.Duration
}

// RemoteModel handles the remote control screen
type RemoteModel struct {
	device     device.Device
	deviceInfo device.DeviceInfo

	selectedButton  remoteButton
	lastButtonPress time.Time
	inFlight        int

	lastResponse  *device.ActionResponse
	actionHistory []actionHistoryEntry

	debugMode bool
	testMode  bool

	width  int
	height int

	logBuffer   []LogEntry
	maxLogLines int
}

// NewRemoteModelWithFlags creates a new remote control screen model with flags
func NewRemoteModelWithFlags(dev device.Device, debug, test bool) RemoteModel {
	return RemoteModel{
		device:        dev,
		deviceInfo:    dev.GetDeviceInfo(),
		actionHistory: []actionHistoryEntry{},
		debugMode:     debug,
		testMode:      test,
		logBuffer:     []LogEntry{},
		maxLogLines:   3,
	}
}

// Update handles remote control screen messages
func (m RemoteModel) Update(msg tea.Msg) (RemoteModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case keySentMsg:
		return m.handleKeySent(msg), nil

	case tea.KeyMsg:
		if button := buttonForKey(msg.String()); button != buttonNone {
			return m.handleRemoteButton(button)
		}
	}

	return m, nil
}

// buttonForKey maps a keyboard key to a remote button
func buttonForKey(key string) remoteButton {
	switch key {
	// Navigation keys
	case "up":
		return buttonUp
	case "down":
		return buttonDown
	case "left":
		return buttonLeft
	case "right":
		return buttonRight
	case "enter":
		return buttonOK

	// Power and volume
	case "p":
		return buttonPower
	case "+", "=":
		return buttonVolumeUp
	case "-":
		return buttonVolumeDown
	case "m":
		return buttonMute

	// Channel controls
	case "pgup", "ctrl+up":
		return buttonChannelUp
	case "pgdown", "ctrl+down":
		return buttonChannelDown

	// Function keys
	case "h":
		return buttonHome
	case "tab":
		return buttonMenu
	case "backspace", "esc":
		return buttonBack
	case "s", "i":
		return buttonSource

	// HDMI shortcuts
	case "f1":
		return buttonHDMI1
	case "f2":
		return buttonHDMI2
	case "f3":
		return buttonHDMI3
	case "f4":
		return buttonHDMI4
	}

	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return buttonNum0 + remoteButton(key[0]-'0')
	}

	return buttonNone
}

// View renders the remote control screen
func (m RemoteModel) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("samtv - Samsung TV Remote"))

	deviceInfo := successStyle.Render("📺 " + m.deviceInfo.Model)
	if m.deviceInfo.Address != "" {
		deviceInfo += " " + helpStyle.Render(m.deviceInfo.Address)
	}
	if m.testMode {
		deviceInfo += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Render("(Test)")
	}
	sections = append(sections, deviceInfo)

	sections = append(sections, m.renderHorizontalRemoteLayout())

	if status := m.renderStatusBar(); status != "" {
		sections = append(sections, status)
	}

	if m.debugMode || m.testMode {
		if logDisplay := m.renderLogDisplay(); logDisplay != "" {
			sections = append(sections, logDisplay)
		}
	}

	sections = append(sections, m.renderHelpText())

	return strings.Join(sections, "\n\n")
}

// renderHorizontalRemoteLayout creates a horizontal remote control layout
func (m RemoteModel) renderHorizontalRemoteLayout() string {
	getButtonStyle := func(btn remoteButton) lipgloss.Style {
		if m.selectedButton == btn && time.Since(m.lastButtonPress) < 200*time.Millisecond {
			return remoteButtonActiveStyle
		}
		return remoteButtonStyle
	}

	navColumn := lipgloss.JoinVertical(lipgloss.Center,
		getButtonStyle(buttonPower).Render(" PWR  "),
		"",
		getButtonStyle(buttonUp).Render("  ↑   "),
		lipgloss.JoinHorizontal(lipgloss.Center,
			getButtonStyle(buttonLeft).Render("  ←   "),
			getButtonStyle(buttonOK).Render(" OK   "),
			getButtonStyle(buttonRight).Render("  →   ")),
		getButtonStyle(buttonDown).Render("  ↓   "),
	)

	volumeColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Render("Volume & Channel:"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonVolumeUp).Render("VOL + "),
			"  ",
			getButtonStyle(buttonChannelUp).Render("CH +  ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonVolumeDown).Render("VOL - "),
			"  ",
			getButtonStyle(buttonChannelDown).Render("CH -  ")),
		getButtonStyle(buttonMute).Render("MUTE  "),
	)

	functionColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Render("Functions:"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonHome).Render("HOME  "),
			" ",
			getButtonStyle(buttonMenu).Render("MENU  ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonBack).Render("BACK  "),
			" ",
			getButtonStyle(buttonSource).Render("SOURCE")),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9")).Render("HDMI:"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonHDMI1).Render("HDMI1 "),
			" ",
			getButtonStyle(buttonHDMI2).Render("HDMI2 ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonHDMI3).Render("HDMI3 "),
			" ",
			getButtonStyle(buttonHDMI4).Render("HDMI4 ")),
	)

	navColumnWithHeader := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Render("Power & Navigation:"),
		navColumn,
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		navColumnWithHeader,
		strings.Repeat(" ", 6),
		volumeColumn,
		strings.Repeat(" ", 6),
		functionColumn,
	)
}

// renderStatusBar shows pending sends or the last result
func (m RemoteModel) renderStatusBar() string {
	if m.inFlight > 0 {
		return pendingStyle.Render(fmt.Sprintf("… sending %d key(s)", m.inFlight))
	}
	if m.lastResponse == nil {
		return ""
	}
	if m.lastResponse.Success {
		status := successStyle.Render("✓ Key sent")
		if len(m.actionHistory) > 0 {
			status += ": " + m.actionHistory[0].Key
		}
		return status
	}
	return errorStyle.Render("✗ " + m.lastResponse.Error)
}

// renderLogDisplay creates a fixed height log display area
func (m RemoteModel) renderLogDisplay() string {
	if len(m.logBuffer) == 0 {
		return ""
	}

	maxLines := m.maxLogLines

	start := 0
	if len(m.logBuffer) > maxLines {
		start = len(m.logBuffer) - maxLines
	}

	autoScrollIcon := ""
	if len(m.logBuffer) > maxLines {
		autoScrollIcon = " ↓"
	}

	logLines := []string{helpStyle.Render(fmt.Sprintf("─── LOGS%s ───", autoScrollIcon))}

	for i := 0; i < maxLines; i++ {
		if start+i >= len(m.logBuffer) {
			logLines = append(logLines, "")
			continue
		}

		entry := m.logBuffer[start+i]

		var levelStyle lipgloss.Style
		switch entry.Level {
		case "ERR":
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
		case "DBG":
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
		default:
			levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		}

		message := entry.Message
		if len(message) > 60 {
			message = message[:57] + "..."
		}

		logLines = append(logLines, fmt.Sprintf("%s [%s] %s",
			entry.Timestamp.Format("15:04:05"),
			levelStyle.Render(entry.Level),
			message))
	}

	return strings.Join(logLines, "\n")
}

// addLogEntry adds a new log entry to the buffer
func (m *RemoteModel) addLogEntry(level, message, key string) {
	m.logBuffer = append(m.logBuffer, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Key:       key,
	})

	if len(m.logBuffer) > 20 {
		m.logBuffer = m.logBuffer[1:]
	}
}

// renderHelpText creates the help text at the bottom
func (m RemoteModel) renderHelpText() string {
	help := "Arrows: Navigate • Enter: OK • P: Power • +/-: Volume • M: Mute • 0-9: Numbers"
	if m.width > 100 {
		help += " • PgUp/PgDn: Channel • H: Home • Tab: Menu • S: Source • F1-F4: HDMI • q: Quit"
	} else {
		help += " • q: Quit"
	}

	return "\n" + helpStyle.Render(help)
}

// handleRemoteButton starts sending the key for button without blocking the UI
func (m RemoteModel) handleRemoteButton(button remoteButton) (RemoteModel, tea.Cmd) {
	key, ok := buttonKeys[button]
	if !ok || m.device == nil {
		return m, nil
	}

	m.selectedButton = button
	m.lastButtonPress = time.Now()
	m.inFlight++

	if m.debugMode {
		m.addLogEntry("DBG", fmt.Sprintf("sending KEY_%s", key), key)
	}

	return m, sendKeyCmd(m.device, button, key)
}

// sendKeyCmd sends key through dev as a remote "key" action
func sendKeyCmd(dev device.Device, button remoteButton, key string) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()

		actionJSON, err := device.CreateActionJSON(device.ActionTypeRemote, string(device.RemoteActionKey),
			map[string]interface{}{"key": key})
		if err != nil {
			return keySentMsg{button: button, key: key, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		response, err := dev.Process(ctx, actionJSON)
		return keySentMsg{
			button:   button,
			key:      key,
			response: response,
			err:      err,
			elapsed:  time.Since(started),
		}
	}
}

// handleKeySent records the outcome of a background send
func (m RemoteModel) handleKeySent(msg keySentMsg) RemoteModel {
	if m.inFlight > 0 {
		m.inFlight--
	}

	response := msg.response
	if response == nil {
		response = &device.ActionResponse{Success: msg.err == nil}
		if msg.err != nil {
			response.Error = msg.err.Error()
		}
	}
	m.lastResponse = response

	if m.debugMode || m.testMode {
		if response.Success {
			message := fmt.Sprintf("KEY_%s sent in %s", msg.key, msg.elapsed.Round(time.Millisecond))
			if m.testMode {
				message = fmt.Sprintf("Test mode: KEY_%s simulated", msg.key)
			}
			m.addLogEntry("INF", message, msg.key)
		} else {
			m.addLogEntry("ERR", fmt.Sprintf("KEY_%s failed: %s", msg.key, response.Error), msg.key)
		}
	}

	entry := actionHistoryEntry{
		Timestamp: time.Now(),
		Key:       "KEY_" + msg.key,
		Success:   response.Success,
		Error:     response.Error,
	}
	m.actionHistory = append([]actionHistoryEntry{entry}, m.actionHistory...)
	if len(m.actionHistory) > 50 {
		m.actionHistory = m.actionHistory[:50]
	}

	log := logger.New()
	log.Info().
		Str("key", entry.Key).
		Bool("success", response.Success).
		Dur("elapsed", msg.elapsed).
		Msg("Remote button pressed")

	return m
}
