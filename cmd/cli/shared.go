package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Common styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	remoteButtonStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1).
				Margin(0, 1).
				Background(lipgloss.Color("#44475A")).
				Foreground(lipgloss.Color("#F8F8F2"))

	remoteButtonActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1).
				Margin(0, 1).
				Background(lipgloss.Color("#FF79C6")).
				Foreground(lipgloss.Color("#FAFAFA"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))
)

// Remote button types
type remoteButton int

const (
	buttonNone remoteButton = iota
	buttonPower
	buttonVolumeUp
	buttonVolumeDown
	buttonMute
	buttonChannelUp
	buttonChannelDown
	buttonUp
	buttonDown
	buttonLeft
	buttonRight
	buttonOK
	buttonHome
	buttonMenu
	buttonBack
	buttonSource
	buttonNum0
	buttonNum1
	buttonNum2
	buttonNum3
	buttonNum4
	buttonNum5
	buttonNum6
	buttonNum7
	buttonNum8
	buttonNum9
	buttonHDMI1
	buttonHDMI2
	buttonHDMI3
	buttonHDMI4
)

// buttonKeys maps each button to the TV key it sends
var buttonKeys = map[remoteButton]string{
	buttonPower:       "POWER",
	buttonVolumeUp:    "VOLUP",
	buttonVolumeDown:  "VOLDOWN",
	buttonMute:        "MUTE",
	buttonChannelUp:   "CHUP",
	buttonChannelDown: "CHDOWN",
	buttonUp:          "UP",
	buttonDown:        "DOWN",
	buttonLeft:        "LEFT",
	buttonRight:       "RIGHT",
	buttonOK:          "PANNEL_ENTER",
	buttonHome:        "HOME",
	buttonMenu:        "MENU",
	buttonBack:        "RETURN",
	buttonSource:      "SOURCE",
	buttonNum0:        "0",
	buttonNum1:        "1",
	buttonNum2:        "2",
	buttonNum3:        "3",
	buttonNum4:        "4",
	buttonNum5:        "5",
	buttonNum6:        "6",
	buttonNum7:        "7",
	buttonNum8:        "8",
	buttonNum9:        "9",
	buttonHDMI1:       "HDMI1",
	buttonHDMI2:       "HDMI2",
	buttonHDMI3:       "HDMI3",
	buttonHDMI4:       "HDMI4",
}

// Action history entry
type actionHistoryEntry struct {
	Timestamp time.Time
	Key       string
	Success   bool
	Error     string
}
