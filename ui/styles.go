package ui

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	indigo       = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	subtleIndigo = lipgloss.AdaptiveColor{Light: "#7D79F6", Dark: "#514DC1"}
	cream        = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	yellowGreen  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}
	green        = lipgloss.Color("#04B575")
	red          = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	semiDimGreen = lipgloss.AdaptiveColor{Light: "#35D79C", Dark: "#036B46"}
	dimGreen     = lipgloss.AdaptiveColor{Light: "#72D2B0", Dark: "#0B5137"}

	normalFg = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#dddddd"}
	grayFg   = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray  = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	dimColor = lipgloss.AdaptiveColor{Light: "#C2B8C2", Dark: "#544D54"}
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(indigo).
			Bold(true)

	selectedTitleStyle = lipgloss.NewStyle().
				Foreground(yellowGreen)

	selectedMetaStyle = lipgloss.NewStyle().
				Foreground(semiDimGreen)

	normalTitleStyle = lipgloss.NewStyle().
				Foreground(normalFg)

	normalMetaStyle = lipgloss.NewStyle().
			Foreground(grayFg)

	dimMetaStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(grayFg)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	captionStyle = lipgloss.NewStyle().
			Foreground(normalFg).
			Italic(true)

	captionDimStyle = lipgloss.NewStyle().
			Foreground(grayFg).
			Italic(true)

	quizBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(indigo).
			Padding(1, 2)

	quizPromptStyle = lipgloss.NewStyle().
			Bold(true)

	quizCorrectStyle = lipgloss.NewStyle().
				Foreground(green).
				Bold(true)

	quizWrongStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)
)

// Status bar.
var (
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg)

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(green)

	statusBarTimeStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(subtleIndigo)

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"})

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#F2F2F2", Dark: "#1B1B1B"})
)

// tutorLogoView renders the application badge for status bars.
func tutorLogoView() string {
	return logoStyle.Render(" Tutor ")
}
