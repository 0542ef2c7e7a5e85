package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/editor"
)

type editorFinishedMsg struct{ err error }

func openEditor(path string, lineno int) tea.Cmd {
	cb, err := editor.Cmd(
		"AI Tutor",
		path,
		editor.OpenAtLine(uint(lineno)),
	)
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	return tea.ExecProcess(cb, func(err error) tea.Msg {
		return editorFinishedMsg{err}
	})
}
