package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/playback"
)

// quizModel is the checkpoint overlay. While it is active it owns the
// keyboard; playback stays paused until the question is answered or
// skipped.
type quizModel struct {
	common *commonModel

	active   bool
	point    int
	question *lesson.QuizQuestion

	cursor   int
	answered bool
	choice   int
}

func (m *quizModel) open(point int, q *lesson.QuizQuestion) {
	m.active = true
	m.point = point
	m.question = q
	m.cursor = 0
	m.answered = false
	m.choice = 0
}

func (m *quizModel) reset() {
	*m = quizModel{common: m.common}
}

func (m quizModel) update(msg tea.KeyMsg, ctrl *playback.Controller) (quizModel, tea.Cmd) {
	if !m.active || m.question == nil {
		return m, nil
	}

	// After the reveal any key closes the card and resumes playback.
	if m.answered {
		m.reset()
		if ctrl != nil {
			_ = ctrl.Resume()
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.question.Options)-1 {
			m.cursor++
		}

	case "enter":
		m.answered = true
		m.choice = m.cursor

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(m.question.Options) {
			m.cursor = idx
			m.choice = idx
			m.answered = true
		}

	case "esc", "s":
		m.reset()
		if ctrl != nil {
			_ = ctrl.Resume()
		}
	}

	return m, nil
}

func (m quizModel) view() string {
	if m.question == nil {
		return ""
	}
	q := m.question

	var b strings.Builder
	b.WriteString(quizPromptStyle.Render("Checkpoint"))
	b.WriteString("\n\n")
	b.WriteString(q.Prompt)
	b.WriteString("\n\n")

	for i, opt := range q.Options {
		prefix := "  "
		line := fmt.Sprintf("%d. %s", i+1, opt)
		switch {
		case m.answered && i == q.Answer:
			line = quizCorrectStyle.Render(line)
		case m.answered && i == m.choice:
			line = quizWrongStyle.Render(line)
		case !m.answered && i == m.cursor:
			prefix = selectedTitleStyle.Render("> ")
			line = selectedTitleStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	b.WriteString("\n")

	if m.answered {
		if m.choice == q.Answer {
			b.WriteString(quizCorrectStyle.Render("Correct!"))
		} else {
			b.WriteString(quizWrongStyle.Render(fmt.Sprintf("Not quite. The answer is %d.", q.Answer+1)))
		}
		if q.Explanation != "" {
			b.WriteString("\n\n" + captionStyle.Render(q.Explanation))
		}
		b.WriteString("\n\n" + subtleStyle.Render("press any key to continue"))
	} else {
		b.WriteString(subtleStyle.Render("↑/↓ choose • enter answer • esc skip"))
	}

	card := quizBorderStyle.Width(min(64, max(20, m.common.width-4))).Render(b.String())
	return lipgloss.Place(m.common.width, m.common.height, lipgloss.Center, lipgloss.Center, card)
}
