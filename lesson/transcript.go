package lesson

import (
	"fmt"
	"strings"
	"time"
)

// Transcript renders a presentation as a single markdown document: the
// lesson as it reads on paper, slides in order with their talking points
// and narration, followed by the quiz with answers. The CLI prints this
// form when stdout is not a terminal.
func Transcript(p *Presentation) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = strings.TrimSpace(p.Topic)
	}
	fmt.Fprintf(&b, "# %s\n", title)

	if meta := transcriptMeta(p); meta != "" {
		fmt.Fprintf(&b, "\n*%s*\n", meta)
	}

	for i, s := range p.Slides {
		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, strings.TrimSpace(s.Title))
		if len(s.Points) > 0 {
			b.WriteString("\n")
			for _, point := range s.Points {
				fmt.Fprintf(&b, "- %s\n", point)
			}
		}
		if narration := strings.TrimSpace(s.Narration); narration != "" {
			fmt.Fprintf(&b, "\n%s\n", narration)
		}
	}

	if len(p.Quiz) > 0 {
		b.WriteString("\n## Quiz\n")
		for i, q := range p.Quiz {
			fmt.Fprintf(&b, "\n%d. %s\n", i+1, strings.TrimSpace(q.Prompt))
			for j, opt := range q.Options {
				fmt.Fprintf(&b, "    %c) %s\n", 'a'+j, opt)
			}
			if q.Answer >= 0 && q.Answer < len(q.Options) {
				fmt.Fprintf(&b, "\n    Answer: %c) %s\n", 'a'+q.Answer, q.Options[q.Answer])
				if expl := strings.TrimSpace(q.Explanation); expl != "" {
					fmt.Fprintf(&b, "    %s\n", expl)
				}
			}
		}
	}

	return b.String()
}

// transcriptMeta builds the italic byline under the title. Empty fields
// are skipped so hand-written lessons without a level still look right.
func transcriptMeta(p *Presentation) string {
	var parts []string
	if p.Level != "" {
		parts = append(parts, p.Level)
	}
	if p.Kind.Valid() {
		parts = append(parts, string(p.Kind))
	}
	if n := len(p.Slides); n > 0 {
		parts = append(parts, fmt.Sprintf("%d slides", n))
	}
	if total := p.TotalDuration(); total > 0 {
		parts = append(parts, fmt.Sprintf("about %s", total.Round(time.Second)))
	}
	return strings.Join(parts, " · ")
}
