package lesson

import (
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// wordsPerMinute is the pace assumed when estimating how long a narration
// script takes to speak. 150 wpm is a comfortable tutoring pace.
const wordsPerMinute = 150

// SpeakableText flattens markdown into plain prose suitable for a speech
// engine. Generated narration occasionally arrives with markdown formatting
// in it; code blocks are dropped entirely, inline code is kept verbatim and
// headings become short sentences.
func SpeakableText(markdown string) string {
	md := goldmark.New()
	reader := gtext.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	walkSpeakable(doc, reader.Source(), &buf)

	return collapseSpaces(buf.String())
}

// walkSpeakable recursively extracts speakable text from the markdown AST.
func walkSpeakable(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Heading:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkSpeakable(c, source, buf)
		}
		buf.WriteString(". ")
		return

	case *ast.Paragraph, *ast.ListItem:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkSpeakable(c, source, buf)
		}
		if s := buf.String(); len(s) > 0 && !strings.ContainsRune(".!?:", rune(s[len(s)-1])) {
			buf.WriteString(". ")
		} else {
			buf.WriteString(" ")
		}
		return

	case *ast.Image:
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkSpeakable(c, source, buf)
	}
}

// collapseSpaces normalizes whitespace runs to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EstimateDuration returns how long the given script takes to speak at a
// normal tutoring pace. Empty scripts estimate to zero; callers decide the
// floor.
func EstimateDuration(script string) time.Duration {
	words := len(strings.Fields(script))
	if words == 0 {
		return 0
	}
	return time.Duration(words) * time.Minute / wordsPerMinute
}
