// Package lesson turns lesson files into the plain text that is spoken and
// highlighted.
package lesson

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nosabos/nosabos/utils"
)

var markdown = goldmark.New()

// Lesson is a loaded lesson file.
type Lesson struct {
	Path  string
	Title string // first heading, if any
	Text  string
}

// Load reads path. Markdown files lose their front matter and are reduced
// to speakable text; anything else is used verbatim.
func Load(path string) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lesson: %w", err)
	}

	l := &Lesson{Path: path}
	if IsMarkdown(path) {
		l.Title, l.Text = extract(utils.RemoveFrontmatter(data))
	} else {
		l.Text = strings.TrimSpace(string(data))
	}
	return l, nil
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// Extract returns the speakable text of a markdown document: headings,
// paragraphs and list items, one per line. Code, raw HTML, images and bare
// links are left out.
func Extract(source []byte) string {
	_, s := extract(source)
	return s
}

func extract(source []byte) (title, body string) {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var lines []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			var sb strings.Builder
			inline(&sb, n, source)
			line := strings.Join(strings.Fields(sb.String()), " ")
			if line == "" {
				return ast.WalkSkipChildren, nil
			}
			if h, ok := n.(*ast.Heading); ok && title == "" && h.Level <= 2 {
				title = line
			}
			lines = append(lines, line)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return title, strings.Join(lines, "\n")
}

func inline(sb *strings.Builder, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		case *ast.AutoLink, *ast.RawHTML, *ast.Image:
			// not spoken
		default:
			inline(sb, c, source)
		}
	}
}
