package memory

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Normalizer renders markdown as plain text for embedding.
// Chat replies are mostly markdown; embedding the markup itself
// ("**", "```", table pipes) skews similarity between otherwise equal texts.
type Normalizer struct {
	parser goldmark.Markdown
}

// NewNormalizer creates a markdown normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// PlainText returns the readable text of md with markup removed.
// Input without any readable text is returned trimmed but otherwise unchanged.
func (n *Normalizer) PlainText(md string) string {
	content := []byte(md)
	doc := n.parser.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote:
			newline()

		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}

		case *ast.String:
			b.Write(v.Value)

		case *ast.AutoLink:
			b.Write(v.URL(content))
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			newline()
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil

		default:
			kindName := node.Kind().String()
			if kindName == "TableRow" || kindName == "TableHeader" {
				newline()
				b.WriteString(tableRowText(node, content))
				b.WriteString("\n")
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})

	out := collapseBlankLines(b.String())
	if out == "" {
		return strings.TrimSpace(md)
	}
	return out
}

// tableRowText joins a row's cells with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(nodeText(c, content)))
	}
	return strings.Join(cells, " | ")
}

func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
