// ABOUTME: Markdown extraction using the goldmark parser
// ABOUTME: Renders the AST to plain text, one blank line between blocks, markup dropped
package loader

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles .md and .markdown files
type MarkdownExtractor struct{}

func (MarkdownExtractor) Extract(data []byte) (string, error) {
	src, err := TextExtractor{}.Extract(data)
	if err != nil {
		return "", err
	}
	source := []byte(src)

	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.HardLineBreak() || node.SoftLineBreak() {
					b.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
			return ast.WalkContinue, nil
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
			}
		}

		if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			endBlock(&b)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(b.String()), nil
}
