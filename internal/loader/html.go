// ABOUTME: HTML extraction using golang.org/x/net/html
// ABOUTME: Keeps visible body text, one paragraph per block element
package loader

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var skipElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "nav": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true, "br": true,
	"hr": true, "figure": true, "figcaption": true,
}

// HTMLExtractor handles .html and .htm files
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		block := false
		switch n.Type {
		case html.TextNode:
			writeWords(&b, n.Data)
			return
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				block = true
				endBlock(&b)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			endBlock(&b)
		}
	}
	walk(doc)

	return tidyBlocks(b.String()), nil
}

// writeWords appends text with its whitespace collapsed to single spaces
func writeWords(b *strings.Builder, s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" && !endsWithSpace(b) {
			b.WriteByte(' ')
		}
		return
	}
	if startsWithSpace(s) && !endsWithSpace(b) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(words, " "))
	if endsWithSpaceString(s) {
		b.WriteByte(' ')
	}
}

func startsWithSpace(s string) bool {
	return len(s) > 0 && strings.TrimLeft(s[:1], " \t\r\n\f") == ""
}

func endsWithSpaceString(s string) bool {
	return len(s) > 0 && strings.TrimRight(s[len(s)-1:], " \t\r\n\f") == ""
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s == "" || endsWithSpaceString(s)
}
