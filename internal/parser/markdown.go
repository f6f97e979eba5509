package parser

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings and each
// leaf block's lines are emitted in document order on a single page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(ctx context.Context, path string) ([]document.Page, error) {
	return parseFile(path, p.parse)
}

func (p *MarkdownParser) parse(r io.Reader) ([]document.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	page := document.Page{Number: 1}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		page.Lines = append(page.Lines, blockLines(n, src)...)
	}
	return []document.Page{page}, nil
}

func blockLines(n ast.Node, src []byte) []string {
	switch n.Kind() {
	case ast.KindList, ast.KindListItem, ast.KindBlockquote:
		var out []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, blockLines(c, src)...)
		}
		return out
	case ast.KindThematicBreak, ast.KindHTMLBlock:
		return nil
	}
	var out []string
	for _, l := range document.SplitLines(extractText(n, src)) {
		if strings.TrimSpace(l) != "" {
			out = append(out, normalizeLine(l))
		}
	}
	return out
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
