// Package markdown extracts fenced code blocks from model responses.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is one fenced code block.
type CodeBlock struct {
	Language string
	Code     string
}

var md = goldmark.New()

// CodeBlocks returns the fenced code blocks of s in document order.
func CodeBlocks(s string) []CodeBlock {
	source := []byte(s)
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []CodeBlock
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		blocks = append(blocks, CodeBlock{
			Language: string(fenced.Language(source)),
			Code:     buf.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// CodeOnly joins the code of every fenced block. Text without fenced blocks
// is returned unchanged, since the Coder is asked for bare code.
func CodeOnly(s string) string {
	blocks := CodeBlocks(s)
	if len(blocks) == 0 {
		return s
	}

	codes := make([]string, 0, len(blocks))
	for _, b := range blocks {
		codes = append(codes, strings.TrimRight(b.Code, "\n"))
	}
	return strings.Join(codes, "\n\n")
}
