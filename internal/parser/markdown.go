package parser

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func parseMarkdownFile(filePath string) (ExtractedDocument, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}
	return ParseMarkdown(src), nil
}

// ParseMarkdown splits a markdown filing into prose and GFM tables. A
// paragraph starting with "tab" right after a table is taken as that
// table's caption.
func ParseMarkdown(src []byte) ExtractedDocument {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	doc := ExtractedDocument{Engine: EngineMarkdown}
	var texts []string
	prevTable := false
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if tbl, ok := n.(*east.Table); ok {
			doc.Tables = append(doc.Tables, markdownTable(tbl, src))
			prevTable = true
			continue
		}
		block := strings.TrimSpace(blockText(n, src))
		if block == "" {
			continue
		}
		if prevTable && strings.HasPrefix(strings.ToLower(block), "tab") {
			doc.Tables[len(doc.Tables)-1].Caption = block
			prevTable = false
			continue
		}
		prevTable = false
		texts = append(texts, block)
	}
	doc.Text = strings.Join(texts, "\n\n")
	return doc
}

func markdownTable(tbl *east.Table, src []byte) Table {
	var header []string
	var rows [][]string
	for r := tbl.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, inlineText(c, src))
		}
		if r.Kind() == east.KindTableHeader {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if emptyRow(header) {
		return Table{Markdown: renderTable(nil, rows)}
	}
	return Table{Markdown: renderTable(header, rows), HasHeader: true}
}

// blockText returns the source lines of leaf blocks and recurses into containers.
func blockText(n ast.Node, src []byte) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	if lines := n.Lines(); lines.Len() > 0 {
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimRight(buf.String(), "\n")
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := strings.TrimSpace(blockText(c, src)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
