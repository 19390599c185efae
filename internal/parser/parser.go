package parser

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Engine tags stored on every chunk record.
const (
	EnginePDF      = "ledongthuc-pdf"
	EngineDOCX     = "docx"
	EngineXLSX     = "xlsx"
	EngineExcelize = "excelize"
	EngineMarkdown = "goldmark"
	EngineText     = "text"
)

// Table is one table found in a document, rendered as markdown pipe rows.
// Headerless tables carry only data rows so they can be appended to the
// table they continue.
type Table struct {
	Markdown  string
	HasHeader bool
	Caption   string
}

// ExtractedDocument is the raw content of one source file.
type ExtractedDocument struct {
	Engine string
	Text   string
	Tables []Table
}

var supported = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".xlsm": true,
	".md":   true,
	".txt":  true,
}

func Supported(filePath string) bool {
	return supported[strings.ToLower(filepath.Ext(filePath))]
}

// Extract reads text and tables out of the file at filePath.
func Extract(filePath string) (ExtractedDocument, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return parsePDF(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".xlsm":
		return parseXLSM(filePath)
	case ".md":
		return parseMarkdownFile(filePath)
	case ".txt":
		return parseText(filePath)
	default:
		return ExtractedDocument{}, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func parsePDF(filePath string) (ExtractedDocument, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return ExtractedDocument{}, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return ExtractedDocument{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return ExtractedDocument{}, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if t := strings.TrimSpace(pageText); t != "" {
			pages = append(pages, t)
		}
	}
	return ExtractedDocument{Engine: EnginePDF, Text: strings.Join(pages, "\n\n")}, nil
}

var (
	docxParagraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxTextRe      = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
)

func parseDOCX(filePath string) (ExtractedDocument, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range docxParagraphRe.FindAllString(content, -1) {
		if text := strings.TrimSpace(extractTextFromXML(p, docxTextRe)); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return ExtractedDocument{Engine: EngineDOCX, Text: strings.Join(paragraphs, "\n\n")}, nil
}

func extractTextFromXML(xmlContent string, re *regexp.Regexp) string {
	var text strings.Builder
	for _, m := range re.FindAllStringSubmatch(xmlContent, -1) {
		text.WriteString(html.UnescapeString(m[1]))
	}
	return text.String()
}

func parseXLSX(filePath string) (ExtractedDocument, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}

	doc := ExtractedDocument{Engine: EngineXLSX}
	for _, sheet := range f.Sheets {
		var rows [][]string
		for _, row := range sheet.Rows {
			if row == nil {
				continue
			}
			var cells []string
			for _, cell := range row.Cells {
				if cell == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		if table, ok := sheetTable(sheet.Name, rows); ok {
			doc.Tables = append(doc.Tables, table)
		}
	}
	return doc, nil
}

func parseXLSM(filePath string) (ExtractedDocument, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}
	defer f.Close()

	doc := ExtractedDocument{Engine: EngineExcelize}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return ExtractedDocument{}, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		if table, ok := sheetTable(sheetName, rows); ok {
			doc.Tables = append(doc.Tables, table)
		}
	}
	return doc, nil
}

func parseText(filePath string) (ExtractedDocument, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return ExtractedDocument{}, err
	}
	return ExtractedDocument{Engine: EngineText, Text: strings.TrimSpace(string(data))}, nil
}
