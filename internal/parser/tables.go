package parser

import (
	"strconv"
	"strings"
)

// StitchTables merges tables split across pages. A table with a header
// absorbs every headerless table directly following it; a headerless table
// with nothing to attach to stays on its own. A header table's caption is
// appended right after its own rows.
func StitchTables(tables []Table) []string {
	var out []string
	for i := 0; i < len(tables); {
		t := tables[i]
		i++
		if !t.HasHeader {
			out = append(out, t.Markdown)
			continue
		}
		tab := t.Markdown
		if t.Caption != "" {
			tab = tab + "\n" + t.Caption
		}
		for i < len(tables) && !tables[i].HasHeader {
			tab = tab + "\n" + tables[i].Markdown
			i++
		}
		out = append(out, tab)
	}
	return out
}

// sheetTable turns spreadsheet rows into a table. Empty rows are dropped;
// a sheet with no data yields ok=false.
func sheetTable(name string, rows [][]string) (Table, bool) {
	var kept [][]string
	for _, row := range rows {
		if !emptyRow(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return Table{}, false
	}
	if isHeaderRow(kept[0]) {
		return Table{
			Markdown:  renderTable(kept[0], kept[1:]),
			HasHeader: true,
			Caption:   "Table: " + name,
		}, true
	}
	return Table{Markdown: renderTable(nil, kept)}, true
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// isHeaderRow reports whether every cell holds a non-numeric label.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c == "" || isNumeric(c) {
			return false
		}
	}
	return true
}

var numberCleaner = strings.NewReplacer(",", "", "$", "", "%", "", "(", "", ")", "", " ", "")

func isNumeric(s string) bool {
	s = numberCleaner.Replace(s)
	if s == "" || s == "-" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// renderTable writes a markdown pipe table. Without a header only the data
// rows are written.
func renderTable(header []string, rows [][]string) string {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for j := 0; j < width; j++ {
			cell := ""
			if j < len(cells) {
				cell = strings.ReplaceAll(strings.TrimSpace(cells[j]), "\n", " ")
			}
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	if header != nil {
		writeRow(header)
		sb.WriteString("|")
		for j := 0; j < width; j++ {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
	}
	for _, r := range rows {
		writeRow(r)
	}
	return strings.TrimRight(sb.String(), "\n")
}
