package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/rpggio/batchreport/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// XLSX writes one worksheet per section. Tables keep their shading and
// emphasis; charts are listed by caption.
type XLSX struct{}

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSX) Extension() string { return "xlsx" }

type xlsxStyles struct {
	title, header, shaded, emphasis, shadedEmphasis, note int
}

func (XLSX) Render(w io.Writer, tree report.Tree) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	used := map[string]bool{}
	for i, s := range tree.Sections {
		name := sheetName(s.Title, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, tree, s, styles); err != nil {
			return fmt.Errorf("writing sheet %q: %w", name, err)
		}
	}
	if len(tree.Sections) > 0 {
		f.SetActiveSheet(0)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	shadedFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F5F5F5"}}
	emphasisFont := &excelize.Font{Bold: true, Color: "#C62828"}
	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 14}},
		{Font: &excelize.Font{Bold: true}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}}},
		{Fill: shadedFill},
		{Font: emphasisFont},
		{Font: emphasisFont, Fill: shadedFill},
		{Font: &excelize.Font{Italic: true, Color: "#757575"}},
	}
	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return xlsxStyles{}, fmt.Errorf("creating style: %w", err)
		}
		ids[i] = id
	}
	return xlsxStyles{ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]}, nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (sw *sheetWriter) set(col int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, sw.row)
	if err != nil {
		return err
	}
	if err := sw.f.SetCellValue(sw.sheet, cell, value); err != nil {
		return err
	}
	if style != 0 {
		return sw.f.SetCellStyle(sw.sheet, cell, cell, style)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, tree report.Tree, s report.Section, st xlsxStyles) error {
	sw := &sheetWriter{f: f, sheet: name, row: 1}
	if err := sw.set(1, tree.Title+": "+s.Title, st.title); err != nil {
		return err
	}
	sw.row += 2

	for _, b := range s.Blocks {
		if err := writeXLSXBlock(sw, b, st); err != nil {
			return err
		}
		sw.row++
	}
	return f.SetColWidth(name, "A", "A", 18)
}

func writeXLSXBlock(sw *sheetWriter, b report.Block, st xlsxStyles) error {
	switch b.Kind {
	case report.KindParagraph:
		return sw.nextLine(b.Text, 0)
	case report.KindPlaceholder:
		return sw.nextLine(b.Text, st.note)
	case report.KindImage:
		return sw.nextLine(b.Image.Caption, st.note)
	case report.KindFields:
		for _, field := range b.Fields {
			if err := sw.set(1, field.Label, st.header); err != nil {
				return err
			}
			if err := sw.set(2, field.Value, 0); err != nil {
				return err
			}
			sw.row++
		}
	case report.KindTable:
		t := b.Table
		if t.PageCount > 1 {
			if err := sw.nextLine(fmt.Sprintf("Page %d of %d", t.Page, t.PageCount), st.note); err != nil {
				return err
			}
		}
		for c, col := range t.Columns {
			if err := sw.set(c+1, col, st.header); err != nil {
				return err
			}
		}
		sw.row++
		for _, r := range t.Rows {
			style := rowStyle(r, st)
			for c, cell := range r.Cells {
				if err := sw.set(c+1, cell, style); err != nil {
					return err
				}
			}
			sw.row++
		}
	}
	return nil
}

func (sw *sheetWriter) nextLine(text string, style int) error {
	if err := sw.set(1, text, style); err != nil {
		return err
	}
	sw.row++
	return nil
}

func rowStyle(r report.Row, st xlsxStyles) int {
	switch {
	case r.Shaded && r.Emphasis:
		return st.shadedEmphasis
	case r.Emphasis:
		return st.emphasis
	case r.Shaded:
		return st.shaded
	}
	return 0
}

// sheetName strips characters Excel rejects, truncates to the length limit
// and keeps names unique within a workbook.
func sheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Section"
	}
	base := truncateRunes(name, maxSheetName)
	name = base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
