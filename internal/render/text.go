package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rpggio/batchreport/internal/domain/report"
)

// Text writes a plain text report. Images are replaced by their caption and
// page breaks by a form feed.
type Text struct{}

func (Text) ContentType() string { return "text/plain; charset=utf-8" }
func (Text) Extension() string   { return "txt" }

func (Text) Render(w io.Writer, tree report.Tree) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n%s\n\n", tree.Title, strings.Repeat("=", len(tree.Title)))
	for i, s := range tree.Sections {
		if s.PageBreakBefore && i > 0 {
			if err := tw.Flush(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\f\n"); err != nil {
				return err
			}
		}
		fmt.Fprintf(tw, "%s\n%s\n", s.Title, strings.Repeat("-", len(s.Title)))
		for _, b := range s.Blocks {
			writeTextBlock(tw, b)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func writeTextBlock(w io.Writer, b report.Block) {
	switch b.Kind {
	case report.KindParagraph:
		fmt.Fprintln(w, b.Text)
	case report.KindPlaceholder:
		fmt.Fprintf(w, "[%s]\n", b.Text)
	case report.KindFields:
		for _, f := range b.Fields {
			fmt.Fprintf(w, "%s:\t%s\n", f.Label, f.Value)
		}
	case report.KindTable:
		t := b.Table
		if t.PageCount > 1 {
			fmt.Fprintf(w, "Page %d of %d\n", t.Page, t.PageCount)
		}
		fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
		for _, r := range t.Rows {
			line := strings.Join(r.Cells, "\t")
			if r.Emphasis {
				line += "\t!"
			}
			fmt.Fprintln(w, line)
		}
	case report.KindImage:
		fmt.Fprintf(w, "(chart: %s)\n", b.Image.Caption)
	}
}
