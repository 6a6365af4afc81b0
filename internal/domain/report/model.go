package report

import (
	"strconv"
	"time"

	"github.com/rpggio/batchreport/internal/domain/batch"
)

// BlockKind identifies the content of a block.
type BlockKind string

const (
	KindParagraph   BlockKind = "paragraph"
	KindFields      BlockKind = "fields"
	KindTable       BlockKind = "table"
	KindImage       BlockKind = "image"
	KindPlaceholder BlockKind = "placeholder"
)

// Field is a label/value pair.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row is one table row. Shaded alternates by row index parity; Emphasis marks
// rows that need attention, such as unrecovered alarms.
type Row struct {
	Cells    []string `json:"cells"`
	Shaded   bool     `json:"shaded"`
	Emphasis bool     `json:"emphasis,omitempty"`
}

// Table is one page of a tabular excerpt.
type Table struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	Page      int      `json:"page"`
	PageCount int      `json:"page_count"`
}

// Image is an embedded vector drawing.
type Image struct {
	Format  string  `json:"format"`
	Data    []byte  `json:"data"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Caption string  `json:"caption,omitempty"`
}

// Block is one piece of section content. Exactly one payload matches Kind.
type Block struct {
	Kind   BlockKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Fields []Field   `json:"fields,omitempty"`
	Table  *Table    `json:"table,omitempty"`
	Image  *Image    `json:"image,omitempty"`
}

// Section is a titled group of blocks. Renderers start a new page before a
// section with PageBreakBefore set.
type Section struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	PageBreakBefore bool    `json:"page_break_before"`
	Blocks          []Block `json:"blocks"`
}

// Tree is the ordered report of one batch, handed to a renderer by value.
type Tree struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Batch       batch.Window `json:"batch"`
	GeneratedAt time.Time    `json:"generated_at"`
	Sections    []Section    `json:"sections"`
}

// Section IDs in composition order.
const (
	SectionSummary  = "summary"
	SectionApproval = "approval"
	SectionAlarms   = "alarms"
	SectionSecurity = "security"
)

// ChartSectionID returns the section ID of a trend channel.
func ChartSectionID(channel int) string {
	return "trend-" + strconv.Itoa(channel+1)
}
