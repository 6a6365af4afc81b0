package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rpggio/batchreport/internal/domain/report"
)

// JSON writes the tree as indented JSON.
type JSON struct{}

func (JSON) ContentType() string { return "application/json" }
func (JSON) Extension() string   { return "json" }

func (JSON) Render(w io.Writer, tree report.Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
