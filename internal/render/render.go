// Package render turns a report tree into a document. Renderers draw exactly
// the sections and blocks they are given, in order, and add nothing.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rpggio/batchreport/internal/domain/report"
)

// ErrUnknownFormat is returned for a format name with no renderer.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer writes one report tree to w.
type Renderer interface {
	Render(w io.Writer, tree report.Tree) error
	ContentType() string
	Extension() string
}

// Format names.
const (
	FormatHTML = "html"
	FormatXLSX = "xlsx"
	FormatText = "text"
	FormatJSON = "json"
)

var renderers = map[string]Renderer{
	FormatHTML: HTML{},
	FormatXLSX: XLSX{},
	FormatText: Text{},
	FormatJSON: JSON{},
}

// ForFormat returns the renderer of a format name. The empty name selects HTML.
func ForFormat(name string) (Renderer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = FormatHTML
	}
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return r, nil
}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filename suggests an output file name for a tree.
func Filename(tree report.Tree, r Renderer) string {
	key := tree.Batch.Key()
	return fmt.Sprintf("batch_%s.%s", key.String(), r.Extension())
}
