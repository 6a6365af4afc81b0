package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG renders the drawing as a standalone SVG document. Coordinates are
// rounded to whole pixels.
func (d *Drawing) WriteSVG(w io.Writer) error {
	cw := &errWriter{w: w}
	canvas := svg.New(cw)
	canvas.Start(px(d.Width), px(d.Height))
	if d.Title != "" {
		canvas.Title(d.Title)
	}
	canvas.Rect(0, 0, px(d.Width), px(d.Height), "fill:#FFFFFF")

	for _, g := range d.Gridlines {
		canvas.Line(px(d.Plot.X), px(g.Y), px(d.Plot.X+d.Plot.W), px(g.Y), "stroke:#E0E0E0;stroke-width:1")
		canvas.Text(px(d.Plot.X)-6, px(g.Y)+4, formatValue(g.Value), "font-size:11px;text-anchor:end;fill:#616161")
	}

	for _, b := range d.Boundaries {
		style := fmt.Sprintf("stroke:%s;stroke-width:2;stroke-dasharray:4,3", b.Style.Color)
		canvas.Line(px(b.X), px(d.Plot.Y), px(b.X), px(d.Plot.Y+d.Plot.H), style)
		canvas.Text(px(b.X)+3, px(d.Plot.Y)+10, b.Style.Label, fmt.Sprintf("font-size:10px;fill:%s", b.Style.Color))
	}

	bottom := px(d.Plot.Y + d.Plot.H)
	canvas.Line(px(d.Plot.X), bottom, px(d.Plot.X+d.Plot.W), bottom, "stroke:#424242;stroke-width:1")
	canvas.Line(px(d.Plot.X), px(d.Plot.Y), px(d.Plot.X), bottom, "stroke:#424242;stroke-width:1")
	for _, t := range d.Ticks {
		canvas.Line(px(t.X), bottom, px(t.X), bottom+5, "stroke:#424242;stroke-width:1")
		canvas.Text(px(t.X), bottom+18, t.Label, "font-size:11px;text-anchor:middle;fill:#616161")
	}

	xs := make([]int, len(d.Polyline))
	ys := make([]int, len(d.Polyline))
	for i, p := range d.Polyline {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	lineStyle := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", d.LineColor)
	canvas.Polyline(xs, ys, lineStyle)
	if len(xs) == 1 {
		canvas.Circle(xs[0], ys[0], 2, "fill:"+d.LineColor)
	}

	if d.Title != "" {
		label := d.Title
		if d.Unit != "" {
			label += " (" + d.Unit + ")"
		}
		canvas.Text(px(d.Plot.X), px(d.Plot.Y)-12, label, "font-size:14px;font-weight:bold;fill:#212121")
	}

	canvas.End()
	return cw.err
}

// SVG returns the rendered document.
func (d *Drawing) SVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteSVG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func px(v float64) int {
	return int(math.Round(v))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// errWriter keeps the first write error, since svgo does not report
// errors.
type errWriter struct {
	w   io.Writer
	err error
}

func (c *errWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	if err != nil {
		c.err = err
	}
	return n, err
}
