// Package chart turns trend samples into scaled drawing instructions for one
// channel: gridlines, process phase boundaries, time ticks and a polyline.
package chart

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Channels is the number of numeric trend channels.
const Channels = 3

// TickInterval is the spacing of X-axis ticks.
const TickInterval = 10 * time.Minute

// Upper bounds on gridlines and ticks. Past them the spacing is widened in
// whole multiples of the base step or interval.
const (
	MaxGridlines = 50
	MaxTicks     = 48
)

// minSpan keeps single-sample and zero-duration series from dividing by zero.
const minSpan = time.Second

var (
	// ErrNoData signals an empty series. Callers render a placeholder.
	ErrNoData = errors.New("no trend data")
	// ErrInvalidChannel indicates a channel outside 0..Channels-1.
	ErrInvalidChannel = errors.New("invalid chart channel")
)

// gridSteps and scales are per channel. Channel 2 is plotted halved.
var (
	gridSteps = [Channels]float64{50, 10, 5}
	scales    = [Channels]float64{1, 1, 0.5}
)

// Sample is one trend reading.
type Sample struct {
	Time        time.Time
	Values      [Channels]float64
	ProcessCode int64
}

// Margins reserve room around the plot area for labels.
type Margins struct {
	Left, Right, Top, Bottom float64
}

// Options controls drawing size and labels.
type Options struct {
	Width     float64
	Height    float64
	Margins   Margins
	Title     string
	Unit      string
	LineColor string
}

// DefaultOptions returns a landscape page-width chart.
func DefaultOptions() Options {
	return Options{
		Width:     960,
		Height:    400,
		Margins:   Margins{Left: 60, Right: 20, Top: 36, Bottom: 40},
		LineColor: "#1565C0",
	}
}

// Point is a coordinate in drawing space, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in drawing space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Gridline is a horizontal line at a channel value.
type Gridline struct {
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Boundary is a vertical line where the process code changes.
type Boundary struct {
	X     float64   `json:"x"`
	At    time.Time `json:"at"`
	Code  int64     `json:"code"`
	Style Style     `json:"style"`
}

// Tick is an X-axis mark on a 10-minute boundary.
type Tick struct {
	X     float64   `json:"x"`
	At    time.Time `json:"at"`
	Label string    `json:"label"`
}

// Drawing is the computed geometry of one channel chart.
type Drawing struct {
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Plot       Rect          `json:"plot"`
	Channel    int           `json:"channel"`
	Title      string        `json:"title,omitempty"`
	Unit       string        `json:"unit,omitempty"`
	LineColor  string        `json:"line_color"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	YMax       float64       `json:"y_max"`
	GridStep   float64       `json:"grid_step"`
	TickEvery  time.Duration `json:"tick_every"`
	Gridlines  []Gridline    `json:"gridlines"`
	Boundaries []Boundary    `json:"boundaries"`
	Ticks      []Tick        `json:"ticks"`
	Polyline   []Point       `json:"polyline"`
}

// Compute builds the drawing of one channel. Samples must be ordered by time.
// Samples whose channel value is NaN or infinite are left out.
func Compute(samples []Sample, channel int, opts Options) (*Drawing, error) {
	if channel < 0 || channel >= Channels {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	samples = finiteSamples(samples, channel)
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	opts = withDefaults(opts)

	plot := Rect{
		X: opts.Margins.Left,
		Y: opts.Margins.Top,
		W: math.Max(opts.Width-opts.Margins.Left-opts.Margins.Right, 1),
		H: math.Max(opts.Height-opts.Margins.Top-opts.Margins.Bottom, 1),
	}

	values := make([]float64, len(samples))
	maxValue := 0.0
	for i, s := range samples {
		v := math.Max(s.Values[channel]*scales[channel], 0)
		values[i] = v
		maxValue = math.Max(maxValue, v)
	}

	yMax := 1.1 * maxValue
	if math.IsInf(yMax, 1) {
		yMax = math.MaxFloat64
	}
	if yMax <= 0 {
		yMax = gridSteps[channel]
	}
	step := coarsen(gridSteps[channel], yMax/gridSteps[channel], MaxGridlines)

	start := samples[0].Time
	end := samples[len(samples)-1].Time
	span := end.Sub(start)
	if span < minSpan {
		span = minSpan
	}

	xOf := func(t time.Time) float64 {
		return plot.X + float64(t.Sub(start))/float64(span)*plot.W
	}
	yOf := func(v float64) float64 {
		return plot.Y + plot.H - v/yMax*plot.H
	}

	d := &Drawing{
		Width:     opts.Width,
		Height:    opts.Height,
		Plot:      plot,
		Channel:   channel,
		Title:     opts.Title,
		Unit:      opts.Unit,
		LineColor: opts.LineColor,
		Start:     start,
		End:       start.Add(span),
		YMax:      yMax,
		GridStep:  step,
		TickEvery: time.Duration(coarsen(float64(TickInterval), float64(span)/float64(TickInterval), MaxTicks)),
	}

	for k := 0; k <= MaxGridlines; k++ {
		v := float64(k) * step
		if v > yMax {
			break
		}
		d.Gridlines = append(d.Gridlines, Gridline{Y: yOf(v), Value: v})
	}

	for i := 1; i < len(samples); i++ {
		if samples[i].ProcessCode == samples[i-1].ProcessCode {
			continue
		}
		d.Boundaries = append(d.Boundaries, Boundary{
			X:     xOf(samples[i].Time),
			At:    samples[i].Time,
			Code:  samples[i].ProcessCode,
			Style: StyleFor(samples[i].ProcessCode),
		})
	}

	for t := firstTick(start); !t.After(d.End) && len(d.Ticks) <= MaxTicks; t = t.Add(d.TickEvery) {
		d.Ticks = append(d.Ticks, Tick{X: xOf(t), At: t, Label: t.Format("15:04")})
	}

	d.Polyline = make([]Point, len(samples))
	for i, s := range samples {
		d.Polyline[i] = Point{X: xOf(s.Time), Y: yOf(values[i])}
	}

	return d, nil
}

// coarsen widens base to a whole multiple of itself so that count/multiple
// stays within limit.
func coarsen(base, count float64, limit int) float64 {
	if count <= float64(limit) {
		return base
	}
	return base * math.Ceil(count/float64(limit))
}

func finiteSamples(samples []Sample, channel int) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if v := s.Values[channel]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, s)
		}
	}
	return out
}

// firstTick returns the first wall-clock 10-minute boundary at or after t.
func firstTick(t time.Time) time.Time {
	minute := t.Minute() / 10 * 10
	tick := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
	if tick.Before(t) {
		tick = tick.Add(TickInterval)
	}
	return tick
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Margins == (Margins{}) {
		opts.Margins = def.Margins
	}
	if opts.LineColor == "" {
		opts.LineColor = def.LineColor
	}
	return opts
}
