package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/batchdata"
)

// Placeholder texts rendered in place of missing content.
const (
	NoAlarmsText         = "No alarms"
	NoSecurityEventsText = "No security events"
	RetentionExpiredText = "Data retention expired"
)

// DefaultRowsPerPage is the security table page size.
const DefaultRowsPerPage = 40

// Channel describes one trend channel for chart titles.
type Channel struct {
	Name string
	Unit string
}

// Options controls composition.
type Options struct {
	Title       string
	RowsPerPage int
	Channels    [chart.Channels]Channel
	Chart       chart.Options
}

// DefaultOptions returns the standard batch report layout.
func DefaultOptions() Options {
	return Options{
		Title:       "Batch Report",
		RowsPerPage: DefaultRowsPerPage,
		Channels: [chart.Channels]Channel{
			{Name: "Temperature", Unit: "°C"},
			{Name: "Pressure", Unit: "kPa"},
			{Name: "Concentration", Unit: "mg/L"},
		},
		Chart: chart.DefaultOptions(),
	}
}

// Input is everything a report is built from.
type Input struct {
	Window   batch.Window
	Data     *batchdata.BatchData
	Approval *approval.Record
}

// Composer assembles report trees. It reads through its collaborators and
// never touches a store directly.
type Composer struct {
	data      DataFetcher
	approvals ApprovalReader
	opts      Options
	now       func() time.Time
	newID     func() string
}

// NewComposer creates a composer. approvals may be nil.
func NewComposer(data DataFetcher, approvals ApprovalReader, opts Options) (*Composer, error) {
	if opts.RowsPerPage <= 0 {
		return nil, fmt.Errorf("%w: rows per page must be positive", ErrInvalidOptions)
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}
	return &Composer{
		data:      data,
		approvals: approvals,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Compose fetches the batch's data and approval and builds its report. A
// canceled context discards the partial result.
func (c *Composer) Compose(ctx context.Context, w batch.Window) (*Tree, error) {
	data, err := c.data.Fetch(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("fetching batch data: %w", err)
	}

	var rec *approval.Record
	if c.approvals != nil {
		rec, err = c.approvals.Get(ctx, w.Key())
		if err != nil && !errors.Is(err, approval.ErrApprovalNotFound) {
			return nil, fmt.Errorf("reading approval: %w", err)
		}
	}

	tree, err := c.Build(Input{Window: w, Data: data, Approval: rec})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tree, nil
}

// Build assembles the tree from already fetched inputs. Section order is
// summary, approval (if any), alarms, security log, then one page-broken
// chart section per trend channel.
func (c *Composer) Build(in Input) (*Tree, error) {
	data := in.Data
	if data == nil {
		data = &batchdata.BatchData{Window: in.Window}
	}

	tree := &Tree{
		ID:          c.newID(),
		Title:       c.opts.Title,
		Batch:       in.Window,
		GeneratedAt: c.now(),
	}

	tree.Sections = append(tree.Sections, summarySection(in.Window, data))
	if in.Approval != nil {
		tree.Sections = append(tree.Sections, approvalSection(in.Approval))
	}
	tree.Sections = append(tree.Sections, alarmSection(data))
	tree.Sections = append(tree.Sections, c.securitySection(data))

	samples := ChartSamples(data.Trend)
	for ch := 0; ch < chart.Channels; ch++ {
		section, err := c.chartSection(samples, ch)
		if err != nil {
			return nil, err
		}
		tree.Sections = append(tree.Sections, section)
	}
	return tree, nil
}

func summarySection(w batch.Window, data *batchdata.BatchData) Section {
	fields := []Field{
		{Label: "Batch", Value: strconv.Itoa(w.Index)},
		{Label: "Start", Value: formatTime(w.Start)},
		{Label: "End", Value: formatTime(w.End)},
		{Label: "Duration", Value: w.Duration().Round(time.Second).String()},
		{Label: "Security events", Value: strconv.Itoa(len(data.Security))},
		{Label: "Alarms", Value: strconv.Itoa(len(data.Alarms))},
		{Label: "Trend samples", Value: strconv.Itoa(len(data.Trend))},
	}
	blocks := []Block{{Kind: KindFields, Fields: fields}}

	for _, missing := range []struct {
		available bool
		name      string
	}{
		{data.Available.Security, "Security log"},
		{data.Available.Alarms, "Alarm log"},
		{data.Available.Trend, "Trend log"},
	} {
		if !missing.available {
			blocks = append(blocks, Block{Kind: KindParagraph, Text: missing.name + " not available."})
		}
	}
	return Section{ID: SectionSummary, Title: "Summary", Blocks: blocks}
}

func approvalSection(rec *approval.Record) Section {
	fields := []Field{
		{Label: "Status", Value: string(rec.State())},
		{Label: "Requested by", Value: rec.RequestedBy},
		{Label: "Requested at", Value: formatTime(rec.RequestedAt)},
	}
	if rec.ApprovedAt != nil {
		fields = append(fields,
			Field{Label: "Approved by", Value: rec.ApprovedBy},
			Field{Label: "Approved at", Value: formatTime(*rec.ApprovedAt)},
		)
	}
	for i, item := range rec.Checklist {
		value := "No"
		if item.Checked {
			value = "Yes: " + item.Reason
		}
		fields = append(fields, Field{Label: fmt.Sprintf("Check %d", i+1), Value: value})
	}
	return Section{ID: SectionApproval, Title: "Approval", Blocks: []Block{{Kind: KindFields, Fields: fields}}}
}

func alarmSection(data *batchdata.BatchData) Section {
	section := Section{ID: SectionAlarms, Title: "Alarms"}
	if len(data.Alarms) == 0 {
		section.Blocks = []Block{{Kind: KindPlaceholder, Text: NoAlarmsText}}
		return section
	}

	table := &Table{Columns: []string{"No.", "Alarm", "Occurred", "Recovered"}, Page: 1, PageCount: 1}
	for i, a := range data.Alarms {
		recovered := "Not recovered"
		if a.RecoveredAt != nil {
			recovered = formatTime(*a.RecoveredAt)
		}
		table.Rows = append(table.Rows, Row{
			Cells:    []string{strconv.Itoa(i + 1), a.AlarmID, formatTime(a.OccurredAt), recovered},
			Shaded:   i%2 == 1,
			Emphasis: !a.Recovered(),
		})
	}
	section.Blocks = []Block{{Kind: KindTable, Table: table}}
	return section
}

func (c *Composer) securitySection(data *batchdata.BatchData) Section {
	section := Section{ID: SectionSecurity, Title: "Security Log", PageBreakBefore: true}
	if len(data.Security) == 0 {
		section.Blocks = []Block{{Kind: KindPlaceholder, Text: NoSecurityEventsText}}
		return section
	}

	columns := []string{"No.", "Time", "Message"}
	per := c.opts.RowsPerPage
	pages := (len(data.Security) + per - 1) / per
	for p := 0; p < pages; p++ {
		table := &Table{Columns: columns, Page: p + 1, PageCount: pages}
		lo, hi := p*per, min((p+1)*per, len(data.Security))
		for i := lo; i < hi; i++ {
			e := data.Security[i]
			table.Rows = append(table.Rows, Row{
				Cells:  []string{strconv.Itoa(i + 1), formatTime(e.Timestamp), e.Message},
				Shaded: i%2 == 1,
			})
		}
		section.Blocks = append(section.Blocks, Block{Kind: KindTable, Table: table})
	}
	return section
}

func (c *Composer) chartSection(samples []chart.Sample, channel int) (Section, error) {
	info := c.opts.Channels[channel]
	title := "Trend: " + info.Name
	section := Section{ID: ChartSectionID(channel), Title: title, PageBreakBefore: true}

	d, err := chart.Compute(samples, channel, c.chartOptions(channel))
	if errors.Is(err, chart.ErrNoData) {
		section.Blocks = []Block{{Kind: KindPlaceholder, Text: RetentionExpiredText}}
		return section, nil
	}
	if err != nil {
		return Section{}, fmt.Errorf("computing chart %d: %w", channel, err)
	}

	svg, err := d.SVG()
	if err != nil {
		return Section{}, fmt.Errorf("rendering chart %d: %w", channel, err)
	}
	section.Blocks = []Block{{
		Kind: KindImage,
		Image: &Image{
			Format:  "svg",
			Data:    svg,
			Width:   d.Width,
			Height:  d.Height,
			Caption: fmt.Sprintf("%s (%s), %s to %s", info.Name, info.Unit, formatTime(d.Start), formatTime(d.End)),
		},
	}}
	return section, nil
}

// Chart fetches the trend of a window and computes one channel's drawing.
// An empty trend yields chart.ErrNoData.
func (c *Composer) Chart(ctx context.Context, w batch.Window, channel int) (*chart.Drawing, error) {
	if channel < 0 || channel >= chart.Channels {
		return nil, fmt.Errorf("%w: %d", chart.ErrInvalidChannel, channel)
	}
	data, err := c.data.Fetch(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("fetching batch data: %w", err)
	}
	return chart.Compute(ChartSamples(data.Trend), channel, c.chartOptions(channel))
}

func (c *Composer) chartOptions(channel int) chart.Options {
	opts := c.opts.Chart
	opts.Title = c.opts.Channels[channel].Name
	opts.Unit = c.opts.Channels[channel].Unit
	return opts
}

// ChartSamples converts trend rows into chart samples.
func ChartSamples(trend []batchdata.TrendSample) []chart.Sample {
	out := make([]chart.Sample, len(trend))
	for i, s := range trend {
		out[i] = chart.Sample{
			Time:        s.Timestamp,
			Values:      [chart.Channels]float64{s.Value1, s.Value2, s.Value3},
			ProcessCode: s.ProcessCode,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.Format(batch.DisplayLayout)
}
