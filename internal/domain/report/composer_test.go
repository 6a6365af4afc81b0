package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/batchdata"
	"github.com/stretchr/testify/require"
)

var testWindow = batch.Window{
	Index: 3,
	Start: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
}

type stubFetcher struct {
	data *batchdata.BatchData
	err  error
}

func (s stubFetcher) Fetch(context.Context, batch.Window) (*batchdata.BatchData, error) {
	return s.data, s.err
}

type stubApprovals struct {
	rec *approval.Record
	err error
}

func (s stubApprovals) Get(context.Context, batch.Key) (*approval.Record, error) {
	return s.rec, s.err
}

type stubFinder struct {
	window batch.Window
	err    error
}

func (s stubFinder) Find(context.Context, batch.Key) (batch.Window, error) {
	return s.window, s.err
}

type auditLog struct{ entries []*activity.ActivityEntry }

func (a *auditLog) Record(_ context.Context, e *activity.ActivityEntry) { a.entries = append(a.entries, e) }

func newTestComposer(t *testing.T, fetcher DataFetcher, approvals ApprovalReader, rowsPerPage int) *Composer {
	t.Helper()
	opts := DefaultOptions()
	opts.RowsPerPage = rowsPerPage
	c, err := NewComposer(fetcher, approvals, opts)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }
	c.newID = func() string { return "report-1" }
	return c
}

func fullData() *batchdata.BatchData {
	data := &batchdata.BatchData{
		Window:    testWindow,
		Available: batchdata.Availability{Security: true, Alarms: true, Trend: true},
	}
	for i := 0; i < 5; i++ {
		data.Security = append(data.Security, batchdata.SecurityEntry{
			Timestamp: testWindow.Start.Add(time.Duration(i) * time.Minute),
			Message:   fmt.Sprintf("event %d", i),
		})
	}
	recovered := testWindow.Start.Add(20 * time.Minute)
	data.Alarms = []batchdata.Alarm{
		{OccurredAt: testWindow.Start.Add(10 * time.Minute), RecoveredAt: &recovered, AlarmID: "A100"},
		{OccurredAt: testWindow.Start.Add(30 * time.Minute), AlarmID: "A200"},
	}
	for i := 0; i < 4; i++ {
		data.Trend = append(data.Trend, batchdata.TrendSample{
			Timestamp:   testWindow.Start.Add(time.Duration(i) * 15 * time.Minute),
			Value1:      100 + float64(i),
			Value2:      30,
			Value3:      8,
			ProcessCode: int64(i / 2),
		})
	}
	return data
}

func sectionIDs(tree *Tree) []string {
	ids := make([]string, len(tree.Sections))
	for i, s := range tree.Sections {
		ids[i] = s.ID
	}
	return ids
}

func TestNewComposer_RejectsZeroPageSize(t *testing.T) {
	_, err := NewComposer(nil, nil, Options{})
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestCompose_FullReport(t *testing.T) {
	approvedAt := testWindow.End.Add(time.Hour)
	rec := &approval.Record{
		BatchStart:  testWindow.Start,
		BatchEnd:    testWindow.End,
		RequestedBy: "operator",
		RequestedAt: testWindow.End,
		ApprovedAt:  &approvedAt,
		ApprovedBy:  "lead",
	}
	rec.Checklist[0] = approval.ChecklistItem{Checked: true, Reason: "valve retested"}

	c := newTestComposer(t, stubFetcher{data: fullData()}, stubApprovals{rec: rec}, 2)
	tree, err := c.Compose(context.Background(), testWindow)
	require.NoError(t, err)

	require.Equal(t, "report-1", tree.ID)
	require.Equal(t, testWindow, tree.Batch)
	require.Equal(t, []string{SectionSummary, SectionApproval, SectionAlarms, SectionSecurity, "trend-1", "trend-2", "trend-3"}, sectionIDs(tree))

	approvalFields := tree.Sections[1].Blocks[0].Fields
	require.Contains(t, approvalFields, Field{Label: "Status", Value: "approved"})
	require.Contains(t, approvalFields, Field{Label: "Check 1", Value: "Yes: valve retested"})
	require.Contains(t, approvalFields, Field{Label: "Check 2", Value: "No"})

	alarms := tree.Sections[2].Blocks[0].Table
	require.NotNil(t, alarms)
	require.Len(t, alarms.Rows, 2)
	require.False(t, alarms.Rows[0].Emphasis)
	require.True(t, alarms.Rows[1].Emphasis)
	require.Equal(t, "Not recovered", alarms.Rows[1].Cells[3])

	for _, s := range tree.Sections[4:] {
		require.True(t, s.PageBreakBefore)
		require.Len(t, s.Blocks, 1)
		require.Equal(t, KindImage, s.Blocks[0].Kind)
		require.Equal(t, "svg", s.Blocks[0].Image.Format)
		require.Contains(t, string(s.Blocks[0].Image.Data), "<polyline")
	}
}

func TestBuild_SecurityPaginationAndShading(t *testing.T) {
	c := newTestComposer(t, nil, nil, 2)
	tree, err := c.Build(Input{Window: testWindow, Data: fullData()})
	require.NoError(t, err)

	var security Section
	for _, s := range tree.Sections {
		if s.ID == SectionSecurity {
			security = s
		}
	}
	require.Len(t, security.Blocks, 3)

	var numbers []string
	var shading []bool
	for p, b := range security.Blocks {
		require.Equal(t, KindTable, b.Kind)
		require.Equal(t, p+1, b.Table.Page)
		require.Equal(t, 3, b.Table.PageCount)
		for _, r := range b.Table.Rows {
			numbers = append(numbers, r.Cells[0])
			shading = append(shading, r.Shaded)
		}
	}
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, numbers)
	require.Equal(t, []bool{false, true, false, true, false}, shading)
	require.Equal(t, "2024-01-01 08:01:00.000", security.Blocks[0].Table.Rows[1].Cells[1])
}

func TestBuild_EmptyInputsUsePlaceholders(t *testing.T) {
	c := newTestComposer(t, nil, nil, 10)
	tree, err := c.Build(Input{Window: testWindow, Data: &batchdata.BatchData{Window: testWindow}})
	require.NoError(t, err)

	require.Equal(t, []string{SectionSummary, SectionAlarms, SectionSecurity, "trend-1", "trend-2", "trend-3"}, sectionIDs(tree))
	require.Equal(t, Block{Kind: KindPlaceholder, Text: NoAlarmsText}, tree.Sections[1].Blocks[0])
	require.Equal(t, Block{Kind: KindPlaceholder, Text: NoSecurityEventsText}, tree.Sections[2].Blocks[0])
	for _, s := range tree.Sections[3:] {
		require.Equal(t, []Block{{Kind: KindPlaceholder, Text: RetentionExpiredText}}, s.Blocks)
	}

	var notes []string
	for _, b := range tree.Sections[0].Blocks[1:] {
		notes = append(notes, b.Text)
	}
	require.Equal(t, []string{"Security log not available.", "Alarm log not available.", "Trend log not available."}, notes)
}

func TestBuild_IsDeterministic(t *testing.T) {
	c := newTestComposer(t, nil, nil, 2)
	first, err := c.Build(Input{Window: testWindow, Data: fullData()})
	require.NoError(t, err)
	second, err := c.Build(Input{Window: testWindow, Data: fullData()})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCompose_Failures(t *testing.T) {
	boom := errors.New("store unreachable")

	c := newTestComposer(t, stubFetcher{err: boom}, nil, 10)
	_, err := c.Compose(context.Background(), testWindow)
	require.ErrorIs(t, err, boom)

	c = newTestComposer(t, stubFetcher{data: fullData()}, stubApprovals{err: boom}, 10)
	_, err = c.Compose(context.Background(), testWindow)
	require.ErrorIs(t, err, boom)

	c = newTestComposer(t, stubFetcher{data: fullData()}, stubApprovals{err: approval.ErrApprovalNotFound}, 10)
	tree, err := c.Compose(context.Background(), testWindow)
	require.NoError(t, err)
	require.NotContains(t, sectionIDs(tree), SectionApproval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Compose(ctx, testWindow)
	require.ErrorIs(t, err, context.Canceled)
}

func TestService_Generate(t *testing.T) {
	audit := &auditLog{}
	c := newTestComposer(t, stubFetcher{data: fullData()}, nil, 10)
	svc := NewService(stubFinder{window: testWindow}, c, audit, nil)

	tree, err := svc.Generate(context.Background(), testWindow.Key())
	require.NoError(t, err)
	require.Equal(t, "report-1", tree.ID)
	require.Len(t, audit.entries, 1)
	require.Equal(t, activity.TypeReportGenerated, audit.entries[0].ActivityType)
	require.Equal(t, "report-1", audit.entries[0].CorrelationID)
	require.Equal(t, "20240101080000000", audit.entries[0].BatchStart)
}

func TestService_Chart(t *testing.T) {
	c := newTestComposer(t, stubFetcher{data: fullData()}, nil, 10)
	svc := NewService(stubFinder{window: testWindow}, c, nil, nil)

	d, err := svc.Chart(context.Background(), testWindow.Key(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, d.Channel)
	require.Equal(t, "Pressure", d.Title)
	require.Equal(t, "kPa", d.Unit)
	require.Len(t, d.Polyline, 4)

	_, err = svc.Chart(context.Background(), testWindow.Key(), 3)
	require.ErrorIs(t, err, chart.ErrInvalidChannel)

	empty := newTestComposer(t, stubFetcher{data: &batchdata.BatchData{Window: testWindow}}, nil, 10)
	_, err = NewService(stubFinder{window: testWindow}, empty, nil, nil).Chart(context.Background(), testWindow.Key(), 0)
	require.ErrorIs(t, err, chart.ErrNoData)
}

func TestService_GenerateUnknownBatch(t *testing.T) {
	audit := &auditLog{}
	c := newTestComposer(t, stubFetcher{data: fullData()}, nil, 10)
	svc := NewService(stubFinder{err: batch.ErrBatchNotFound}, c, audit, nil)

	_, err := svc.Generate(context.Background(), testWindow.Key())
	require.ErrorIs(t, err, batch.ErrBatchNotFound)
	require.Empty(t, audit.entries)
}
