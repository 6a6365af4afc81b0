package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/report"
	"github.com/rpggio/batchreport/internal/timecodec"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	win1 = batch.Window{Index: 1, Start: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 9, 0, 0, 500e6, time.UTC)}
	win2 = batch.Window{Index: 2, Start: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC)}
)

const win1Path = "/api/batches/20240301080000000/20240301090000500"

type batchStub struct {
	windows []batch.Window
	err     error
}

func (b *batchStub) List(context.Context) ([]batch.Window, error) { return b.windows, b.err }

func (b *batchStub) Find(_ context.Context, key batch.Key) (batch.Window, error) {
	for _, w := range b.windows {
		if w.Start.Equal(key.Start) && w.End.Equal(key.End) {
			return w, nil
		}
	}
	return batch.Window{}, batch.ErrBatchNotFound
}

type approvalStub struct {
	records    map[string]*approval.Record
	requestErr error
	requests   []approval.RequestInput
	approvers  []string
}

func (a *approvalStub) Request(_ context.Context, in approval.RequestInput) (*approval.Record, error) {
	a.requests = append(a.requests, in)
	if a.requestErr != nil {
		return nil, a.requestErr
	}
	rec := &approval.Record{BatchStart: in.Batch.Start, BatchEnd: in.Batch.End, RequestedBy: in.RequestedBy, Checklist: in.Checklist}
	a.records[in.Batch.String()] = rec
	return rec, nil
}

func (a *approvalStub) Approve(_ context.Context, key batch.Key, approver string, at time.Time) (approval.Outcome, error) {
	a.approvers = append(a.approvers, approver)
	rec, ok := a.records[key.String()]
	if !ok || rec.ApprovedAt != nil {
		return approval.OutcomeNothingToApprove, nil
	}
	now := time.Now()
	rec.ApprovedAt = &now
	rec.ApprovedBy = approver
	return approval.OutcomeApproved, nil
}

func (a *approvalStub) Get(_ context.Context, key batch.Key) (*approval.Record, error) {
	if rec, ok := a.records[key.String()]; ok {
		return rec, nil
	}
	return nil, approval.ErrApprovalNotFound
}

func (a *approvalStub) Statuses(_ context.Context, windows []batch.Window) ([]approval.WindowStatus, error) {
	out := make([]approval.WindowStatus, len(windows))
	for i, w := range windows {
		out[i].Window = w
		if rec, ok := a.records[w.Key().String()]; ok {
			out[i].Requested = true
			out[i].Approved = rec.ApprovedAt != nil
		}
	}
	return out, nil
}

type reportStub struct {
	generated int
	channels  []int
	chartErr  error
}

func (r *reportStub) Generate(_ context.Context, key batch.Key) (*report.Tree, error) {
	r.generated++
	return &report.Tree{
		ID:    "report-1",
		Title: "Batch Report",
		Batch: batch.Window{Index: 1, Start: key.Start, End: key.End},
		Sections: []report.Section{{
			ID:     report.SectionAlarms,
			Title:  "Alarms",
			Blocks: []report.Block{{Kind: report.KindPlaceholder, Text: report.NoAlarmsText}},
		}},
	}, nil
}

func (r *reportStub) Chart(_ context.Context, key batch.Key, channel int) (*chart.Drawing, error) {
	r.channels = append(r.channels, channel)
	if r.chartErr != nil {
		return nil, r.chartErr
	}
	samples := []chart.Sample{
		{Time: key.Start, Values: [chart.Channels]float64{100, 20, 4}},
		{Time: key.End, Values: [chart.Channels]float64{120, 30, 6}, ProcessCode: 1},
	}
	return chart.Compute(samples, channel, chart.DefaultOptions())
}

type activityStub struct {
	opts activity.ListActivityOptions
}

func (a *activityStub) GetRecentActivity(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	a.opts = opts
	return []activity.ActivityEntry{{ID: 1, BatchStart: "20240301080000000", ActivityType: activity.TypeBatchApproved}}, nil
}

type fixture struct {
	engine    *gin.Engine
	approvals *approvalStub
	reports   *reportStub
	activity  *activityStub
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		approvals: &approvalStub{records: map[string]*approval.Record{}},
		reports:   &reportStub{},
		activity:  &activityStub{},
	}
	opts.Codec = timecodec.New(time.UTC)
	f.engine = NewServer(Services{
		Batches:   &batchStub{windows: []batch.Window{win1, win2}},
		Approvals: f.approvals,
		Reports:   f.reports,
		Activity:  f.activity,
	}, opts)
	return f
}

func (f *fixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHTTPServer_Health(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestHTTPServer_ListBatches(t *testing.T) {
	f := newFixture(t, Options{})
	f.approvals.records[win2.Key().String()] = &approval.Record{BatchStart: win2.Start, BatchEnd: win2.End}

	rec := f.do(http.MethodGet, "/api/batches", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Batches []batchResponse `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Batches, 2)
	require.Equal(t, "2024-03-01 09:00:00.500", body.Batches[0].End)
	require.Equal(t, "20240301090000500", body.Batches[0].EndKey)
	require.Equal(t, 3600.5, body.Batches[0].DurationSeconds)
	require.False(t, body.Batches[0].Requested)
	require.True(t, body.Batches[1].Requested)
	require.False(t, body.Batches[1].Approved)
}

func TestHTTPServer_GetBatch(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, win1Path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"state":"none"`)
	require.NotContains(t, rec.Body.String(), `"approval"`)

	rec = f.do(http.MethodGet, "/api/batches/20240301080000000/20240301085000000", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "BATCH_NOT_FOUND", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/batches/2024/20240301085000000", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_BATCH_KEY", errorCode(t, rec))
}

func TestHTTPServer_ApprovalFlow(t *testing.T) {
	f := newFixture(t, Options{})
	operator := map[string]string{OperatorHeader: "alice"}

	rec := f.do(http.MethodPost, win1Path+"/approval/request",
		`{"requested_by":"ignored","checklist":[{"checked":true,"reason":"door seal replaced"}]}`, operator)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.approvals.requests, 1)
	require.Equal(t, "alice", f.approvals.requests[0].RequestedBy)
	require.Equal(t, approval.ChecklistItem{Checked: true, Reason: "door seal replaced"}, f.approvals.requests[0].Checklist[0])
	require.Equal(t, win1.Key(), f.approvals.requests[0].Batch)

	rec = f.do(http.MethodPost, win1Path+"/approval/approve", "", map[string]string{OperatorHeader: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"outcome":"approved"}`, rec.Body.String())

	rec = f.do(http.MethodPost, win1Path+"/approval/approve", `{"approved_by":"carol"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"outcome":"nothing_to_approve"}`, rec.Body.String())
	require.Equal(t, []string{"bob", "carol"}, f.approvals.approvers)

	rec = f.do(http.MethodGet, win1Path, "", nil)
	require.Contains(t, rec.Body.String(), `"state":"approved"`)
	require.Contains(t, rec.Body.String(), `"is_approved":true`)
}

func TestHTTPServer_ApprovalErrors(t *testing.T) {
	f := newFixture(t, Options{})

	f.approvals.requestErr = approval.ErrMissingReason
	rec := f.do(http.MethodPost, win1Path+"/approval/request", `{"requested_by":"alice","checklist":[{"checked":true}]}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MISSING_REASON", errorCode(t, rec))

	f.approvals.requestErr = approval.ErrDuplicateRequest
	rec = f.do(http.MethodPost, win1Path+"/approval/request", `{"requested_by":"alice"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, win1Path+"/approval/request", `{"checklist":[{},{},{},{}]}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", errorCode(t, rec))

	rec = f.do(http.MethodPost, win1Path+"/approval/approve", `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/batches/20240301080000000/20240301085000000/approval/approve", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_Chart(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, win1Path+"/charts/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "<svg")
	require.Equal(t, []int{1}, f.reports.channels)

	rec = f.do(http.MethodGet, win1Path+"/charts/0", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_CHANNEL", errorCode(t, rec))

	f.reports.chartErr = chart.ErrNoData
	rec = f.do(http.MethodGet, win1Path+"/charts/1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NO_TREND_DATA", errorCode(t, rec))
}

func TestHTTPServer_Report(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, win1Path+"/report?format=text", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "[No alarms]")

	rec = f.do(http.MethodGet, win1Path+"/report", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<!DOCTYPE html>")

	rec = f.do(http.MethodGet, win1Path+"/report?format=xlsx", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="batch_20240301080000000-20240301090000500.xlsx"`, rec.Header().Get("Content-Disposition"))

	rec = f.do(http.MethodGet, win1Path+"/report?format=pdf", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "UNKNOWN_FORMAT", errorCode(t, rec))
	require.Equal(t, 3, f.reports.generated)
}

func TestHTTPServer_CacheFlushedByMutation(t *testing.T) {
	f := newFixture(t, Options{CacheTTL: time.Minute})
	path := win1Path + "/charts/1"

	first := f.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := f.do(http.MethodGet, path, "", nil)
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Len(t, f.reports.channels, 1)

	rec := f.do(http.MethodPost, win1Path+"/approval/request", `{"requested_by":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	third := f.do(http.MethodGet, path, "", nil)
	require.Empty(t, third.Header().Get("X-Cache"))
	require.Len(t, f.reports.channels, 2)
}

func TestHTTPServer_ReportsAndActivityBypassCache(t *testing.T) {
	f := newFixture(t, Options{CacheTTL: time.Minute})
	path := win1Path + "/report?format=json"

	for i := 1; i <= 2; i++ {
		rec := f.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("X-Cache"))
		require.Equal(t, i, f.reports.generated)
	}

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodGet, "/api/activity", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestHTTPServer_RateLimit(t *testing.T) {
	f := newFixture(t, Options{RateLimit: 0.001, Burst: 1})

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/batches", "", nil).Code)
	rec := f.do(http.MethodGet, "/api/batches", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", nil).Code)
}

func TestHTTPServer_Activity(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/api/activity?batch_start=20240301080000000&type=batch_approved&limit=5&offset=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "20240301080000000", f.activity.opts.BatchStart)
	require.Equal(t, activity.TypeBatchApproved, *f.activity.opts.ActivityType)
	require.Equal(t, 5, f.activity.opts.Limit)
	require.Equal(t, 2, f.activity.opts.Offset)
	require.Contains(t, rec.Body.String(), `"type":"batch_approved"`)

	rec = f.do(http.MethodGet, "/api/activity?limit=-1", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPServer_MCPMount(t *testing.T) {
	var hit bool
	f := newFixture(t, Options{MCP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusAccepted)
	})})

	rec := f.do(http.MethodPost, "/mcp", `{}`, nil)
	require.True(t, hit)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHTTPServer_CORS(t *testing.T) {
	f := newFixture(t, Options{CORSOrigins: []string{"http://hmi.local"}})

	rec := f.do(http.MethodOptions, "/api/batches", "", map[string]string{
		"Origin":                         "http://hmi.local",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": OperatorHeader,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://hmi.local", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(http.MethodGet, "/api/batches", "", map[string]string{"Origin": "http://elsewhere"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	f = newFixture(t, Options{})
	rec = f.do(http.MethodGet, "/api/batches", "", map[string]string{"Origin": "http://elsewhere"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
