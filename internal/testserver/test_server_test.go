package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/batchreport/internal/app"
	"github.com/stretchr/testify/require"
)

type batchJSON struct {
	Index       int    `json:"index"`
	Start       string `json:"start"`
	StartKey    string `json:"start_key"`
	EndKey      string `json:"end_key"`
	IsRequested bool   `json:"is_requested"`
	IsApproved  bool   `json:"is_approved"`
	State       string `json:"state"`
}

func (ts *TestServer) do(t *testing.T, method, path, operator string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if operator != "" {
		req.Header.Set("X-Operator", operator)
	}
	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func batchPath(start, end string) string {
	return "/api/batches/" + start + "/" + end
}

func TestEndToEnd_ListBatches(t *testing.T) {
	ts := New(t)

	resp := ts.do(t, http.MethodGet, "/api/batches", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[struct {
		Batches []batchJSON `json:"batches"`
	}](t, resp)
	require.Len(t, list.Batches, 2)
	require.Equal(t, 1, list.Batches[0].Index)
	require.Equal(t, Batch1Start, list.Batches[0].StartKey)
	require.Equal(t, Batch1End, list.Batches[0].EndKey)
	require.Equal(t, "2024-03-01 08:00:00.000", list.Batches[0].Start)
	require.Equal(t, Batch2Start, list.Batches[1].StartKey)
	require.Equal(t, Batch2End, list.Batches[1].EndKey)
	require.False(t, list.Batches[0].IsRequested)
}

func TestEndToEnd_ApprovalLifecycle(t *testing.T) {
	ts := New(t)
	path := batchPath(Batch1Start, Batch1End)

	resp := ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "none", decode[batchJSON](t, resp).State)

	resp = ts.do(t, http.MethodPost, path+"/approval/request", "alice", map[string]any{
		"checklist": []map[string]any{{"checked": true, "reason": "pressure spike reviewed"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, path+"/approval/request", "alice", map[string]any{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, path+"/approval/approve", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "approved", decode[map[string]string](t, resp)["outcome"])

	resp = ts.do(t, http.MethodPost, path+"/approval/approve", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nothing_to_approve", decode[map[string]string](t, resp)["outcome"])

	resp = ts.do(t, http.MethodGet, path, "", nil)
	detail := decode[batchJSON](t, resp)
	require.Equal(t, "approved", detail.State)
	require.True(t, detail.IsApproved)

	resp = ts.do(t, http.MethodGet, "/api/activity?batch_start="+Batch1Start, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	activity := decode[struct {
		Activity []struct {
			Type  string `json:"type"`
			Actor string `json:"actor"`
		} `json:"activity"`
	}](t, resp)
	require.Len(t, activity.Activity, 2)
	require.Equal(t, "batch_approved", activity.Activity[0].Type)
	require.Equal(t, "bob", activity.Activity[0].Actor)
	require.Equal(t, "approval_requested", activity.Activity[1].Type)
	require.Equal(t, "alice", activity.Activity[1].Actor)
}

func TestEndToEnd_Report(t *testing.T) {
	ts := New(t)

	resp := ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/report?format=html", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	require.Contains(t, html, "Operator login: alice")
	require.Contains(t, html, "A100")
	require.Contains(t, html, "A200")
	require.NotContains(t, html, "A300")
	require.NotContains(t, html, "Setpoint changed")
	require.Equal(t, 3, strings.Count(html, "<svg"))

	resp = ts.do(t, http.MethodGet, batchPath(Batch2Start, Batch2End)+"/report?format=text", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	require.Contains(t, text, "[No alarms]")
	require.Contains(t, text, "Setpoint changed")
	require.Equal(t, 3, strings.Count(text, "[Data retention expired]"))

	resp = ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/report?format=xlsx", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "batch_"+Batch1Start+"-"+Batch1End+".xlsx")

	resp = ts.do(t, http.MethodGet, batchPath(Batch1Start, "20240301093000000")+"/report", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndToEnd_Chart(t *testing.T) {
	ts := New(t)

	resp := ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/charts/2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "<polyline")

	resp = ts.do(t, http.MethodGet, batchPath(Batch2Start, Batch2End)+"/charts/1", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/charts/4", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEndToEnd_InfiniteTrendValue(t *testing.T) {
	cfg := SeedConfig(t, t.TempDir())
	seed(t, cfg.Stores.Trend.Path,
		`INSERT INTO TB_TRENDLOG VALUES (20240301, 84500000, 9e999, 9e999, 9e999, 3)`,
		`INSERT INTO TB_TRENDLOG VALUES (20240301, 84600000, 1e7, 1e7, 1e7, 3)`,
	)
	ts := NewWithConfig(t, cfg)

	resp := ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/charts/1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotContains(t, string(body), "NaN")
	require.NotContains(t, string(body), "Inf")
	require.LessOrEqual(t, strings.Count(string(body), "<line"), 200)

	resp = ts.do(t, http.MethodGet, batchPath(Batch1Start, Batch1End)+"/report?format=text", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndToEnd_SecurityLogAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg := SeedConfig(t, dir)
	cfg.Stores.Security.Path = filepath.Join(dir, "missing.db")
	ts := NewWithConfig(t, cfg)

	resp := ts.do(t, http.MethodGet, "/api/batches", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errBody := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, resp)
	require.Equal(t, "SECURITY_LOG_UNAVAILABLE", errBody.Error.Code)
}

func TestEndToEnd_MCPOverHTTP(t *testing.T) {
	ts := New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_batches", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var text string
	for _, content := range result.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			text = tc.Text
		}
	}
	var list struct {
		Batches []batchJSON `json:"batches"`
		Summary string      `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	require.Len(t, list.Batches, 2)
	require.Contains(t, list.Summary, "Batch 2\nStart: 2024-03-01 10:00:00.000\nEnd:   2024-03-01 11:30:00.000\n")
}

func TestOpen_ReadOnlyLeavesNoApprovalStore(t *testing.T) {
	cfg := SeedConfig(t, t.TempDir())

	a, err := app.Open(context.Background(), cfg, nil, app.Options{ReadOnly: true})
	require.NoError(t, err)
	defer a.Close()

	windows, err := a.Batches.List(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 2)

	statuses, err := a.Approvals.Statuses(context.Background(), windows)
	require.NoError(t, err)
	for _, st := range statuses {
		require.False(t, st.Requested)
	}

	_, err = os.Stat(cfg.Stores.Approval)
	require.True(t, os.IsNotExist(err))
}
