package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/render"
)

type batchResponse struct {
	Index           int     `json:"index"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	StartKey        string  `json:"start_key"`
	EndKey          string  `json:"end_key"`
	DurationSeconds float64 `json:"duration_seconds"`
	approval.Status
}

type batchDetailResponse struct {
	batchResponse
	State    approval.State   `json:"state"`
	Approval *approval.Record `json:"approval,omitempty"`
}

type approvalRequestBody struct {
	RequestedBy string                   `json:"requested_by"`
	Checklist   []approval.ChecklistItem `json:"checklist"`
}

type approveBody struct {
	ApprovedBy string `json:"approved_by"`
}

func newBatchResponse(w batch.Window, st approval.Status) batchResponse {
	k := w.Key()
	return batchResponse{
		Index:           w.Index,
		Start:           w.Start.Format(batch.DisplayLayout),
		End:             w.End.Format(batch.DisplayLayout),
		StartKey:        k.StartKey(),
		EndKey:          k.EndKey(),
		DurationSeconds: w.Duration().Seconds(),
		Status:          st,
	}
}

func (s *Server) key(c *gin.Context) (batch.Key, error) {
	return batch.ParseKey(s.codec, c.Param("start"), c.Param("end"))
}

// window resolves the path key to a reconstructed batch window.
func (s *Server) window(c *gin.Context) (batch.Window, bool) {
	key, err := s.key(c)
	if err != nil {
		s.fail(c, err)
		return batch.Window{}, false
	}
	w, err := s.svc.Batches.Find(c.Request.Context(), key)
	if err != nil {
		s.fail(c, err)
		return batch.Window{}, false
	}
	return w, true
}

func (s *Server) listBatches(c *gin.Context) {
	ctx := c.Request.Context()
	windows, err := s.svc.Batches.List(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	statuses, err := s.svc.Approvals.Statuses(ctx, windows)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := make([]batchResponse, 0, len(statuses))
	for _, ws := range statuses {
		resp = append(resp, newBatchResponse(ws.Window, ws.Status))
	}
	c.JSON(http.StatusOK, gin.H{"batches": resp})
}

func (s *Server) getBatch(c *gin.Context) {
	w, ok := s.window(c)
	if !ok {
		return
	}
	rec, err := s.svc.Approvals.Get(c.Request.Context(), w.Key())
	if err != nil && !errors.Is(err, approval.ErrApprovalNotFound) {
		s.fail(c, err)
		return
	}

	st := approval.Status{Requested: rec != nil, Approved: rec != nil && rec.ApprovedAt != nil}
	c.JSON(http.StatusOK, batchDetailResponse{
		batchResponse: newBatchResponse(w, st),
		State:         rec.State(),
		Approval:      rec,
	})
}

func (s *Server) getChart(c *gin.Context) {
	key, err := s.key(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	n, err := strconv.Atoi(c.Param("channel"))
	if err != nil || n < 1 || n > chart.Channels {
		s.fail(c, fmt.Errorf("%w: %q (use 1-%d)", chart.ErrInvalidChannel, c.Param("channel"), chart.Channels))
		return
	}

	d, err := s.svc.Reports.Chart(c.Request.Context(), key, n-1)
	if err != nil {
		s.fail(c, err)
		return
	}
	svg, err := d.SVG()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

func (s *Server) getReport(c *gin.Context) {
	r, err := render.ForFormat(c.Query("format"))
	if err != nil {
		s.fail(c, err)
		return
	}
	key, err := s.key(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	tree, err := s.svc.Reports.Generate(c.Request.Context(), key)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, *tree); err != nil {
		s.fail(c, err)
		return
	}
	if r.Extension() == render.FormatXLSX {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.Filename(*tree, r)))
	}
	c.Data(http.StatusOK, r.ContentType(), buf.Bytes())
}

func (s *Server) requestApproval(c *gin.Context) {
	var body approvalRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if len(body.Checklist) > approval.ChecklistSize {
		s.fail(c, fmt.Errorf("%w: checklist has %d items, at most %d allowed", errBadRequest, len(body.Checklist), approval.ChecklistSize))
		return
	}

	w, ok := s.window(c)
	if !ok {
		return
	}

	in := approval.RequestInput{
		Batch:       w.Key(),
		RequestedBy: operatorOr(c.Request.Context(), body.RequestedBy),
	}
	copy(in.Checklist[:], body.Checklist)

	rec, err := s.svc.Approvals.Request(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) approveBatch(c *gin.Context) {
	var body approveBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	w, ok := s.window(c)
	if !ok {
		return
	}

	approver := operatorOr(c.Request.Context(), body.ApprovedBy)
	outcome, err := s.svc.Approvals.Approve(c.Request.Context(), w.Key(), approver, time.Time{})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

func (s *Server) listActivity(c *gin.Context) {
	opts := activity.ListActivityOptions{
		BatchStart: c.Query("batch_start"),
		BatchEnd:   c.Query("batch_end"),
	}
	if t := c.Query("type"); t != "" {
		typ := activity.ActivityType(t)
		opts.ActivityType = &typ
	}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				s.fail(c, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name))
				return
			}
			*dst = n
		}
	}

	entries, err := s.svc.Activity.GetRecentActivity(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
