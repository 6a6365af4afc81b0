package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/report"
	"github.com/rpggio/batchreport/internal/render"
	"github.com/rpggio/batchreport/internal/timecodec"
)

// BatchService defines batch operations needed by MCP.
type BatchService interface {
	List(ctx context.Context) ([]batch.Window, error)
	Find(ctx context.Context, key batch.Key) (batch.Window, error)
}

// ApprovalService defines approval operations needed by MCP.
type ApprovalService interface {
	Request(ctx context.Context, in approval.RequestInput) (*approval.Record, error)
	Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (approval.Outcome, error)
	Get(ctx context.Context, key batch.Key) (*approval.Record, error)
	Statuses(ctx context.Context, windows []batch.Window) ([]approval.WindowStatus, error)
}

// ReportService defines report operations needed by MCP.
type ReportService interface {
	Generate(ctx context.Context, key batch.Key) (*report.Tree, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Batches   BatchService
	Approvals ApprovalService
	Reports   ReportService
	Activity  ActivityService
}

// Handler implements the MCP tools on top of the domain services.
type Handler struct {
	svc   Services
	codec timecodec.Codec
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services, codec timecodec.Codec) *Handler {
	return &Handler{svc: svc, codec: codec}
}

func (h *Handler) ListBatches(ctx context.Context) (*ListBatchesResponse, error) {
	windows, err := h.svc.Batches.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	statuses, err := h.svc.Approvals.Statuses(ctx, windows)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &ListBatchesResponse{
		Batches: make([]BatchResponse, 0, len(statuses)),
		Summary: batch.Summary(windows),
	}
	for _, ws := range statuses {
		resp.Batches = append(resp.Batches, toBatchResponse(ws.Window, ws.Status))
	}
	return resp, nil
}

func (h *Handler) GetBatch(ctx context.Context, p BatchKeyParams) (*BatchDetailResponse, error) {
	w, err := h.window(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	rec, err := h.svc.Approvals.Get(ctx, w.Key())
	if err != nil && !errors.Is(err, approval.ErrApprovalNotFound) {
		return nil, mapError(err)
	}
	st := approval.Status{Requested: rec != nil, Approved: rec != nil && rec.ApprovedAt != nil}
	return &BatchDetailResponse{
		Batch:    toBatchResponse(w, st),
		State:    string(rec.State()),
		Approval: toApprovalResponse(rec),
	}, nil
}

func (h *Handler) RequestApproval(ctx context.Context, p RequestApprovalParams) (*ApprovalResponse, error) {
	if len(p.Checklist) > approval.ChecklistSize {
		return nil, mapError(fmt.Errorf("%w: checklist has %d items, at most %d allowed", approval.ErrInvalidInput, len(p.Checklist), approval.ChecklistSize))
	}
	w, err := h.window(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	in := approval.RequestInput{
		Batch:       w.Key(),
		RequestedBy: operatorOr(ctx, p.RequestedBy),
	}
	for i, item := range p.Checklist {
		in.Checklist[i] = approval.ChecklistItem{Checked: item.Checked, Reason: item.Reason}
	}

	rec, err := h.svc.Approvals.Request(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return toApprovalResponse(rec), nil
}

func (h *Handler) ApproveBatch(ctx context.Context, p ApproveBatchParams) (*ApproveBatchResponse, error) {
	w, err := h.window(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	outcome, err := h.svc.Approvals.Approve(ctx, w.Key(), operatorOr(ctx, p.ApprovedBy), time.Time{})
	if err != nil {
		return nil, mapError(err)
	}
	return &ApproveBatchResponse{Outcome: string(outcome)}, nil
}

func (h *Handler) GenerateReport(ctx context.Context, p GenerateReportParams) (*GenerateReportResponse, error) {
	format := p.Format
	if strings.TrimSpace(format) == "" {
		format = render.FormatText
	}
	r, err := render.ForFormat(format)
	if err != nil {
		return nil, mapError(err)
	}
	key, err := batch.ParseKey(h.codec, p.Start, p.End)
	if err != nil {
		return nil, mapError(err)
	}

	tree, err := h.svc.Reports.Generate(ctx, key)
	if err != nil {
		return nil, mapError(err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, *tree); err != nil {
		return nil, err
	}

	resp := &GenerateReportResponse{
		ReportID: tree.ID,
		Format:   r.Extension(),
		Encoding: "utf-8",
		Content:  buf.String(),
	}
	if r.Extension() == render.FormatXLSX {
		resp.Encoding = "base64"
		resp.Content = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	for _, s := range tree.Sections {
		resp.Sections = append(resp.Sections, s.ID)
	}
	return resp, nil
}

func (h *Handler) ListActivity(ctx context.Context, p ListActivityParams) (*ListActivityResponse, error) {
	opts := activity.ListActivityOptions{
		BatchStart: p.BatchStart,
		BatchEnd:   p.BatchEnd,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	if p.Type != "" {
		typ := activity.ActivityType(p.Type)
		opts.ActivityType = &typ
	}
	entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &ListActivityResponse{Activity: make([]ActivityEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Activity = append(resp.Activity, toActivityResponse(e))
	}
	return resp, nil
}

func (h *Handler) window(ctx context.Context, start, end string) (batch.Window, error) {
	key, err := batch.ParseKey(h.codec, start, end)
	if err != nil {
		return batch.Window{}, mapError(err)
	}
	w, err := h.svc.Batches.Find(ctx, key)
	if err != nil {
		return batch.Window{}, mapError(err)
	}
	return w, nil
}
