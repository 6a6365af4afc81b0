package mcp

import (
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
)

type BatchKeyParams struct {
	Start string `json:"start" jsonschema:"batch start key, YYYYMMDDHHmmssfff"`
	End   string `json:"end" jsonschema:"batch end key, YYYYMMDDHHmmssfff"`
}

type ListBatchesParams struct{}

type ChecklistItemParams struct {
	Checked bool   `json:"checked"`
	Reason  string `json:"reason,omitempty" jsonschema:"required when checked"`
}

type RequestApprovalParams struct {
	Start       string                `json:"start" jsonschema:"batch start key, YYYYMMDDHHmmssfff"`
	End         string                `json:"end" jsonschema:"batch end key, YYYYMMDDHHmmssfff"`
	RequestedBy string                `json:"requested_by,omitempty" jsonschema:"operator name, defaults to the X-Operator header or _meta.operator"`
	Checklist   []ChecklistItemParams `json:"checklist,omitempty" jsonschema:"up to 3 checklist items"`
}

type ApproveBatchParams struct {
	Start      string `json:"start" jsonschema:"batch start key, YYYYMMDDHHmmssfff"`
	End        string `json:"end" jsonschema:"batch end key, YYYYMMDDHHmmssfff"`
	ApprovedBy string `json:"approved_by,omitempty" jsonschema:"approver name, defaults to the X-Operator header or _meta.operator"`
}

type GenerateReportParams struct {
	Start  string `json:"start" jsonschema:"batch start key, YYYYMMDDHHmmssfff"`
	End    string `json:"end" jsonschema:"batch end key, YYYYMMDDHHmmssfff"`
	Format string `json:"format,omitempty" jsonschema:"html, text, json or xlsx (base64 encoded); default text"`
}

type ListActivityParams struct {
	BatchStart string `json:"batch_start,omitempty"`
	BatchEnd   string `json:"batch_end,omitempty"`
	Type       string `json:"type,omitempty" jsonschema:"approval_requested, batch_approved or report_generated"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type BatchResponse struct {
	Index           int     `json:"index"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	StartKey        string  `json:"start_key"`
	EndKey          string  `json:"end_key"`
	DurationSeconds float64 `json:"duration_seconds"`
	IsRequested     bool    `json:"is_requested"`
	IsApproved      bool    `json:"is_approved"`
}

type ListBatchesResponse struct {
	Batches []BatchResponse `json:"batches"`
	Summary string          `json:"summary"`
}

type ChecklistItemResponse struct {
	Checked bool   `json:"checked"`
	Reason  string `json:"reason,omitempty"`
}

type ApprovalResponse struct {
	RequestedBy string                  `json:"requested_by"`
	RequestedAt string                  `json:"requested_at"`
	ApprovedBy  string                  `json:"approved_by,omitempty"`
	ApprovedAt  string                  `json:"approved_at,omitempty"`
	Checklist   []ChecklistItemResponse `json:"checklist"`
}

type BatchDetailResponse struct {
	Batch    BatchResponse     `json:"batch"`
	State    string            `json:"state"`
	Approval *ApprovalResponse `json:"approval,omitempty"`
}

type ApproveBatchResponse struct {
	Outcome string `json:"outcome"`
}

type GenerateReportResponse struct {
	ReportID string   `json:"report_id"`
	Format   string   `json:"format"`
	Encoding string   `json:"encoding"`
	Sections []string `json:"sections"`
	Content  string   `json:"content"`
}

type ActivityEntryResponse struct {
	ID            int64  `json:"id"`
	BatchStart    string `json:"batch_start"`
	BatchEnd      string `json:"batch_end"`
	Actor         string `json:"actor,omitempty"`
	Type          string `json:"type"`
	Summary       string `json:"summary"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ListActivityResponse struct {
	Activity []ActivityEntryResponse `json:"activity"`
}

func toBatchResponse(w batch.Window, st approval.Status) BatchResponse {
	k := w.Key()
	return BatchResponse{
		Index:           w.Index,
		Start:           w.Start.Format(batch.DisplayLayout),
		End:             w.End.Format(batch.DisplayLayout),
		StartKey:        k.StartKey(),
		EndKey:          k.EndKey(),
		DurationSeconds: w.Duration().Seconds(),
		IsRequested:     st.Requested,
		IsApproved:      st.Approved,
	}
}

func toApprovalResponse(rec *approval.Record) *ApprovalResponse {
	if rec == nil {
		return nil
	}
	resp := &ApprovalResponse{
		RequestedBy: rec.RequestedBy,
		RequestedAt: rec.RequestedAt.Format(time.RFC3339),
		ApprovedBy:  rec.ApprovedBy,
	}
	if rec.ApprovedAt != nil {
		resp.ApprovedAt = rec.ApprovedAt.Format(time.RFC3339)
	}
	for _, item := range rec.Checklist {
		resp.Checklist = append(resp.Checklist, ChecklistItemResponse{Checked: item.Checked, Reason: item.Reason})
	}
	return resp
}

func toActivityResponse(e activity.ActivityEntry) ActivityEntryResponse {
	return ActivityEntryResponse{
		ID:            e.ID,
		BatchStart:    e.BatchStart,
		BatchEnd:      e.BatchEnd,
		Actor:         e.Actor,
		Type:          string(e.ActivityType),
		Summary:       e.Summary,
		CorrelationID: e.CorrelationID,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}
