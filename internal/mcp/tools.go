package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools adds the batch tools. Input and output schemas are inferred
// from the parameter and response types.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_batches",
		Description: "List batch windows reconstructed from the security log, oldest first, with approval flags",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListBatchesParams) (*sdkmcp.CallToolResult, ListBatchesResponse, error) {
		return result(h.ListBatches(ctx))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_batch",
		Description: "Get one batch window with its approval state and checklist",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p BatchKeyParams) (*sdkmcp.CallToolResult, BatchDetailResponse, error) {
		return result(h.GetBatch(ctx, p))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "request_approval",
		Description: "Request approval of a batch. Each checked checklist item needs a reason; a batch can be requested once",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p RequestApprovalParams) (*sdkmcp.CallToolResult, ApprovalResponse, error) {
		return result(h.RequestApproval(ctx, p))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "approve_batch",
		Description: "Approve a requested batch. Returns nothing_to_approve if it was never requested or is already approved",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p ApproveBatchParams) (*sdkmcp.CallToolResult, ApproveBatchResponse, error) {
		return result(h.ApproveBatch(ctx, p))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_report",
		Description: "Generate the batch report: summary, approval, alarms, security log excerpt and trend charts",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p GenerateReportParams) (*sdkmcp.CallToolResult, GenerateReportResponse, error) {
		return result(h.GenerateReport(ctx, p))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activity",
		Description: "List the audit trail of approvals and report generations, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p ListActivityParams) (*sdkmcp.CallToolResult, ListActivityResponse, error) {
		return result(h.ListActivity(ctx, p))
	})
}

// result adapts a handler return to the typed tool signature.
func result[T any](resp *T, err error) (*sdkmcp.CallToolResult, T, error) {
	var zero T
	if err != nil {
		return nil, zero, err
	}
	return nil, *resp, nil
}
