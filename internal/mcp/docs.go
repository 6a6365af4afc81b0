package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `batchreport reconstructs production batches from a plant security log and reports on them.

Core concepts:
- Batch window: the span between a start marker and the next end marker in the security log. Windows are recomputed on every call and identified by their start and end keys (YYYYMMDDHHmmssfff).
- Report: summary, approval, alarms, paginated security log excerpt and one trend chart per channel, for one window.
- Approval: none -> requested -> approved. A batch is requested once; approving an unrequested or approved batch is a no-op.

Workflow:
1) Call list_batches to see windows and their is_requested / is_approved flags.
2) Call get_batch for the approval record and checklist of one window.
3) Call generate_report (format text by default; xlsx comes back base64 encoded).
4) Call request_approval, then approve_batch. Every checked checklist item needs a reason.
5) Call list_activity for the audit trail.

Operator identity: HTTP clients send X-Operator; stdio clients set _meta.operator or pass requested_by / approved_by.

Docs:
- batchreport://docs/concepts
- batchreport://docs/reports
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "batchreport://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Batch windows and approvals",
		Description: "How batch windows are reconstructed and how the approval lifecycle works.",
		Content: `# Batch windows

The security log is scanned newest first for two marker messages. Each end
marker is paired with the closest start marker before it. When several end
markers follow one start, the latest end closes the window and the others are
reported as repeated ends. When several starts precede one end, the latest
start opens the window. An end marker with no start before it is reported as
a dangling end and dropped; a start with no end after it never becomes a
window.

Windows are ordered by start time and numbered from 1. They are never stored:
every listing recomputes them, so numbering can shift when old log rows are
purged. Always address a batch by its start and end keys, never its number.

# Keys

Keys are 17 digit timestamps, YYYYMMDDHHmmssfff, in the plant's configured
timezone. They sort chronologically as strings.

# Approval

| State     | is_requested | is_approved |
|-----------|--------------|-------------|
| none      | false        | false       |
| requested | true         | false       |
| approved  | true         | true        |

- request_approval fails with DUPLICATE_REQUEST on a second request.
- A checked checklist item without a reason fails with MISSING_REASON.
- approve_batch returns nothing_to_approve for an unrequested or already
  approved batch. There is no reject or revoke.
`,
	},
	{
		URI:         "batchreport://docs/reports",
		Name:        "docs_reports",
		Title:       "Report contents",
		Description: "Section order, placeholders and formats of generated reports.",
		Content: `# Report sections

1. summary: batch number, start, end, duration and row counts. Missing log
   stores are noted here.
2. approval: only when the batch has been requested.
3. alarms: alarms that occurred inside the window. Unrecovered alarms are
   emphasized. Empty shows "No alarms".
4. security: the security log excerpt, paginated, rows alternately shaded.
5. trend-1, trend-2, trend-3: one chart per trend channel with process phase
   boundaries and 10 minute ticks. Empty shows "Data retention expired".

# Formats

- text: plain text, form feed between pages.
- html: standalone page with inline SVG charts and print page breaks.
- json: the report tree itself.
- xlsx: one sheet per section, base64 encoded over MCP.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
