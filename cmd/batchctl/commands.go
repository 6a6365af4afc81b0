package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/render"
	"github.com/rpggio/batchreport/internal/repository"
	"github.com/spf13/cobra"
)

type batchJSON struct {
	Index    int            `json:"index"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	StartKey string         `json:"start_key"`
	EndKey   string         `json:"end_key"`
	State    approval.State `json:"state"`
}

func stateOf(st approval.Status) approval.State {
	switch {
	case st.Approved:
		return approval.StateApproved
	case st.Requested:
		return approval.StateRequested
	default:
		return approval.StateNone
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) batchesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List reconstructed batch windows",
		Long: `List every batch window found in the security log, oldest first.

The listing never creates or migrates the approval store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			windows, err := a.Batches.List(ctx)
			if err != nil {
				return err
			}
			if !asJSON {
				if len(windows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No batches found.")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), batch.Summary(windows))
				return nil
			}

			statuses, err := a.Approvals.Statuses(ctx, windows)
			if err != nil {
				return err
			}
			out := make([]batchJSON, 0, len(statuses))
			for _, ws := range statuses {
				k := ws.Window.Key()
				out = append(out, batchJSON{
					Index:    ws.Index,
					Start:    ws.Start.Format(batch.DisplayLayout),
					End:      ws.End.Format(batch.DisplayLayout),
					StartKey: k.StartKey(),
					EndKey:   k.EndKey(),
					State:    stateOf(ws.Status),
				})
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print windows with keys and approval state as JSON")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var key keyFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one batch and its approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := key.window(ctx, a)
			if err != nil {
				return err
			}
			rec, err := a.Approvals.Get(ctx, w.Key())
			if err != nil && !errors.Is(err, approval.ErrApprovalNotFound) {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Batch:\t%d\n", w.Index)
			fmt.Fprintf(tw, "Start:\t%s\n", w.Start.Format(batch.DisplayLayout))
			fmt.Fprintf(tw, "End:\t%s\n", w.End.Format(batch.DisplayLayout))
			fmt.Fprintf(tw, "State:\t%s\n", rec.State())
			if rec != nil {
				fmt.Fprintf(tw, "Requested by:\t%s\n", rec.RequestedBy)
				if rec.ApprovedAt != nil {
					fmt.Fprintf(tw, "Approved by:\t%s\n", rec.ApprovedBy)
				}
				for i, item := range rec.Checklist {
					if item.Checked {
						fmt.Fprintf(tw, "Check %d:\t%s\n", i+1, item.Reason)
					}
				}
			}
			return tw.Flush()
		},
	}
	key.register(cmd)
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var (
		key    keyFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a batch report to a file",
		Long: fmt.Sprintf(`Render the report of one batch.

Formats: %v. Without --output the file is named after the batch
window in the current directory; "-" writes to stdout.`, render.Formats()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := render.ForFormat(format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, _, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			k, err := batch.ParseKey(a.Codec, key.start, key.end)
			if err != nil {
				return err
			}
			tree, err := a.Reports.Generate(ctx, k)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := r.Render(&buf, *tree); err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if output == "" {
				output = render.Filename(*tree, r)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	key.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatHTML, "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	return cmd
}

func (c *cli) requestCmd() *cobra.Command {
	var (
		key     keyFlags
		by      string
		reasons [approval.ChecklistSize]string
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request approval of a batch",
		Long: `Request approval of a batch. Each --checkN flag checks that checklist
item and records its reason. A batch can be requested only once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := key.window(ctx, a)
			if err != nil {
				return err
			}
			in := approval.RequestInput{Batch: w.Key(), RequestedBy: by}
			for i := range reasons {
				if cmd.Flags().Changed(fmt.Sprintf("check%d", i+1)) {
					in.Checklist[i] = approval.ChecklistItem{Checked: true, Reason: reasons[i]}
				}
			}
			if _, err := a.Approvals.Request(ctx, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approval requested for batch %d (%s)\n", w.Index, w.Key())
			return nil
		},
	}
	key.register(cmd)
	cmd.Flags().StringVar(&by, "by", os.Getenv("BATCHREPORT_OPERATOR"), "requesting operator")
	for i := range reasons {
		cmd.Flags().StringVar(&reasons[i], fmt.Sprintf("check%d", i+1), "", fmt.Sprintf("check item %d with this reason", i+1))
	}
	return cmd
}

func (c *cli) approveCmd() *cobra.Command {
	var (
		key keyFlags
		by  string
	)
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a requested batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := key.window(ctx, a)
			if err != nil {
				return err
			}
			outcome, err := a.Approvals.Approve(ctx, w.Key(), by, time.Time{})
			if err != nil {
				return err
			}
			if outcome == approval.OutcomeNothingToApprove {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to approve for batch %d\n", w.Index)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %d approved\n", w.Index)
			return nil
		},
	}
	key.register(cmd)
	cmd.Flags().StringVar(&by, "by", os.Getenv("BATCHREPORT_OPERATOR"), "approving operator")
	return cmd
}

func (c *cli) activityCmd() *cobra.Command {
	var (
		start string
		typ   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the approval and report audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := activity.ListActivityOptions{BatchStart: start, Limit: limit}
			if typ != "" {
				t := activity.ActivityType(typ)
				opts.ActivityType = &t
			}
			entries, err := a.Activity.GetRecentActivity(ctx, opts)
			if err != nil && !errors.Is(err, repository.ErrStoreAbsent) {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tBATCH\tTYPE\tACTOR\tSUMMARY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(batch.DisplayLayout), e.BatchStart, e.BatchEnd, e.ActivityType, e.Actor, e.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "only entries of the batch with this start key")
	cmd.Flags().StringVar(&typ, "type", "", "approval_requested, batch_approved or report_generated")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")
	return cmd
}
