package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dossier/internal/notifications"
	"dossier/internal/records"
	"dossier/internal/workflow"
)

func newCaseCommand(ctx *commandContext) *cobra.Command {
	caseCmd := &cobra.Command{
		Use:   "case",
		Short: "Manage formation cases",
	}

	caseCmd.AddCommand(newCaseNewCommand(ctx))
	caseCmd.AddCommand(newCaseListCommand(ctx))
	caseCmd.AddCommand(newCaseShowCommand(ctx))
	caseCmd.AddCommand(newCaseReviewCommand(ctx, "accept", records.CaseAccepted, notifications.EventCaseAccepted))
	caseCmd.AddCommand(newCaseReviewCommand(ctx, "reject", records.CaseRejected, notifications.EventCaseRejected))
	caseCmd.AddCommand(newCaseReopenCommand(ctx))

	return caseCmd
}

func newCaseNewCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a formation case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *workflow.Engine, store *records.Store) error {
				kase, err := store.CreateCase(cmd.Context(), owner)
				if err != nil {
					return fmt.Errorf("create case: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, kase)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created case %s for %s\n", kase.ID, kase.OwnerID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Owner identifier for the new case")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newCaseListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List formation cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *workflow.Engine, store *records.Store) error {
				cases, err := store.ListCases(cmd.Context())
				if err != nil {
					return fmt.Errorf("list cases: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, cases)
				}

				out := cmd.OutOrStdout()
				if len(cases) == 0 {
					fmt.Fprintln(out, "No cases found")
					return nil
				}
				colorize := colorizeOutput(out)
				rows := make([][]string, 0, len(cases))
				for _, kase := range cases {
					rows = append(rows, []string{
						kase.ID,
						kase.OwnerID,
						caseStatusLabel(kase.Status, colorize),
						kase.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Owner", "Status", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCaseShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case with its step records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(engine *workflow.Engine, store *records.Store) error {
				kase, err := store.GetCase(cmd.Context(), caseID)
				if err != nil {
					return fmt.Errorf("load case: %w", err)
				}
				recordMap, err := store.RecordsForCase(cmd.Context(), caseID)
				if err != nil {
					return fmt.Errorf("load records: %w", err)
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						Case    *records.Case                  `json:"case"`
						Records map[string]*records.StepRecord `json:"records"`
					}{kase, recordMap})
				}

				out := cmd.OutOrStdout()
				colorize := colorizeOutput(out)
				fmt.Fprintf(out, "Case %s\n", kase.ID)
				fmt.Fprintf(out, "  Owner:   %s\n", kase.OwnerID)
				fmt.Fprintf(out, "  Status:  %s\n", caseStatusLabel(kase.Status, colorize))
				fmt.Fprintf(out, "  Created: %s\n\n", kase.CreatedAt.Local().Format(time.DateTime))

				rows := make([][]string, 0, len(recordMap))
				for _, step := range engine.Catalog().Steps() {
					record := recordMap[step.ID]
					if record == nil {
						continue
					}
					rows = append(rows, []string{
						step.ID,
						string(step.Role),
						statusLabel(record.Status, colorize),
						fmt.Sprintf("%d", record.Revision),
						record.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No step records yet")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Step", "Role", "Status", "Rev", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

// newCaseReviewCommand handles the terminal review decisions. Accepting a case
// overrides every step to Validated; rejecting freezes it. Both close the
// case to further transitions.
func newCaseReviewCommand(ctx *commandContext, verb string, status records.CaseStatus, event notifications.Event) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <case-id>",
		Short: titleCaser.String(verb) + " a formation case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(_ *workflow.Engine, store *records.Store) error {
				kase, err := store.GetCase(cmd.Context(), caseID)
				if err != nil {
					return fmt.Errorf("load case: %w", err)
				}
				if err := store.SetCaseStatus(cmd.Context(), caseID, status); err != nil {
					return fmt.Errorf("%s case: %w", verb, err)
				}
				if err := ctx.notifier.Publish(cmd.Context(), event, notifications.Payload{
					"case_id":  caseID,
					"owner_id": kase.OwnerID,
				}); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: notification failed: %v\n", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Case %s %sed\n", caseID, verb)
				return nil
			})
		},
	}
}

func newCaseReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <case-id>",
		Short: "Reopen a closed case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(_ *workflow.Engine, store *records.Store) error {
				if err := store.SetCaseStatus(cmd.Context(), caseID, records.CaseInProgress); err != nil {
					return fmt.Errorf("reopen case: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Case %s reopened\n", caseID)
				return nil
			})
		},
	}
}
