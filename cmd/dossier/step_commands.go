package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dossier/internal/records"
	"dossier/internal/services"
	"dossier/internal/workflow"
)

func newStepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "steps <case-id>",
		Short: "List the visible steps of a case for the acting role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(engine *workflow.Engine, store *records.Store) error {
				steps, err := engine.VisibleSteps(cmd.Context(), role, caseID)
				if err != nil {
					return err
				}
				recordMap, err := store.RecordsForCase(cmd.Context(), caseID)
				if err != nil {
					return fmt.Errorf("load records: %w", err)
				}

				type stepView struct {
					ID     string         `json:"id"`
					Name   string         `json:"name"`
					Status records.Status `json:"status"`
				}
				views := make([]stepView, 0, len(steps))
				for _, step := range steps {
					status := records.StatusUnset
					if record := recordMap[step.ID]; record != nil {
						status = record.Status
					}
					views = append(views, stepView{ID: step.ID, Name: step.Name, Status: status})
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				colorize := colorizeOutput(out)
				rows := make([][]string, 0, len(views))
				for i, view := range views {
					rows = append(rows, []string{
						fmt.Sprintf("%d", i+1),
						view.ID,
						view.Name,
						statusLabel(view.Status, colorize),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Step", "Name", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCurrentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "current <case-id>",
		Short: "Show the step the acting role should work on next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(engine *workflow.Engine, _ *records.Store) error {
				current, err := engine.DetermineCurrentStep(cmd.Context(), role, caseID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						StepID   string `json:"step_id"`
						Name     string `json:"name"`
						Position int    `json:"position"`
						Total    int    `json:"total"`
					}{current.Step.ID, current.Step.Name, current.Position, current.Total})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), step %d of %d\n",
					current.Step.Name, current.Step.ID, current.Position, current.Total)
				return nil
			})
		},
	}
}

// contentFromFlags resolves the submitted step content: inline JSON wins,
// otherwise the file is read, otherwise empty content is submitted.
func contentFromFlags(inline, file string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(file) == "" {
		return "", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read content file: %w", err)
	}
	return string(data), nil
}

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	var content string
	var contentFile string

	cmd := &cobra.Command{
		Use:   "advance <case-id> <step-id>",
		Short: "Submit content for a step and advance it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			stepID := strings.TrimSpace(args[1])
			payload, err := contentFromFlags(content, contentFile)
			if err != nil {
				return err
			}
			return ctx.withEngine(func(engine *workflow.Engine, _ *records.Store) error {
				return ctx.withCaseLock(caseID, func() error {
					var record *records.StepRecord
					// A lost revision race re-validates against the fresh
					// snapshot and tries again.
					for attempt := 0; ; attempt++ {
						record, err = engine.Transition(cmd.Context(), role, caseID, stepID, payload)
						if err == nil {
							break
						}
						if attempt < 2 && services.Retryable(err) {
							continue
						}
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, record)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Step %s is now %s (revision %d)\n",
						stepID, displayTitle(string(record.Status)), record.Revision)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Step content as a JSON object")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read step content from a JSON file")
	return cmd
}

func newDraftCommand(ctx *commandContext) *cobra.Command {
	var content string
	var contentFile string

	cmd := &cobra.Command{
		Use:   "draft <case-id> <step-id>",
		Short: "Save partial content for a step without advancing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			stepID := strings.TrimSpace(args[1])
			payload, err := contentFromFlags(content, contentFile)
			if err != nil {
				return err
			}
			return ctx.withEngine(func(engine *workflow.Engine, _ *records.Store) error {
				return ctx.withCaseLock(caseID, func() error {
					record, err := engine.SaveDraft(cmd.Context(), role, caseID, stepID, payload)
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, record)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Draft saved for step %s (revision %d)\n",
						stepID, record.Revision)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Step content as a JSON object")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read step content from a JSON file")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <case-id> <step-id>",
		Short: "Validate a completed step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			stepID := strings.TrimSpace(args[1])
			return ctx.withEngine(func(engine *workflow.Engine, _ *records.Store) error {
				return ctx.withCaseLock(caseID, func() error {
					record, err := engine.ValidateAndClose(cmd.Context(), role, caseID, stepID)
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, record)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Step %s validated\n", stepID)
					return nil
				})
			})
		},
	}
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <case-id>",
		Short: "Show case completion for the acting role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ctx.role()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			return ctx.withEngine(func(engine *workflow.Engine, _ *records.Store) error {
				progress, err := engine.ComputeProgress(cmd.Context(), role, caseID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, progress)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d%% (%d of %d steps validated)\n",
					progress.Percent, progress.Validated, progress.Total)
				if progress.CaseStatus != records.CaseInProgress {
					fmt.Fprintf(out, "Case is %s\n", displayTitle(string(progress.CaseStatus)))
				}
				return nil
			})
		},
	}
}
