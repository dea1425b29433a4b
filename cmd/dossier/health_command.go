package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dossier/internal/records"
	"dossier/internal/workflow"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check case database health (schema, integrity, counts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *workflow.Engine, store *records.Store) error {
				health := store.Health(cmd.Context())
				stats, statsErr := store.Stats(cmd.Context())

				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						Health records.DatabaseHealth `json:"health"`
						Stats  records.Stats          `json:"stats"`
					}{health, stats})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %d\n", health.SchemaVersion)
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Total cases: %d\n", health.TotalCases)
				fmt.Fprintf(out, "Total step records: %d\n", health.TotalRecords)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				if statsErr == nil {
					fmt.Fprintf(out, "Open cases: %d (accepted %d, rejected %d)\n",
						stats.OpenCases, stats.AcceptedCases, stats.RejectedCases)
					fmt.Fprintf(out, "Validated records: %d of %d\n", stats.Validated, stats.Records)
				}
				return nil
			})
		},
	}
}
