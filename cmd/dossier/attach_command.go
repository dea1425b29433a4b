package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dossier/internal/blob"
)

func newAttachCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <case-id> <step-id> <file>",
		Short: "Upload a document and print the URL to reference in step content",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			caseID := strings.TrimSpace(args[0])
			stepID := strings.TrimSpace(args[1])
			source := strings.TrimSpace(args[2])

			data, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read upload: %w", err)
			}
			if limit := cfg.MaxUploadBytes(); limit > 0 && int64(len(data)) > limit {
				return fmt.Errorf("upload is %d bytes; the limit is %d MiB", len(data), cfg.Uploads.MaxUploadMiB)
			}
			if err := checkUploadType(cfg.Uploads.AllowedTypes, source); err != nil {
				return err
			}

			store := blob.NewLocalStore(cfg)
			name := filepath.Join(caseID, stepID, filepath.Base(source))
			if _, err := store.Put(cmd.Context(), name, data); err != nil {
				return fmt.Errorf("store upload: %w", err)
			}

			url := store.PublicURL(name)
			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					URL  string `json:"url"`
					Size int    `json:"size_bytes"`
				}{url, len(data)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func checkUploadType(allowed []string, path string) error {
	if len(allowed) == 0 {
		return nil
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), contentType) {
			return nil
		}
	}
	return fmt.Errorf("file type %q is not allowed (allowed: %s)", contentType, strings.Join(allowed, ", "))
}
