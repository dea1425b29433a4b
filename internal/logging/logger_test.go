package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dossier/internal/logging"
	"dossier/internal/services"
	"dossier/internal/testsupport"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "dossier.log")

	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("case advanced", logging.String("case_id", "case-1"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "case advanced") {
		t.Fatalf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"ts"`) {
		t.Fatalf("expected json handler with ts key: %s", data)
	}
}

func TestNewFromConfigWritesToLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("logging.NewFromConfig: %v", err)
	}
	logger.Info("engine ready")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "dossier.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "engine ready") {
		t.Fatalf("log file missing message: %s", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithCaseID(context.Background(), "case-7")
	ctx = services.WithRole(ctx, "operator")

	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != logging.FieldCaseID || fields[0].Value.String() != "case-7" {
		t.Fatalf("unexpected first field: %v", fields[0])
	}

	// WithContext must tolerate a nil base logger.
	logger := logging.WithContext(ctx, nil)
	logger.Info("noop")
}
