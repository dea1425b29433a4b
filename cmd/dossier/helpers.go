package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dossier/internal/records"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var titleCaser = cases.Title(language.Und)

// displayTitle renders a machine status like "in_progress" as "In Progress".
func displayTitle(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func colorizeOutput(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func statusLabel(status records.Status, colorize bool) string {
	label := displayTitle(string(status))
	if !colorize {
		return label
	}
	switch status {
	case records.StatusValidated:
		return ansiGreen + label + ansiReset
	case records.StatusComplete:
		return ansiBlue + label + ansiReset
	case records.StatusInProgress:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func caseStatusLabel(status records.CaseStatus, colorize bool) string {
	label := displayTitle(string(status))
	if !colorize {
		return label
	}
	switch status {
	case records.CaseAccepted:
		return ansiGreen + label + ansiReset
	case records.CaseRejected:
		return ansiRed + label + ansiReset
	default:
		return label
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
