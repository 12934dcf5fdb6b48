package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ludokit/gamescan/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display after an import run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-source breakdown even when nothing was
	// found.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full per-source breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.ImportSummary) (int, error) {
	var sb strings.Builder

	w.writeHeadline(&sb, summary)
	w.writeSources(&sb, summary)
	w.writeErrors(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeadline writes the one-line result the user cares about.
func (w *SimpleWriter) writeHeadline(sb *strings.Builder, summary *model.ImportSummary) {
	switch summary.GamesImported {
	case 0:
		sb.WriteString("No new games found.\n")
	case 1:
		sb.WriteString("1 game imported.\n")
	default:
		sb.WriteString(fmt.Sprintf("%d games imported.\n", summary.GamesImported))
	}

	if summary.GamesExcluded > 0 {
		sb.WriteString(fmt.Sprintf("%d excluded by pattern.\n", summary.GamesExcluded))
	}
	if summary.GamesRemoved > 0 {
		sb.WriteString(fmt.Sprintf("%d previously removed, not re-added.\n", summary.GamesRemoved))
	}
	sb.WriteString("\n")
}

// writeSources writes the per-source breakdown.
func (w *SimpleWriter) writeSources(sb *strings.Builder, summary *model.ImportSummary) {
	if len(summary.Sources) == 0 {
		return
	}
	if summary.GamesFound == 0 && !w.verbose {
		return
	}

	sb.WriteString("Sources:\n")
	for _, src := range summary.Sources {
		switch {
		case !src.Installed:
			sb.WriteString(fmt.Sprintf("  %-10s not installed\n", src.ID))
		case src.Found == 1:
			sb.WriteString(fmt.Sprintf("  %-10s 1 game\n", src.ID))
		default:
			sb.WriteString(fmt.Sprintf("  %-10s %d games\n", src.ID, src.Found))
		}
	}
	sb.WriteString("\n")
}

// writeErrors writes the stage errors grouped by stage kind.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, summary *model.ImportSummary) {
	if summary.ErrorCount() == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("%d error(s) during import:\n", summary.ErrorCount()))

	grouped := summary.ErrorsByStage()
	stages := make([]string, 0, len(grouped))
	for stage := range grouped {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	for _, stage := range stages {
		sb.WriteString(fmt.Sprintf("\n[%s]\n", stage))
		for _, e := range grouped[stage] {
			name := e.GameName
			if name == "" {
				name = e.GameID
			}
			sb.WriteString(fmt.Sprintf("  * %s: %s\n", name, e.Message))
		}
	}
	sb.WriteString("\n")
}
