package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/ludokit/gamescan/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.ImportSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSources(md, summary)
	w.writeErrors(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run header with the overall counts.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.ImportSummary) {
	md.H1("Game Import Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
			{"Found", strconv.Itoa(summary.GamesFound)},
			{"Imported", strconv.Itoa(summary.GamesImported)},
			{"Excluded", strconv.Itoa(summary.GamesExcluded)},
			{"Removed", strconv.Itoa(summary.GamesRemoved)},
		},
	})
	md.PlainText("")

	switch {
	case summary.ErrorCount() > 0:
		md.Warningf("%d error(s) occurred during this import.", summary.ErrorCount())
	case summary.GamesImported == 0:
		md.Note("No new games found.")
	default:
		md.Tip(fmt.Sprintf("%d game(s) imported without errors.", summary.GamesImported))
	}
	md.PlainText("")
}

// writeSources writes the per-source results table.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, summary *model.ImportSummary) {
	md.H2("Sources")
	md.PlainText("")

	if len(summary.Sources) == 0 {
		md.PlainText("No sources configured.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Sources))
	for i, src := range summary.Sources {
		status := "scanned"
		if !src.Installed {
			status = "not installed"
		}
		rows[i] = []string{src.ID, status, strconv.Itoa(src.Found)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Status", "Games Found"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the stage errors grouped by stage kind.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, summary *model.ImportSummary) {
	md.H2("Errors")
	md.PlainText("")

	if summary.ErrorCount() == 0 {
		md.PlainText("No errors.")
		md.PlainText("")
		return
	}

	grouped := summary.ErrorsByStage()
	stages := make([]string, 0, len(grouped))
	for stage := range grouped {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	for _, stage := range stages {
		md.H3(stage)
		md.PlainText("")

		errs := grouped[stage]
		rows := make([][]string, len(errs))
		for i, e := range errs {
			name := e.GameName
			if name == "" {
				name = e.GameID
			}
			rows[i] = []string{name, truncateString(e.Message, 80)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Game", "Error"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
