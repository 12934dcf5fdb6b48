// Package report renders import summaries.
//
// Three formats are supported: human-readable text for the terminal,
// JSON for tool integration, and Markdown for documentation and
// sharing. All writers consume the same model.ImportSummary, so a run
// can be reported in several formats at once through MultiWriter.
package report
