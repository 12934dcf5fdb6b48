package model

import "time"

// SourceSummary is the per-source portion of an import summary.
type SourceSummary struct {
	// ID is the source identifier.
	ID string `json:"id"`

	// Installed reports whether the source was available for scanning.
	// An uninstalled source finishes immediately with zero games.
	Installed bool `json:"installed"`

	// Found is the number of games this source discovered, including
	// duplicates that were rejected at registration.
	Found int `json:"found"`
}

// StageError records one error produced by a pipeline stage, flattened for
// serialization. Grouping by Stage reconstructs the per-stage view used by
// the error report.
type StageError struct {
	// Stage is the stage kind that produced the error.
	Stage string `json:"stage"`

	// GameID identifies the game being processed when the error occurred.
	GameID string `json:"gameId"`

	// GameName is the display name of that game.
	GameName string `json:"gameName"`

	// Message is the error text.
	Message string `json:"message"`
}

// ImportSummary is the final result of one import run.
// It is produced exactly once, when every source worker and every pipeline
// has finished, and feeds the report writers.
type ImportSummary struct {
	// RunID is the unique identifier of this import run.
	RunID string `json:"runId"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// Sources lists per-source results in launch order.
	Sources []SourceSummary `json:"sources"`

	// GamesFound is the number of pipelines created, i.e. games that were
	// registered (duplicates excluded).
	GamesFound int `json:"gamesFound"`

	// GamesImported is the number of registered games that are neither
	// excluded nor removed. This is the count surfaced to the user.
	GamesImported int `json:"gamesImported"`

	// GamesExcluded is the number of registered games that matched an
	// exclude pattern.
	GamesExcluded int `json:"gamesExcluded"`

	// GamesRemoved is the number of registered games previously removed
	// from the library.
	GamesRemoved int `json:"gamesRemoved"`

	// StageErrors holds every error collected from the pipeline stages,
	// in pipeline creation order.
	StageErrors []StageError `json:"stageErrors,omitempty"`
}

// ErrorCount returns the number of collected stage errors.
func (s *ImportSummary) ErrorCount() int {
	return len(s.StageErrors)
}

// ErrorsByStage groups the collected stage errors by stage kind.
// This is the view the error report renders: one section per stage type.
func (s *ImportSummary) ErrorsByStage() map[string][]StageError {
	if len(s.StageErrors) == 0 {
		return nil
	}
	grouped := make(map[string][]StageError)
	for _, e := range s.StageErrors {
		grouped[e.Stage] = append(grouped[e.Stage], e)
	}
	return grouped
}
