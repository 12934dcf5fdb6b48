// Package stage defines the units of per-game pipeline work.
//
// A stage enriches or persists one game: cleaning source metadata,
// fetching cover art, writing the library row. Stages declare ordering
// constraints on other stage kinds and whether completing the import
// should wait for them; the pipeline package turns those declarations
// into an execution order.
//
// Stages report failures by returning errors. A failing stage never
// aborts its pipeline: the remaining stages still run, and the errors
// surface in the import summary.
package stage
