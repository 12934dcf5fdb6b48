package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ludokit/gamescan/internal/model"
	"github.com/ludokit/gamescan/internal/pipeline"
	"github.com/ludokit/gamescan/internal/source"
	"github.com/ludokit/gamescan/internal/stage"
)

// Registrar admits discovered games into the run. A nil pipeline with a
// nil error means the game was rejected as a duplicate; that is not a
// failure. store.Store is the production implementation.
type Registrar interface {
	Register(ctx context.Context, game *model.Game, metadata map[string]string) (*pipeline.Pipeline, error)
}

// Progress is one aggregate progress snapshot, delivered to the
// progress callback after every state change.
type Progress struct {
	// Fraction is the mean completion of all pipelines created so far,
	// in [0, 1]. It is 1 while no pipelines exist.
	Fraction float64

	// SourcesStarted is the number of added sources. Uninstalled sources
	// count; they finish without scanning.
	SourcesStarted int

	// SourcesFinished is the number of sources that have finished
	// scanning.
	SourcesFinished int

	// PipelinesCreated is the number of games registered so far.
	PipelinesCreated int

	// PipelinesFinished is the number of pipelines that have completed
	// every stage.
	PipelinesFinished int
}

// Importer runs one import: every added source is scanned concurrently
// and every discovered game is driven through its pipeline.
//
// An Importer is single-use: create one per run.
type Importer struct {
	// registrar admits discovered games.
	registrar Registrar

	// sources to scan, in the order they were added.
	sources []source.Source

	// runID identifies this run in logs, the summary, and library rows.
	runID string

	// concurrency caps the number of simultaneously scanning sources.
	// Zero means one worker per source.
	concurrency int

	// progressFn receives an aggregate snapshot after every state change.
	progressFn func(Progress)

	// finishedFn runs exactly once, when the run completes.
	finishedFn func()

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithRunID sets the run identifier. If unset, a random one is
// generated.
func WithRunID(runID string) Option {
	return func(i *Importer) {
		if runID != "" {
			i.runID = runID
		}
	}
}

// WithConcurrency caps the number of sources scanning at once. Zero or
// negative means no cap.
func WithConcurrency(n int) Option {
	return func(i *Importer) {
		i.concurrency = n
	}
}

// WithProgressFunc sets the progress callback. It is called from the
// coordinator goroutine; it must not block for long.
func WithProgressFunc(fn func(Progress)) Option {
	return func(i *Importer) {
		i.progressFn = fn
	}
}

// WithFinishedFunc sets a callback run exactly once at completion,
// before Run returns.
func WithFinishedFunc(fn func()) Option {
	return func(i *Importer) {
		i.finishedFn = fn
	}
}

// WithLogger sets a custom logger for the importer.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// New creates an Importer registering games through registrar.
func New(registrar Registrar, opts ...Option) *Importer {
	i := &Importer{
		registrar: registrar,
		runID:     uuid.NewString(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// RunID returns the identifier of this run.
func (i *Importer) RunID() string {
	return i.runID
}

// AddSource adds a source to scan. Adding two sources with the same ID
// keeps the first; sources form a set.
func (i *Importer) AddSource(src source.Source) {
	for _, existing := range i.sources {
		if existing.ID() == src.ID() {
			return
		}
	}
	i.sources = append(i.sources, src)
}

// Event kinds flowing from workers to the coordinator.
const (
	eventSourceFinished = iota
	eventPipelineCreated
	eventPipelineAdvanced
)

// event is one state change. The done field is a snapshot taken on the
// emitting goroutine at the moment of the change, so the coordinator
// never re-reads pipeline state that may have moved on.
type event struct {
	kind     int
	sourceID string
	found    int
	pipe     *pipeline.Pipeline
	done     bool
}

// Run scans every added source and drives every discovered game's
// pipeline to completion. It blocks until the run is complete or ctx is
// cancelled, and returns the summary either way; on cancellation the
// summary covers the work done so far and the error is ctx.Err().
func (i *Importer) Run(ctx context.Context) (*model.ImportSummary, error) {
	startedAt := time.Now()

	summary := &model.ImportSummary{
		RunID:     i.runID,
		StartedAt: startedAt,
	}

	// Partition sources before anything is launched: an uninstalled
	// source gets no worker, but it still counts as started and reports
	// finished immediately, so the started counter always equals the
	// number of added sources.
	var active []source.Source
	var idle []string
	for _, src := range i.sources {
		installed := src.Installed()
		summary.Sources = append(summary.Sources, model.SourceSummary{
			ID:        src.ID(),
			Installed: installed,
		})
		if installed {
			active = append(active, src)
		} else {
			idle = append(idle, src.ID())
			i.logger.Info("source not installed, skipping", "source", src.ID())
		}
	}

	// sourcesStarted is fixed here, before any worker exists. Counting
	// at launch time instead would let an early worker finish while the
	// count is still climbing and trip completion too soon.
	sourcesStarted := len(i.sources)

	i.logger.Info("import started",
		"run", i.runID,
		"sources", sourcesStarted,
	)

	events := make(chan event, 64)

	g, gctx := errgroup.WithContext(ctx)
	if i.concurrency > 0 {
		g.SetLimit(i.concurrency)
	}

	// Workers are launched off the coordinator goroutine: with a
	// concurrency cap, Go blocks for a free slot, and the coordinator
	// must already be draining events by then. The channel closes when
	// every worker has returned, so by then every event has been sent.
	go func() {
		for _, id := range idle {
			events <- event{kind: eventSourceFinished, sourceID: id}
		}
		for _, src := range active {
			g.Go(func() error {
				i.scanSource(gctx, src, events)
				return nil
			})
		}
		_ = g.Wait()
		close(events)
	}()

	st := &runState{
		sourcesStarted: sourcesStarted,
		foundBySource:  make(map[string]int),
	}

	// Initial report: a run with nothing to do must still deliver one
	// progress snapshot and complete.
	i.report(st)
	finalized := st.complete()
	if finalized {
		i.finalize()
	}

	for ev := range events {
		st.apply(ev)
		i.report(st)
		if !finalized && st.complete() {
			finalized = true
			i.finalize()
		}
	}

	i.summarize(summary, st)
	summary.Duration = time.Since(startedAt)

	if err := ctx.Err(); err != nil {
		i.logger.Warn("import cancelled", "run", i.runID, "err", err)
		return summary, err
	}

	i.logger.Info("import finished",
		"run", i.runID,
		"found", summary.GamesFound,
		"imported", summary.GamesImported,
		"errors", summary.ErrorCount(),
		"duration", summary.Duration,
	)
	return summary, nil
}

// scanSource is one source worker: pull scan results until the source
// is exhausted, registering each discovered game and driving its
// pipeline before pulling the next.
func (i *Importer) scanSource(ctx context.Context, src source.Source, events chan<- event) {
	logger := i.logger.With("source", src.ID())
	logger.Debug("scan started")

	found := 0
	it := src.Scan(ctx)
	for {
		if ctx.Err() != nil {
			break
		}

		result, err := it.Next(ctx)
		if errors.Is(err, source.Done) {
			break
		}
		if err != nil {
			// One broken element; the scan goes on.
			logger.Warn("scan element failed", "err", err)
			continue
		}

		switch result.Kind {
		case model.ResultDiscovered:
			found++
			i.importGame(ctx, result, events)
		case model.ResultSkipped:
			logger.Debug("element skipped")
		case model.ResultInvalid:
			logger.Warn("invalid element", "reason", result.Reason)
		}
	}

	events <- event{kind: eventSourceFinished, sourceID: src.ID(), found: found}
	logger.Debug("scan finished", "found", found)
}

// importGame registers one discovered game and, if it is admitted,
// drives its pipeline to completion on the calling worker.
func (i *Importer) importGame(ctx context.Context, result model.ScanResult, events chan<- event) {
	p, err := i.registrar.Register(ctx, result.Game, result.Metadata)
	if err != nil {
		i.logger.Warn("registration failed", "game", result.Game.ID, "err", err)
		return
	}
	if p == nil {
		// Duplicate; already being imported.
		return
	}

	// Subscribe before announcing the pipeline so no advance can be
	// emitted unobserved, and snapshot done on this goroutine so the
	// coordinator never double-counts a pipeline that raced ahead.
	p.OnAdvance(func(done bool) {
		events <- event{kind: eventPipelineAdvanced, pipe: p, done: done}
	})
	events <- event{kind: eventPipelineCreated, pipe: p, done: p.Done()}

	if err := p.Run(ctx); err != nil {
		i.logger.Debug("pipeline interrupted", "game", result.Game.ID, "err", err)
	}
}

// runState is the coordinator's bookkeeping. It lives on one goroutine;
// nothing here is shared.
type runState struct {
	sourcesStarted    int
	sourcesFinished   int
	pipelinesCreated  int
	pipelinesFinished int
	pipelines         []*pipeline.Pipeline
	foundBySource     map[string]int
}

// apply folds one event into the counters.
func (st *runState) apply(ev event) {
	switch ev.kind {
	case eventSourceFinished:
		st.sourcesFinished++
		st.foundBySource[ev.sourceID] = ev.found
	case eventPipelineCreated:
		st.pipelinesCreated++
		st.pipelines = append(st.pipelines, ev.pipe)
		// A pipeline with no stages is born complete and will never
		// advance, so it is accounted for here.
		if ev.done {
			st.pipelinesFinished++
		}
	case eventPipelineAdvanced:
		if ev.done {
			st.pipelinesFinished++
		}
	}
}

// complete reports whether the run is finished: every launched source
// has reported back and every created pipeline has finished. Both pairs
// come from the same event stream, so the comparison is consistent.
func (st *runState) complete() bool {
	return st.sourcesStarted == st.sourcesFinished &&
		st.pipelinesCreated == st.pipelinesFinished
}

// fraction is the mean completion of all created pipelines, 1 for none.
func (st *runState) fraction() float64 {
	if len(st.pipelines) == 0 {
		return 1
	}
	total := 0.0
	for _, p := range st.pipelines {
		total += p.Progress()
	}
	return total / float64(len(st.pipelines))
}

// report delivers one progress snapshot.
func (i *Importer) report(st *runState) {
	if i.progressFn == nil {
		return
	}
	i.progressFn(Progress{
		Fraction:          st.fraction(),
		SourcesStarted:    st.sourcesStarted,
		SourcesFinished:   st.sourcesFinished,
		PipelinesCreated:  st.pipelinesCreated,
		PipelinesFinished: st.pipelinesFinished,
	})
}

// finalize runs the completion callback. Callers guarantee exactly one
// invocation per run.
func (i *Importer) finalize() {
	i.logger.Debug("import complete", "run", i.runID)
	if i.finishedFn != nil {
		i.finishedFn()
	}
}

// summarize folds the coordinator's final state into the summary.
func (i *Importer) summarize(summary *model.ImportSummary, st *runState) {
	for idx := range summary.Sources {
		summary.Sources[idx].Found = st.foundBySource[summary.Sources[idx].ID]
	}

	summary.GamesFound = st.pipelinesCreated
	for _, p := range st.pipelines {
		game := p.Game()
		switch {
		case game.Excluded:
			summary.GamesExcluded++
		case game.Removed:
			summary.GamesRemoved++
		default:
			summary.GamesImported++
		}

		for _, err := range p.Errors() {
			summary.StageErrors = append(summary.StageErrors, toStageError(err))
		}
	}
}

// toStageError flattens a stage failure for the summary, keeping the
// stage and game attribution when the error carries it.
func toStageError(err error) model.StageError {
	var stageErr *stage.Error
	if errors.As(err, &stageErr) {
		return model.StageError{
			Stage:    string(stageErr.Kind),
			GameID:   stageErr.GameID,
			GameName: stageErr.GameName,
			Message:  stageErr.Err.Error(),
		}
	}
	return model.StageError{Message: err.Error()}
}
