package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ludokit/gamescan/internal/model"
	"github.com/ludokit/gamescan/internal/source"
	"github.com/ludokit/gamescan/internal/stage"
	"github.com/ludokit/gamescan/internal/store"
)

// fakeSource serves a fixed sequence of scan results.
type fakeSource struct {
	id        string
	installed bool
	results   []model.ScanResult
	errs      []error // interleaved before the results
}

func (f *fakeSource) ID() string      { return f.id }
func (f *fakeSource) Installed() bool { return f.installed }

func (f *fakeSource) Scan(context.Context) source.Iterator {
	return &fakeIterator{src: f}
}

type fakeIterator struct {
	src *fakeSource
	pos int
}

func (it *fakeIterator) Next(context.Context) (model.ScanResult, error) {
	if it.pos < len(it.src.errs) {
		err := it.src.errs[it.pos]
		it.pos++
		return model.ScanResult{}, err
	}
	idx := it.pos - len(it.src.errs)
	if idx >= len(it.src.results) {
		return model.ScanResult{}, source.Done
	}
	it.pos++
	return it.src.results[idx], nil
}

// countingStage records how many games it ran against.
type countingStage struct {
	kind     stage.Kind
	after    []stage.Kind
	mu       sync.Mutex
	ran      int
	errAfter error // returned for every game when set
	sleep    time.Duration
}

func (c *countingStage) Kind() stage.Kind       { return c.kind }
func (c *countingStage) RunAfter() []stage.Kind { return c.after }
func (c *countingStage) Blocking() bool         { return true }

func (c *countingStage) Run(_ context.Context, game *model.Game) []error {
	if c.sleep > 0 {
		time.Sleep(c.sleep)
	}
	c.mu.Lock()
	c.ran++
	c.mu.Unlock()
	if c.errAfter != nil {
		return []error{&stage.Error{Kind: c.kind, GameID: game.ID, GameName: game.Name, Err: c.errAfter}}
	}
	return nil
}

func (c *countingStage) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ran
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func discovered(sourceID string, n int) []model.ScanResult {
	results := make([]model.ScanResult, 0, n)
	for i := range n {
		results = append(results, model.Discovered(&model.Game{
			ID:       fmt.Sprintf("%s_%d", sourceID, i),
			SourceID: sourceID,
			Name:     fmt.Sprintf("Game %d", i),
		}, nil))
	}
	return results
}

func newStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	opts = append(opts, store.WithLogger(quietLogger()))
	return store.New(opts...)
}

// TestRun tests the full orchestration of sources and pipelines.
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("imports from concurrent sources", func(t *testing.T) {
		t.Parallel()

		metadata := &countingStage{kind: "metadata", sleep: time.Millisecond}
		save := &countingStage{kind: "save", after: []stage.Kind{"metadata"}}

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{metadata, save})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 5)})
		imp.AddSource(&fakeSource{id: "desktop", installed: true, results: discovered("desktop", 3)})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.GamesFound != 8 {
			t.Errorf("GamesFound = %d, want 8", summary.GamesFound)
		}
		if summary.GamesImported != 8 {
			t.Errorf("GamesImported = %d, want 8", summary.GamesImported)
		}
		if metadata.count() != 8 || save.count() != 8 {
			t.Errorf("stage runs = %d/%d, want 8/8", metadata.count(), save.count())
		}
		if len(summary.Sources) != 2 {
			t.Fatalf("Sources = %+v", summary.Sources)
		}
		for _, src := range summary.Sources {
			want := map[string]int{"steam": 5, "desktop": 3}[src.ID]
			if src.Found != want {
				t.Errorf("source %s Found = %d, want %d", src.ID, src.Found, want)
			}
		}
	})

	t.Run("progress climbs to one and finishes exactly once", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var snapshots []Progress
		finished := 0

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{&countingStage{kind: "a"}})),
			WithLogger(quietLogger()),
			WithProgressFunc(func(p Progress) {
				mu.Lock()
				snapshots = append(snapshots, p)
				mu.Unlock()
			}),
			WithFinishedFunc(func() {
				mu.Lock()
				finished++
				mu.Unlock()
			}),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 4)})

		if _, err := imp.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if finished != 1 {
			t.Errorf("finished callback ran %d times, want 1", finished)
		}
		if len(snapshots) == 0 {
			t.Fatal("no progress delivered")
		}
		last := snapshots[len(snapshots)-1]
		if last.Fraction != 1 {
			t.Errorf("final Fraction = %v, want 1", last.Fraction)
		}
		if last.PipelinesCreated != 4 || last.PipelinesFinished != 4 {
			t.Errorf("final counters = %+v", last)
		}
		if last.SourcesStarted != 1 || last.SourcesFinished != 1 {
			t.Errorf("final source counters = %+v", last)
		}
	})

	t.Run("no sources still completes with one report", func(t *testing.T) {
		t.Parallel()

		reports := 0
		finished := 0
		imp := New(
			newStore(t),
			WithLogger(quietLogger()),
			WithProgressFunc(func(p Progress) {
				reports++
				if p.Fraction != 1 {
					t.Errorf("Fraction = %v, want 1 for empty run", p.Fraction)
				}
			}),
			WithFinishedFunc(func() { finished++ }),
		)

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if reports != 1 || finished != 1 {
			t.Errorf("reports = %d, finished = %d, want 1/1", reports, finished)
		}
		if summary.GamesFound != 0 {
			t.Errorf("GamesFound = %d", summary.GamesFound)
		}
	})

	t.Run("uninstalled sources are recorded but not scanned", func(t *testing.T) {
		t.Parallel()

		var last Progress
		imp := New(newStore(t),
			WithLogger(quietLogger()),
			WithProgressFunc(func(p Progress) { last = p }),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: false, results: discovered("steam", 9)})
		imp.AddSource(&fakeSource{id: "desktop", installed: true, results: discovered("desktop", 1)})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.GamesFound != 1 {
			t.Errorf("GamesFound = %d, want 1", summary.GamesFound)
		}
		if len(summary.Sources) != 2 {
			t.Fatalf("Sources = %+v", summary.Sources)
		}
		if summary.Sources[0].ID != "steam" || summary.Sources[0].Installed {
			t.Errorf("steam summary = %+v", summary.Sources[0])
		}
		if last.SourcesStarted != 2 || last.SourcesFinished != 2 {
			t.Errorf("final source counters = %d/%d, want 2/2 (uninstalled sources count)",
				last.SourcesStarted, last.SourcesFinished)
		}
	})

	t.Run("duplicate games across sources are counted once", func(t *testing.T) {
		t.Parallel()

		same := func() []model.ScanResult {
			return []model.ScanResult{model.Discovered(&model.Game{
				ID: "steam_400", SourceID: "steam", Name: "Portal",
			}, nil)}
		}

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{&countingStage{kind: "a"}})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "one", installed: true, results: same()})
		imp.AddSource(&fakeSource{id: "two", installed: true, results: same()})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.GamesFound != 1 {
			t.Errorf("GamesFound = %d, want 1", summary.GamesFound)
		}
		// Both sources found it; only one pipeline was created.
		total := summary.Sources[0].Found + summary.Sources[1].Found
		if total != 2 {
			t.Errorf("summed Found = %d, want 2", total)
		}
	})

	t.Run("excluded games finish without stage work", func(t *testing.T) {
		t.Parallel()

		work := &countingStage{kind: "a"}
		imp := New(
			newStore(t,
				store.WithStages([]stage.Stage{work}),
				store.WithExcludePatterns([]string{"game 1"}),
			),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 3)})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.GamesFound != 3 {
			t.Errorf("GamesFound = %d, want 3", summary.GamesFound)
		}
		if summary.GamesExcluded != 1 {
			t.Errorf("GamesExcluded = %d, want 1", summary.GamesExcluded)
		}
		if summary.GamesImported != 2 {
			t.Errorf("GamesImported = %d, want 2", summary.GamesImported)
		}
		if work.count() != 2 {
			t.Errorf("stage ran %d times, want 2", work.count())
		}
	})

	t.Run("stage errors surface in the summary without stopping the run", func(t *testing.T) {
		t.Parallel()

		broken := &countingStage{kind: "artwork", errAfter: errors.New("no network")}
		save := &countingStage{kind: "save", after: []stage.Kind{"artwork"}}

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{broken, save})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 3)})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.GamesImported != 3 {
			t.Errorf("GamesImported = %d, want 3", summary.GamesImported)
		}
		if save.count() != 3 {
			t.Errorf("save ran %d times despite artwork failures, want 3", save.count())
		}
		if summary.ErrorCount() != 3 {
			t.Fatalf("ErrorCount = %d, want 3", summary.ErrorCount())
		}
		grouped := summary.ErrorsByStage()
		if len(grouped["artwork"]) != 3 {
			t.Errorf("grouped errors = %+v", grouped)
		}
	})

	t.Run("scan element errors cost one element each", func(t *testing.T) {
		t.Parallel()

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{&countingStage{kind: "a"}})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{
			id:        "steam",
			installed: true,
			errs:      []error{errors.New("corrupt manifest"), errors.New("another")},
			results:   discovered("steam", 2),
		})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.GamesFound != 2 {
			t.Errorf("GamesFound = %d, want 2", summary.GamesFound)
		}
	})

	t.Run("registration failures do not abort the source", func(t *testing.T) {
		t.Parallel()

		results := discovered("steam", 3)
		results[1].Game.ID = "" // store rejects missing identity

		imp := New(
			newStore(t, store.WithStages([]stage.Stage{&countingStage{kind: "a"}})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: results})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.GamesImported != 2 {
			t.Errorf("GamesImported = %d, want 2", summary.GamesImported)
		}
	})

	t.Run("adding the same source twice keeps one", func(t *testing.T) {
		t.Parallel()

		imp := New(newStore(t), WithLogger(quietLogger()))
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 1)})
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 1)})

		summary, err := imp.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(summary.Sources) != 1 {
			t.Errorf("Sources = %+v, want one", summary.Sources)
		}
	})

	t.Run("cancellation returns the partial summary", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		slow := &countingStage{kind: "a", sleep: 5 * time.Millisecond}
		imp := New(
			newStore(t, store.WithStages([]stage.Stage{slow})),
			WithLogger(quietLogger()),
		)
		imp.AddSource(&fakeSource{id: "steam", installed: true, results: discovered("steam", 50)})

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		summary, err := imp.Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if summary == nil {
			t.Fatal("expected a partial summary")
		}
		if summary.GamesFound >= 50 {
			t.Errorf("GamesFound = %d, expected an interrupted run", summary.GamesFound)
		}
	})

	t.Run("concurrency cap is honored", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		inFlight, peak := 0, 0
		track := func() func() {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			return func() {
				mu.Lock()
				inFlight--
				mu.Unlock()
			}
		}

		imp := New(newStore(t), WithLogger(quietLogger()), WithConcurrency(1))
		for i := range 4 {
			id := fmt.Sprintf("src%d", i)
			imp.AddSource(&trackingSource{
				fakeSource: fakeSource{id: id, installed: true, results: discovered(id, 1)},
				track:      track,
			})
		}

		if _, err := imp.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if peak != 1 {
			t.Errorf("peak concurrent scans = %d, want 1", peak)
		}
	})
}

// trackingSource wraps fakeSource to observe concurrent scans.
type trackingSource struct {
	fakeSource
	track func() func()
}

func (s *trackingSource) Scan(ctx context.Context) source.Iterator {
	return &trackingIterator{inner: s.fakeSource.Scan(ctx), release: s.track()}
}

type trackingIterator struct {
	inner    source.Iterator
	release  func()
	released bool
}

func (it *trackingIterator) Next(ctx context.Context) (model.ScanResult, error) {
	result, err := it.inner.Next(ctx)
	if errors.Is(err, source.Done) && !it.released {
		it.released = true
		it.release()
	}
	return result, err
}
