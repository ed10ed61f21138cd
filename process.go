package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ccollins476ad/imgfetch/download"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Tally counts the outcomes of a batch of fetches.
type Tally struct {
	Attempted int
	Succeeded int // Includes skipped.
	Skipped   int // Already on disk; nothing written.
	Failed    int
}

func (t *Tally) add(res download.Result) {
	t.Attempted++
	switch {
	case !res.OK():
		t.Failed++
	case res.Skipped:
		t.Succeeded++
		t.Skipped++
	default:
		t.Succeeded++
	}
}

// reporter prints results as they complete. It is safe for concurrent use.
type reporter struct {
	mtx   sync.Mutex
	w     io.Writer
	total int
	tally Tally
}

func (r *reporter) report(idx int, res download.Result) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	fmt.Fprintf(r.w, "\n--- Processing URL %d of %d ---\n", idx+1, r.total)
	fmt.Fprintln(r.w, res.Message())

	r.tally.add(res)
}

// processURLs fetches each of the given urls into the store. It processes
// them in parallel, cfg.Jobs goroutines. A failed url does not stop the
// batch; every url is attempted. It returns the tally of outcomes.
func processURLs(ctx context.Context, cfg *Config, s *download.Store, urls []string, w io.Writer) (Tally, error) {
	rep := &reporter{
		w:     w,
		total: len(urls),
	}

	if cfg.Jobs <= 1 {
		for i, u := range urls {
			if err := ctx.Err(); err != nil {
				return rep.tally, err
			}
			rep.report(i, s.Fetch(ctx, u))
		}
		return rep.tally, nil
	}

	g := &errgroup.Group{}

	startGoroutines := func() {
		idxChan := make(chan int)
		defer close(idxChan)

		// Create a set of goroutines to fetch urls in parallel.
		for i := 0; i < cfg.Jobs; i++ {
			g.Go(func() error {
				// Read url indices from the channel and fetch them
				// sequentially. Proceed until channel closed.
				for idx := range idxChan {
					log.Debugf("fetching url %d: %s", idx+1, urls[idx])
					rep.report(idx, s.Fetch(ctx, urls[idx]))
				}
				return nil
			})
		}

		for i := range urls {
			select {
			case <-ctx.Done():
				// Operation aborted. Return early to execute deferred channel
				// close.
				return

			case idxChan <- i:
			}
		}
	}

	startGoroutines()

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	return rep.tally, err
}

// summary describes the tally in a single line.
func summary(t Tally) string {
	if t.Succeeded == 0 {
		return fmt.Sprintf("no images fetched (%d failed)", t.Failed)
	}
	return fmt.Sprintf("%d image(s) fetched (%d already present, %d failed)", t.Succeeded, t.Skipped, t.Failed)
}
