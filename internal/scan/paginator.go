// Package scan drives paginated screener fetches and aggregates the results
// into one deduplicated instrument set.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/bkaradeniz/marketscan/internal/datasource"
	"github.com/bkaradeniz/marketscan/pkg/models"
)

// PageFetcher fetches one page of instruments at a row offset.
// datasource.ErrNotFound signals the clean end of results.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset int) ([]models.Instrument, error)
}

// PageFetcherFunc adapts a function to the PageFetcher interface.
type PageFetcherFunc func(ctx context.Context, offset int) ([]models.Instrument, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, offset int) ([]models.Instrument, error) {
	return f(ctx, offset)
}

// Result is the outcome of a pagination run. Partial success is the default
// semantics: a transport failure or cancellation truncates the run and the
// instruments gathered so far remain valid. Callers distinguish "zero results,
// probably a bad filter" (empty, not truncated) from "run cut short"
// (Truncated with Err set).
type Result struct {
	Instruments  []models.Instrument `json:"instruments"`
	PagesFetched int                 `json:"pages_fetched"`
	Truncated    bool                `json:"truncated"`
	Err          error               `json:"-"`
}

// Paginator runs up to MaxPages sequential fetch cycles at increasing offsets,
// with a politeness delay between cycles, and deduplicates the concatenated
// batches by ticker.
type Paginator struct {
	Fetcher  PageFetcher
	PageSize int
	MaxPages int

	// Delay is the minimum pause between consecutive cycles.
	Delay time.Duration

	// Progress, when set, is called after each completed cycle with the
	// cumulative fraction of MaxPages. Purely observational.
	Progress func(done, total int)
}

// Run executes the pagination. It always returns a Result; the error inside
// it never aborts the caller's view of what was already gathered.
func (p *Paginator) Run(ctx context.Context) *Result {
	res := &Result{}
	if p.Fetcher == nil || p.MaxPages <= 0 {
		return res
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = datasource.ScreenerPageSize
	}

	var batches [][]models.Instrument
	for page := 0; page < p.MaxPages; page++ {
		// Cancellation between cycles keeps partial results valid.
		if err := ctx.Err(); err != nil {
			res.Truncated = true
			res.Err = err
			break
		}

		if page > 0 && p.Delay > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				res.Truncated = true
				res.Err = err
				break
			}
		}

		rows, err := p.Fetcher.FetchPage(ctx, page*pageSize)
		if errors.Is(err, datasource.ErrNotFound) {
			break // clean end of results
		}
		if err != nil {
			// Transport failure truncates; what we have stays usable.
			res.Truncated = true
			res.Err = err
			break
		}
		if len(rows) == 0 {
			break
		}

		batches = append(batches, rows)
		res.PagesFetched++
		if p.Progress != nil {
			p.Progress(page+1, p.MaxPages)
		}
	}

	res.Instruments = Dedupe(batches)
	return res
}

// Dedupe concatenates batches in fetch order and keeps the first occurrence
// of each ticker. First-seen-wins is the fixed policy; it makes the final set
// independent of how later pages happen to overlap earlier ones.
func Dedupe(batches [][]models.Instrument) []models.Instrument {
	seen := make(map[string]struct{})
	var out []models.Instrument
	for _, batch := range batches {
		for _, inst := range batch {
			if _, dup := seen[inst.Ticker]; dup {
				continue
			}
			seen[inst.Ticker] = struct{}{}
			out = append(out, inst)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
