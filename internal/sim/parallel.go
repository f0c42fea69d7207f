package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Chunks splits [0, n) into at most workers contiguous ranges.
func Chunks(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if n <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}

	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// runParallel gives each worker a contiguous block of ions and a private
// tally. Tallies are merged in block order so the output matches a
// sequential run.
func (o *Orchestrator) runParallel(ctx context.Context, opts Options, workers int, p *progress) (*tally, error) {
	chunks := Chunks(opts.Ions, workers)
	tallies := make([]*tally, len(chunks))
	for i := range tallies {
		t, err := o.newTally(opts)
		if err != nil {
			return nil, err
		}
		tallies[i] = t
	}

	var g errgroup.Group
	for w, c := range chunks {
		g.Go(func() error {
			o.runRange(ctx, opts, tallies[w], c[0], c[1], p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, err := o.newTally(opts)
	if err != nil {
		return nil, err
	}
	for _, t := range tallies {
		total.merge(t)
	}
	return total, nil
}
