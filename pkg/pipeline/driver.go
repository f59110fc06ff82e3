package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zaddach/kuzu/internal/dblog"
)

// Driver runs one pipeline — a MorselSource feeding a chain of Operators
// into worker-local Sinks — across a bounded worker pool, replacing the
// teacher's raw sync.WaitGroup/channel plumbing in
// pkg/execution/query/parallel_seqscan.go with an errgroup.Group per
// SPEC_FULL.md's domain-stack wiring, while keeping the same shape: a
// shared work source, N workers pulling from it, and a single point
// (Wait/Merge here) where results come back together.
type Driver struct {
	Source     MorselSource
	Operators  []Operator
	NewSink    func() Sink
	NumWorkers int
}

// Run drains Source across NumWorkers goroutines (1 if unset), pushing
// every surviving chunk through a worker-local clone of Operators into a
// worker-local Sink, then merges all workers' sinks into one and returns
// it. The first operator or source error cancels every other worker via
// the errgroup's derived context.
func (d *Driver) Run(ctx context.Context) (Sink, error) {
	numWorkers := d.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	sinks := make([]Sink, numWorkers)
	for w := 0; w < numWorkers; w++ {
		w := w
		sinks[w] = d.NewSink()
		localOps := cloneAll(d.Operators)
		g.Go(func() error {
			return d.runWorker(gctx, localOps, sinks[w])
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	final := sinks[0]
	for _, s := range sinks[1:] {
		if err := final.Merge(s); err != nil {
			return nil, err
		}
	}
	dblog.Info("pipeline run complete", "workers", numWorkers)
	return final, nil
}

func (d *Driver) runWorker(ctx context.Context, ops []Operator, sink Sink) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, ok, err := d.Source.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		cur := chunk
		for _, op := range ops {
			cur, err = op.Execute(cur)
			if err != nil {
				return err
			}
			if cur == nil {
				break
			}
		}
		if cur == nil {
			continue
		}
		if err := sink.Consume(cur); err != nil {
			return err
		}
	}
}
