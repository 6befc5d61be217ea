package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docqa/internal/chunker"
)

// batch is a half-open range of chunk indexes processed together.
type batch struct {
	start, end int
}

func partition(n, size int) []batch {
	if size <= 0 {
		size = 1
	}
	var out []batch
	for i := 0; i < n; i += size {
		out = append(out, batch{start: i, end: min(i+size, n)})
	}
	return out
}

// ProcessAll summarizes chunks in consecutive batches of BatchSize. Chunks in
// a batch run concurrently; BatchCooldown separates batches. Results keep the
// input order. The first chunk to exhaust its retries cancels its batch and
// fails the whole call.
func (p *Pipeline) ProcessAll(ctx context.Context, parts []string) ([]string, error) {
	chunks := chunker.Number(parts)
	results := make([]string, len(chunks))
	batches := partition(len(chunks), p.opts.BatchSize)

	for bi, b := range batches {
		if bi > 0 {
			p.log.Debug("batch cooldown", "next_batch", bi+1, "delay", p.opts.Policy.BatchCooldown)
			if err := p.wait(ctx, p.opts.Policy.BatchCooldown); err != nil {
				return nil, err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := b.start; i < b.end; i++ {
			i := i
			c := chunks[i]
			g.Go(func() error {
				s, err := p.SummarizeSection(gctx, c, p.opts.MaxRetries)
				if err != nil {
					return fmt.Errorf("chunk %d: %w", i, err)
				}
				results[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		p.log.Debug("batch complete", "batch", bi+1, "of", len(batches), "chunks", b.end-b.start)
	}

	return results, nil
}
