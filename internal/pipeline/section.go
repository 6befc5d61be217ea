package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/llm"
)

// SummarizeSection summarizes one chunk, retrying up to retries more times.
//
// A payload-too-large rejection re-splits the chunk at half its length and
// summarizes the pieces in order. Pieces keep the parent's ordinal and total
// in their prompts. Any other failure waits RetryDelay and retries the same
// chunk. Once retries reach zero the last error is returned.
func (p *Pipeline) SummarizeSection(ctx context.Context, c chunker.Chunk, retries int) (string, error) {
	if err := p.wait(ctx, p.opts.Policy.InitialDelay); err != nil {
		return "", err
	}

	out, err := p.llm.Complete(ctx, llm.Request{Prompt: llm.SectionPrompt(c.Text, c.Ordinal, c.Total)})
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if retries <= 0 {
		return "", fmt.Errorf("section %s: retries exhausted: %w", c.Label(), err)
	}

	log := p.log.With("section", c.Label(), "retries_left", retries)
	if llm.IsPayloadTooLarge(err) {
		log.Warn("section too large, re-splitting", "chars", utf8.RuneCountInString(c.Text))
		return p.resplit(ctx, c, retries-1, err)
	}

	log.Warn("section summary failed, retrying", "error", err)
	if err := p.wait(ctx, p.opts.Policy.RetryDelay); err != nil {
		return "", err
	}
	return p.SummarizeSection(ctx, c, retries-1)
}

// resplit cuts c into smaller pieces and summarizes them one after another,
// so a chunk never holds more than one provider call at a time.
func (p *Pipeline) resplit(ctx context.Context, c chunker.Chunk, retries int, cause error) (string, error) {
	n := utf8.RuneCountInString(c.Text)
	size := n / 2
	if size < 1 {
		return "", fmt.Errorf("section %s cannot be split further: %w", c.Label(), cause)
	}
	overlap := min(p.opts.ChunkOverlap, size/10)

	pieces := chunker.Split(c.Text, size, overlap)
	if len(pieces) < 2 {
		return "", fmt.Errorf("section %s cannot be split further: %w", c.Label(), cause)
	}

	summaries := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		sub := chunker.Chunk{Text: piece, Ordinal: c.Ordinal, Total: c.Total}
		s, err := p.SummarizeSection(ctx, sub, retries)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, s)
	}
	return strings.Join(summaries, sectionSeparator), nil
}
