package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/llm"
)

// ErrEmptyDocument is returned when extraction produced no usable text.
var ErrEmptyDocument = errors.New("document has no extractable text")

// sectionSeparator joins section summaries, both for re-split pieces and
// for the combine prompt.
const sectionSeparator = "\n\n"

// Options controls chunking, batching and retry behavior.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	MaxRetries   int
	Policy       Policy
}

// DefaultOptions mirrors the production settings: 2000-character chunks with
// 100 characters of overlap, batches of 3, 3 retries and DefaultPolicy.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    chunker.DefaultChunkSize,
		ChunkOverlap: chunker.DefaultChunkOverlap,
		BatchSize:    3,
		MaxRetries:   DefaultMaxRetries,
		Policy:       DefaultPolicy(),
	}
}

// Pipeline summarizes a document: split, summarize each chunk in batches,
// then combine. It holds no per-document state and is safe for concurrent use.
type Pipeline struct {
	llm   llm.Completer
	opts  Options
	log   *slog.Logger
	sleep SleepFunc
}

// New builds a Pipeline. Non-positive ChunkSize and BatchSize fall back to
// DefaultOptions; negative overlap and retries are clamped to zero.
func New(completer llm.Completer, opts Options, log *slog.Logger) *Pipeline {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		llm:   completer,
		opts:  opts,
		log:   log,
		sleep: Sleep,
	}
}

// Options returns the effective options after defaults were applied.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Summarize runs the whole pipeline over text. Any chunk that exhausts its
// retries fails the document; no partial summary is returned.
func (p *Pipeline) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}

	run := p.withLogger(p.log.With("run_id", uuid.NewString()))
	start := time.Now()

	chunks := chunker.Split(text, p.opts.ChunkSize, p.opts.ChunkOverlap)
	run.log.Info("chunked document",
		"chunks", len(chunks),
		"chars", len([]rune(text)),
		"est_tokens", chunker.EstimateTokens(text),
	)

	summaries, err := run.ProcessAll(ctx, chunks)
	if err != nil {
		run.log.Error("section summaries failed", "error", err)
		return "", err
	}

	final, err := run.Combine(ctx, summaries)
	if err != nil {
		run.log.Error("combine failed", "error", err)
		return "", err
	}

	run.log.Info("summary complete",
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return final, nil
}

func (p *Pipeline) withLogger(log *slog.Logger) *Pipeline {
	cp := *p
	cp.log = log
	return &cp
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// Combine merges section summaries into one. A single summary is returned
// unchanged without calling the provider. There is no retry here: a failed
// synthesis call fails the document.
func (p *Pipeline) Combine(ctx context.Context, summaries []string) (string, error) {
	switch len(summaries) {
	case 0:
		return "", fmt.Errorf("combine: no section summaries")
	case 1:
		return summaries[0], nil
	}

	joined := strings.Join(summaries, sectionSeparator)
	if err := p.wait(ctx, p.opts.Policy.InitialDelay); err != nil {
		return "", err
	}
	out, err := p.llm.Complete(ctx, llm.Request{Prompt: llm.CombinePrompt(joined)})
	if err != nil {
		return "", fmt.Errorf("combine %d summaries: %w", len(summaries), err)
	}
	return out, nil
}
