// Package chat answers single-turn messages through the completion provider.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/pipeline"
)

// ErrEmptyMessage is returned for a blank message.
var ErrEmptyMessage = errors.New("no message provided")

// Options configures a Service.
type Options struct {
	MaxRetries int
	TruncateAt int // characters kept after a payload-too-large rejection
	Policy     pipeline.Policy
}

func DefaultOptions() Options {
	return Options{
		MaxRetries: pipeline.DefaultMaxRetries,
		TruncateAt: 1500,
		Policy:     pipeline.DefaultPolicy(),
	}
}

// Service forwards a message with a fixed system prompt and retries
// failures using the same cooldowns as the summarization pipeline.
type Service struct {
	llm   llm.Completer
	opts  Options
	log   *slog.Logger
	sleep pipeline.SleepFunc
}

func New(completer llm.Completer, opts Options, log *slog.Logger) *Service {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.TruncateAt <= 0 {
		opts.TruncateAt = 1500
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		llm:   completer,
		opts:  opts,
		log:   log,
		sleep: pipeline.Sleep,
	}
}

// Reply returns the model's answer to message verbatim. When every attempt
// fails the last provider error is returned, so callers can map its status.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}

	retries := s.opts.MaxRetries
	for {
		if err := s.sleep(ctx, s.opts.Policy.InitialDelay); err != nil {
			return "", err
		}

		out, err := s.llm.Complete(ctx, llm.Request{System: llm.ChatSystemPrompt, Prompt: message})
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if retries <= 0 {
			return "", err
		}

		if llm.IsPayloadTooLarge(err) {
			s.log.Warn("chat message too long, retrying truncated", "retries_left", retries)
			message = truncateRunes(message, s.opts.TruncateAt)
		} else {
			s.log.Warn("chat request failed, retrying", "retries_left", retries, "error", err)
		}
		retries--

		if err := s.sleep(ctx, s.opts.Policy.RetryDelay); err != nil {
			return "", err
		}
	}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
