package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service fronts the Pipeline for request handlers: it answers repeated
// uploads of the same text from the summary cache and evicts stale entries
// in the background.
type Service struct {
	pipeline *Pipeline
	cache    *Cache // nil when caching is disabled
	log      *slog.Logger

	cleanupEvery time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewService wraps p. A non-positive cacheTTL disables the summary cache.
func NewService(p *Pipeline, cacheTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		pipeline:     p,
		log:          log,
		cleanupEvery: 5 * time.Minute,
	}
	if cacheTTL > 0 {
		s.cache = NewCache(cacheTTL)
	}
	return s
}

// Start launches the cache cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cache == nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.cache.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Summarize returns the final summary for text, from cache when possible.
// ctx is threaded through every cooldown and provider call, so a client
// disconnect abandons the run.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	var key string
	if s.cache != nil {
		key = cacheKey(text, s.pipeline.Options())
		if summary, ok := s.cache.Get(key); ok {
			s.log.Info("summary cache hit", "key", key[:16])
			return summary, nil
		}
	}

	summary, err := s.pipeline.Summarize(ctx, text)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Put(key, summary)
	}
	return summary, nil
}
