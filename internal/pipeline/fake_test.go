package pipeline

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docqa/internal/llm"
)

// fakeLLM is a scripted Completer that records every request.
type fakeLLM struct {
	mu    sync.Mutex
	calls []llm.Request
	fn    func(ctx context.Context, req llm.Request, call int) (string, error)
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	f.mu.Unlock()
	if f.fn == nil {
		return "ok", nil
	}
	return f.fn(ctx, req, n)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Prompt
	}
	return out
}

// sleepRecorder replaces real waits and remembers what was requested.
type sleepRecorder struct {
	mu     sync.Mutex
	waits  []time.Duration
	onWait func(d time.Duration)
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	hook := s.onWait
	s.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

// Distinct durations so recorded waits identify which cooldown fired.
var testPolicy = Policy{
	InitialDelay:  1 * time.Millisecond,
	RetryDelay:    2 * time.Millisecond,
	BatchCooldown: 3 * time.Millisecond,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, f *fakeLLM, opts Options) (*Pipeline, *sleepRecorder) {
	t.Helper()
	p := New(f, opts, discardLogger())
	rec := &sleepRecorder{}
	p.sleep = rec.sleep
	return p, rec
}

var partRe = regexp.MustCompile(`part (\d+) of (\d+)`)

// partOf extracts the one-based part label from a section prompt.
func partOf(prompt string) (int, int) {
	m := partRe.FindStringSubmatch(prompt)
	if m == nil {
		return 0, 0
	}
	part, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])
	return part, total
}

// sectionText recovers the chunk text embedded in a section prompt.
func sectionText(prompt string) string {
	_, after, ok := strings.Cut(prompt, "):\n")
	if !ok {
		return ""
	}
	text, _, _ := strings.Cut(after, "\n\nKey points only")
	return text
}

func isCombinePrompt(prompt string) bool {
	return strings.HasPrefix(prompt, "Combine these section summaries")
}
