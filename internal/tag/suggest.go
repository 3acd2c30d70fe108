package tag

import (
	"context"
	"sync"
	"time"
)

// MinDescriptionLen is the shortest description worth suggesting for.
// Matches the task description lower bound.
const MinDescriptionLen = 10

// Suggester produces candidate tag labels for a task description.
// Implementations may call out over the network; a failed or timed-out
// call is treated by callers as "no suggestions", never as a hard error.
type Suggester interface {
	Suggest(ctx context.Context, description string) ([]string, error)
}

// SuggesterFunc adapts a function to the Suggester interface.
type SuggesterFunc func(ctx context.Context, description string) ([]string, error)

func (f SuggesterFunc) Suggest(ctx context.Context, description string) ([]string, error) {
	return f(ctx, description)
}

// StaticSuggester returns a fixed candidate list. Dev/test use.
type StaticSuggester []string

func (s StaticSuggester) Suggest(context.Context, string) ([]string, error) {
	return []string(s), nil
}

// Fetcher debounces description edits and fetches suggestions once
// input settles. Each edit supersedes any in-flight fetch: a stale
// fetch's result is discarded, never applied.
type Fetcher struct {
	suggester Suggester
	debounce  time.Duration
	timeout   time.Duration
	apply     func(candidates []string)

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewFetcher builds a Fetcher that calls apply with the raw candidate
// list whenever a non-superseded fetch completes. apply runs on the
// fetch goroutine; the caller owns any synchronization around the Set
// it feeds.
func NewFetcher(s Suggester, debounce, timeout time.Duration, apply func([]string)) *Fetcher {
	if debounce <= 0 {
		debounce = 1500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Fetcher{
		suggester: s,
		debounce:  debounce,
		timeout:   timeout,
		apply:     apply,
	}
}

// DescriptionChanged records a new description. Any pending or
// in-flight fetch is invalidated. A fetch is scheduled only when the
// description passes the minimum-length rule.
func (f *Fetcher) DescriptionChanged(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gen++
	f.stopLocked()

	if len(description) < MinDescriptionLen {
		return
	}

	gen := f.gen
	f.timer = time.AfterFunc(f.debounce, func() {
		f.fetch(gen, description)
	})
}

// Stop cancels any pending or in-flight fetch. Further edits may still
// be submitted afterwards.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.stopLocked()
}

func (f *Fetcher) stopLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) fetch(gen uint64, description string) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	f.cancel = cancel
	f.mu.Unlock()

	candidates, err := f.suggester.Suggest(ctx, description)
	cancel()

	f.mu.Lock()
	stale := gen != f.gen
	if f.cancel != nil && gen == f.gen {
		f.cancel = nil
	}
	f.mu.Unlock()

	if stale || err != nil {
		// Errors (including timeouts) mean "no suggestions", and a
		// superseded fetch must not touch the list at all.
		return
	}
	f.apply(candidates)
}
