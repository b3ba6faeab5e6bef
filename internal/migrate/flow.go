package migrate

import (
	"context"
	"iter"
	"time"

	"github.com/temirov/repomove/internal/bitbucket"
)

// RepositorySequence is the lazily evaluated stream of listing entries.
type RepositorySequence = iter.Seq2[bitbucket.RepositorySummary, error]

// Limit stops the sequence after maximum entries. Errors do not count toward the cap.
func Limit(sequence RepositorySequence, maximum int) RepositorySequence {
	return func(yield func(bitbucket.RepositorySummary, error) bool) {
		if maximum <= 0 {
			return
		}
		emitted := 0
		for summary, sequenceError := range sequence {
			if sequenceError != nil {
				yield(bitbucket.RepositorySummary{}, sequenceError)
				return
			}
			if !yield(summary, nil) {
				return
			}
			emitted++
			if emitted >= maximum {
				return
			}
		}
	}
}

// Exclude drops entries whose slug is in excludedSlugs.
func Exclude(sequence RepositorySequence, excludedSlugs []string) RepositorySequence {
	excluded := make(map[string]struct{}, len(excludedSlugs))
	for _, slug := range excludedSlugs {
		excluded[slug] = struct{}{}
	}

	return func(yield func(bitbucket.RepositorySummary, error) bool) {
		for summary, sequenceError := range sequence {
			if sequenceError != nil {
				yield(bitbucket.RepositorySummary{}, sequenceError)
				return
			}
			if _, skip := excluded[summary.Slug]; skip {
				continue
			}
			if !yield(summary, nil) {
				return
			}
		}
	}
}

// Throttle pauses for delay before every entry except the first.
// Cancellation of executionContext ends the wait and yields the context error.
func Throttle(executionContext context.Context, sequence RepositorySequence, delay time.Duration) RepositorySequence {
	return func(yield func(bitbucket.RepositorySummary, error) bool) {
		first := true
		for summary, sequenceError := range sequence {
			if sequenceError != nil {
				yield(bitbucket.RepositorySummary{}, sequenceError)
				return
			}
			if !first && delay > 0 {
				if waitError := wait(executionContext, delay); waitError != nil {
					yield(bitbucket.RepositorySummary{}, waitError)
					return
				}
			}
			first = false
			if !yield(summary, nil) {
				return
			}
		}
	}
}

// FlowSettings bundles the flow control parameters of a run.
type FlowSettings struct {
	MaxRepositories      int
	ExcludedRepositories []string
	ItemDelay            time.Duration
}

// ApplyFlowControl composes exclusion, the safety cap and the inter-item pause.
func ApplyFlowControl(executionContext context.Context, sequence RepositorySequence, settings FlowSettings) RepositorySequence {
	excluded := Exclude(sequence, settings.ExcludedRepositories)
	limited := Limit(excluded, settings.MaxRepositories)
	return Throttle(executionContext, limited, settings.ItemDelay)
}

func wait(executionContext context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-executionContext.Done():
		return executionContext.Err()
	}
}
