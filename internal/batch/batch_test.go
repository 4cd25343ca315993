package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"mailbeacon/internal/beacon"
	"mailbeacon/internal/processor"
)

// S6: a batch of 3 contacts, middle one with empty domain, still yields
// three shaped results in order.
func TestRunBatchIsolation(t *testing.T) {
	contacts := []beacon.ContactInput{
		{FirstName: "A", LastName: "One", Domain: "one.com"},
		{FirstName: "B", LastName: "Two"}, // no domain
		{FirstName: "C", LastName: "Three", Domain: "three.com"},
	}

	process := func(_ context.Context, c beacon.ContactInput) processor.ProcessingResult {
		if c.Domain == "" {
			reason := "insufficient input: domain or url"
			return processor.ProcessingResult{Input: c, EmailFindingSkipped: true, EmailFindingReason: &reason}
		}
		return processor.ProcessingResult{Input: c}
	}

	results := Run(context.Background(), contacts, 2, process)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].EmailFindingSkipped {
		t.Errorf("results[0] should not be skipped")
	}
	if !results[1].EmailFindingSkipped || results[1].EmailFindingReason == nil || *results[1].EmailFindingReason == "" {
		t.Errorf("results[1] should be a skipped result with a reason, got %+v", results[1])
	}
	if results[2].EmailFindingSkipped {
		t.Errorf("results[2] should not be skipped")
	}
}

func TestRunEmptyInput(t *testing.T) {
	results := Run(context.Background(), nil, 4, func(context.Context, beacon.ContactInput) processor.ProcessingResult {
		t.Fatal("process should not be called for empty input")
		return processor.ProcessingResult{}
	})
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	const n = 10
	const limit = 3
	contacts := make([]beacon.ContactInput, n)

	var mu sync.Mutex
	var current, maxSeen int
	release := make(chan struct{})

	process := func(ctx context.Context, c beacon.ContactInput) processor.ProcessingResult {
		mu.Lock()
		current++
		if current > maxSeen {
			maxSeen = current
		}
		mu.Unlock()

		<-release

		mu.Lock()
		current--
		mu.Unlock()
		return processor.ProcessingResult{Input: c}
	}

	done := make(chan []processor.ProcessingResult)
	go func() {
		done <- Run(context.Background(), contacts, limit, process)
	}()

	// Give the pool a moment to saturate at its cap, then release all
	// workers together.
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-done

	if maxSeen > limit {
		t.Errorf("observed %d concurrent workers, want <= %d", maxSeen, limit)
	}
	if maxSeen < 1 {
		t.Errorf("observed 0 concurrent workers; test fixture did not exercise concurrency")
	}
}
