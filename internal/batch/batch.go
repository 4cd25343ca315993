// Package batch fans a slice of contacts out across a bounded pool of
// goroutines, preserving input order in the result slice. Modeled on the
// semaphore-gated worker pattern used for batch SMTP verification.
package batch

import (
	"context"
	"sync"

	"mailbeacon/internal/beacon"
	"mailbeacon/internal/processor"
)

// Run processes contacts concurrently, bounded by maxConcurrency, and
// returns results in the same order as contacts. A per-contact panic or
// error never fails the batch: a panic inside process yields that
// contact's result with EmailFindingError set, and process itself is
// expected to never return an error (see processor.Processor.Process).
func Run(ctx context.Context, contacts []beacon.ContactInput, maxConcurrency int, process func(context.Context, beacon.ContactInput) processor.ProcessingResult) []processor.ProcessingResult {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	results := make([]processor.ProcessingResult, len(contacts))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, contact := range contacts {
		i, contact := i, contact
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					msg := "internal error during processing"
					results[i] = processor.ProcessingResult{Input: contact, EmailFindingError: &msg}
				}
			}()
			results[i] = process(ctx, contact)
		}()
	}

	wg.Wait()
	return results
}
