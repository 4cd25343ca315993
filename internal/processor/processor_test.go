package processor

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"mailbeacon/internal/beacon"
)

type fakeDiscoverer struct {
	result beacon.Result
}

func (f fakeDiscoverer) Discover(context.Context, string, string, string, string) beacon.Result {
	return f.result
}

func TestProcessInsufficientName(t *testing.T) {
	p := &Processor{Discoverer: fakeDiscoverer{}, Logger: zap.NewNop(), MaxAlternatives: 5}
	result := p.Process(context.Background(), beacon.ContactInput{Domain: "example.com"})
	if !result.EmailFindingSkipped {
		t.Fatal("expected EmailFindingSkipped = true")
	}
	if result.EmailFindingReason == nil {
		t.Fatal("expected a skip reason")
	}
}

// S5: single-token full name splits to first == last, no crash.
func TestProcessSingleTokenFullName(t *testing.T) {
	p := &Processor{
		Discoverer: fakeDiscoverer{result: beacon.Result{
			FoundEmails: []beacon.FoundEmail{{Email: "alice@x.io", Confidence: 4, Source: beacon.SourcePattern}},
		}},
		Logger:          zap.NewNop(),
		MaxAlternatives: 5,
	}
	result := p.Process(context.Background(), beacon.ContactInput{FullName: "Alice", Domain: "x.io"})
	if result.EmailFindingSkipped {
		t.Fatalf("unexpected skip: %v", result.EmailFindingReason)
	}
}

// S6: a contact with no domain is skipped with a non-empty reason;
// batch isolation (that other contacts are unaffected) is covered in
// internal/batch's tests.
func TestProcessMissingDomainSkipped(t *testing.T) {
	p := &Processor{Discoverer: fakeDiscoverer{}, Logger: zap.NewNop(), MaxAlternatives: 5}
	result := p.Process(context.Background(), beacon.ContactInput{FirstName: "Jane", LastName: "Doe"})
	if !result.EmailFindingSkipped {
		t.Fatal("expected EmailFindingSkipped = true")
	}
	if result.EmailFindingReason == nil || *result.EmailFindingReason == "" {
		t.Fatal("expected a non-empty skip reason")
	}
}

func TestProcessAlternativesCapped(t *testing.T) {
	p := &Processor{
		Discoverer: fakeDiscoverer{result: beacon.Result{
			MostLikelyEmail: "john@example.com",
			ConfidenceScore: 9,
			FoundEmails: []beacon.FoundEmail{
				{Email: "john@example.com", Confidence: 9},
				{Email: "j.doe@example.com", Confidence: 5},
				{Email: "jd@example.com", Confidence: 4},
				{Email: "doe@example.com", Confidence: 3},
			},
		}},
		Logger:          zap.NewNop(),
		MaxAlternatives: 2,
	}
	result := p.Process(context.Background(), beacon.ContactInput{FirstName: "John", LastName: "Doe", Domain: "example.com"})
	if len(result.EmailAlternatives) != 2 {
		t.Errorf("EmailAlternatives = %v, want length 2", result.EmailAlternatives)
	}
	// The core Result itself must retain the full, uncapped list.
	if len(result.EmailDiscoveryResults.FoundEmails) != 4 {
		t.Errorf("core Result was trimmed; expected full list of 4, got %d", len(result.EmailDiscoveryResults.FoundEmails))
	}
}
