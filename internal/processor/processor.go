// Package processor implements the Record Processor: validates contact
// input, normalizes it, invokes the orchestrator, and shapes the final
// transport-neutral result. It never returns a Go error to its caller;
// every outcome is expressed in the returned ProcessingResult.
package processor

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailbeacon/internal/beacon"
	"mailbeacon/internal/domainutil"
)

// Discoverer is the narrow interface the processor needs from the
// orchestrator.
type Discoverer interface {
	Discover(ctx context.Context, first, last, domain, url string) beacon.Result
}

// ProcessingResult is the outer envelope returned to callers: the input
// echoed back, the core Result (if discovery ran), and a set of
// convenience fields mirroring the core Result for simple consumers.
type ProcessingResult struct {
	Input beacon.ContactInput `json:"input"`

	EmailDiscoveryResults *beacon.Result `json:"email_discovery_results,omitempty"`

	Email                   *string  `json:"email,omitempty"`
	EmailConfidence         *int     `json:"email_confidence,omitempty"`
	EmailVerificationMethod *string  `json:"email_verification_method,omitempty"`
	EmailAlternatives       []string `json:"email_alternatives,omitempty"`

	EmailFindingSkipped bool    `json:"email_finding_skipped"`
	EmailFindingReason  *string `json:"email_finding_reason,omitempty"`

	EmailVerificationFailed bool    `json:"email_verification_failed"`
	EmailFindingError       *string `json:"email_finding_error,omitempty"`

	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// Processor wires a Discoverer and the configuration it needs to derive
// names/domains and trim the outer envelope's alternatives list.
type Processor struct {
	Discoverer      Discoverer
	Logger          *zap.Logger
	MaxAlternatives int
}

// Process validates input, normalizes names/domain, and runs discovery.
func (p *Processor) Process(ctx context.Context, input beacon.ContactInput) ProcessingResult {
	start := time.Now()
	result := ProcessingResult{Input: input}

	first, last, ok := deriveNames(input)
	if !ok {
		reason := "insufficient input: name"
		result.EmailFindingSkipped = true
		result.EmailFindingReason = &reason
		result.ProcessingTimeMs = elapsedMs(start)
		return result
	}

	identifier := firstNonEmpty(input.Domain, input.CompanyDomain)
	if identifier == "" {
		reason := "insufficient input: domain or url"
		result.EmailFindingSkipped = true
		result.EmailFindingReason = &reason
		result.ProcessingTimeMs = elapsedMs(start)
		return result
	}

	domain, err := domainutil.ExtractDomain(identifier)
	if err != nil {
		reason := err.Error()
		result.EmailFindingSkipped = true
		result.EmailFindingReason = &reason
		result.ProcessingTimeMs = elapsedMs(start)
		return result
	}

	url, err := domainutil.NormalizeURL(identifier)
	if err != nil {
		url = ""
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				msg := "internal error during discovery"
				result.EmailFindingError = &msg
				p.Logger.Error("discovery panicked", zap.Any("recover", r))
			}
		}()
		discovery := p.Discoverer.Discover(ctx, first, last, domain, url)
		result.EmailDiscoveryResults = &discovery
		p.populateConvenienceFields(&result, discovery)
	}()

	result.ProcessingTimeMs = elapsedMs(start)
	return result
}

func (p *Processor) populateConvenienceFields(result *ProcessingResult, discovery beacon.Result) {
	if discovery.MostLikelyEmail != "" {
		email := discovery.MostLikelyEmail
		conf := discovery.ConfidenceScore
		result.Email = &email
		result.EmailConfidence = &conf
	}

	if len(discovery.MethodsUsed) > 0 {
		method := strings.Join(discovery.MethodsUsed, ",")
		result.EmailVerificationMethod = &method
	}

	alternatives := make([]string, 0, len(discovery.FoundEmails))
	for _, fe := range discovery.FoundEmails {
		if fe.Email == discovery.MostLikelyEmail {
			continue
		}
		alternatives = append(alternatives, fe.Email)
	}
	if p.MaxAlternatives >= 0 && len(alternatives) > p.MaxAlternatives {
		alternatives = alternatives[:p.MaxAlternatives]
	}
	result.EmailAlternatives = alternatives

	if result.Email == nil && len(discovery.FoundEmails) > 0 {
		result.EmailVerificationFailed = true
	}
}

// deriveNames resolves first/last from explicit fields, else splits
// FullName on whitespace.
func deriveNames(input beacon.ContactInput) (first, last string, ok bool) {
	first = strings.ToLower(strings.TrimSpace(input.FirstName))
	last = strings.ToLower(strings.TrimSpace(input.LastName))
	if first != "" && last != "" {
		return first, last, true
	}

	full := strings.TrimSpace(input.FullName)
	if full == "" {
		return "", "", false
	}
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return "", "", false
	case 1:
		name := strings.ToLower(tokens[0])
		return name, name, true
	default:
		return strings.ToLower(tokens[0]), strings.ToLower(tokens[len(tokens)-1]), true
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
