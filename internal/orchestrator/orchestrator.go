// Package orchestrator implements the Discovery Orchestrator: pattern
// generation, scraping, candidate ordering, scoring with optional SMTP
// verification, and final ranking/selection.
package orchestrator

import (
	"context"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailbeacon/internal/beacon"
	"mailbeacon/internal/patterngen"
)

// Scraper is the narrow interface the orchestrator needs from the
// scraping component.
type Scraper interface {
	ScrapeWebsite(ctx context.Context, baseURL string) ([]string, error)
}

// Verifier is the narrow interface the orchestrator needs from the SMTP
// verification component.
type Verifier interface {
	VerifyEmail(ctx context.Context, email string) (beacon.VerificationStatus, string, bool)
}

// Orchestrator drives one discovery given a sanitized name and domain.
// It holds collaborators by interface and no per-request mutable state,
// matching the shared-singleton resource model (§5).
type Orchestrator struct {
	Scraper  Scraper
	Verifier Verifier
	Logger   *zap.Logger

	EmailRegex              *regexp.Regexp
	GenericPrefixes         map[string]bool
	ConfidenceThreshold     int
	GenericConfidenceThresh int
	MinSleep                time.Duration
	MaxSleep                time.Duration
}

// Discover runs the five-step algorithm for one (first, last, domain,
// url) and returns the ranked result.
func (o *Orchestrator) Discover(ctx context.Context, first, last, domain, url string) beacon.Result {
	result := beacon.Result{
		VerificationLog: make(map[string]string),
	}

	// Step 1 — patterns.
	patterns := patterngen.Generate(first, last, domain, o.EmailRegex)
	if len(patterns) > 0 {
		result.MethodsUsed = append(result.MethodsUsed, beacon.MethodPatternGeneration)
	}

	// Step 2 — scrape.
	var scraped []string
	if url != "" {
		emails, err := o.Scraper.ScrapeWebsite(ctx, url)
		if err != nil {
			result.VerificationLog["scraping_error"] = err.Error()
		} else {
			scraped = o.filterScraped(emails, domain)
			if len(scraped) > 0 {
				result.MethodsUsed = append(result.MethodsUsed, beacon.MethodWebsiteScraping)
			}
		}
	}

	// Step 3 — candidate ordering.
	candidates := o.orderCandidates(patterns, scraped, first, last, domain)

	// Step 4 — scoring and verification.
	scored := o.scoreAndVerify(ctx, candidates, domain, &result)

	// Step 5 — ranking and selection.
	o.rankAndSelect(scored, &result)

	return result
}

func (o *Orchestrator) filterScraped(emails []string, domain string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if o.EmailRegex != nil && !o.EmailRegex.MatchString(e) {
			continue
		}
		matchesDomain := strings.HasSuffix(e, "@"+domain)
		if matchesDomain || o.isGeneric(e) {
			out = append(out, e)
		}
	}
	return out
}

// orderCandidates merges patterns and scraped into one candidate per
// unique (lowercased) email, with is_pattern/is_scraped set
// independently against the merged set — an address found both ways
// (a common case: a generated pattern that also turns up on the
// website) carries both flags rather than losing one to whichever list
// happened to be deduped first.
func (o *Orchestrator) orderCandidates(patterns, scraped []string, first, last, domain string) []beacon.Candidate {
	patternSet := make(map[string]bool, len(patterns))
	for _, e := range patterns {
		patternSet[strings.ToLower(e)] = true
	}
	scrapedSet := make(map[string]bool, len(scraped))
	for _, e := range scraped {
		scrapedSet[strings.ToLower(e)] = true
	}

	order := make([]string, 0, len(patterns)+len(scraped))
	seen := make(map[string]bool, len(patterns)+len(scraped))
	for _, e := range append(append([]string{}, patterns...), scraped...) {
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, key)
	}

	buildCandidate := func(email string) beacon.Candidate {
		isPattern := patternSet[email]
		isScraped := scrapedSet[email]
		source := beacon.SourcePattern
		if isScraped {
			source = beacon.SourceScraped
		}
		return beacon.Candidate{
			Email:                email,
			Source:               source,
			IsPattern:            isPattern,
			IsScraped:            isScraped,
			IsGeneric:            o.isGeneric(email),
			MatchesPrimaryDomain: strings.HasSuffix(email, "@"+domain),
			NameInLocal:          nameInLocal(email, first, last),
		}
	}

	var nameInLocalSet, otherSet []beacon.Candidate
	for _, email := range order {
		c := buildCandidate(email)
		if c.NameInLocal {
			nameInLocalSet = append(nameInLocalSet, c)
		} else {
			otherSet = append(otherSet, c)
		}
	}

	return append(nameInLocalSet, otherSet...)
}

type scoredCandidate struct {
	beacon.Candidate
	Confidence int
	Verified   *beacon.VerificationStatus
	VerifyMsg  string
}

func (o *Orchestrator) scoreAndVerify(ctx context.Context, candidates []beacon.Candidate, domain string, result *beacon.Result) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		if o.EmailRegex != nil && !o.EmailRegex.MatchString(c.Email) {
			continue
		}
		if !c.MatchesPrimaryDomain && !(c.IsScraped && c.IsGeneric) {
			continue
		}

		conf := baseConfidence(c)

		shouldVerify := conf >= 3 || (c.IsScraped && c.NameInLocal && conf > 1)

		var verified *beacon.VerificationStatus
		var verifyMsg string
		if shouldVerify {
			result.MethodsUsed = appendUnique(result.MethodsUsed, beacon.MethodSMTPVerification)
			status, msg, catchAll := o.Verifier.VerifyEmail(ctx, c.Email)
			verified = &status
			verifyMsg = msg
			result.VerificationLog[c.Email] = msg

			switch status {
			case beacon.StatusVerified:
				conf += 5
			case beacon.StatusRejected:
				conf = 0
			case beacon.StatusInconclusive:
				if !catchAll {
					conf++
				}
			}
		}

		conf = clamp(conf, 0, 10)
		sleepRandom(ctx, o.MinSleep, o.MaxSleep)

		if conf <= 0 {
			continue
		}

		out = append(out, scoredCandidate{
			Candidate:  c,
			Confidence: conf,
			Verified:   verified,
			VerifyMsg:  verifyMsg,
		})
	}

	return out
}

func (o *Orchestrator) rankAndSelect(scored []scoredCandidate, result *beacon.Result) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.IsGeneric != b.IsGeneric {
			return !a.IsGeneric
		}
		aScraped := a.Source == beacon.SourceScraped
		bScraped := b.Source == beacon.SourceScraped
		return aScraped && !bScraped
	})

	for _, c := range scored {
		result.FoundEmails = append(result.FoundEmails, beacon.FoundEmail{
			Email:               c.Email,
			Confidence:          c.Confidence,
			Source:              c.Source,
			IsGeneric:           c.IsGeneric,
			VerificationStatus:  c.Verified,
			VerificationMessage: c.VerifyMsg,
		})
	}

	var bestNonGeneric *scoredCandidate
	for i := range scored {
		if !scored[i].IsGeneric && scored[i].Confidence >= o.ConfidenceThreshold {
			bestNonGeneric = &scored[i]
			break
		}
	}

	if bestNonGeneric != nil {
		result.MostLikelyEmail = bestNonGeneric.Email
		result.ConfidenceScore = bestNonGeneric.Confidence
		return
	}

	if len(scored) == 0 {
		return
	}

	top := scored[0]
	if top.Confidence >= o.ConfidenceThreshold && (!top.IsGeneric || top.Confidence >= o.GenericConfidenceThresh) {
		result.MostLikelyEmail = top.Email
		result.ConfidenceScore = top.Confidence
	}
}

func baseConfidence(c beacon.Candidate) int {
	conf := 0
	if c.IsPattern && c.NameInLocal {
		conf += 3
	}
	if c.IsScraped && c.NameInLocal {
		conf += 5
	}
	if c.IsScraped && !c.NameInLocal {
		conf += 2
	}
	if c.IsPattern && !c.NameInLocal {
		conf += 1
	}
	if c.MatchesPrimaryDomain {
		conf += 1
	}

	if c.IsGeneric && c.NameInLocal && conf > 1 {
		conf = max(1, conf-5)
	} else if c.IsGeneric && !c.NameInLocal && conf > 2 {
		conf = max(1, conf-2)
	}
	return conf
}

func (o *Orchestrator) isGeneric(email string) bool {
	local := localPart(email)
	return o.GenericPrefixes[local]
}

func localPart(email string) string {
	idx := strings.Index(email, "@")
	if idx < 0 {
		return email
	}
	return strings.ToLower(email[:idx])
}

func nameInLocal(email, first, last string) bool {
	local := localPart(email)
	return (first != "" && strings.Contains(local, first)) || (last != "" && strings.Contains(local, last))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}

func sleepRandom(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
