// Package scraper fetches a company's landing page plus a fixed list of
// common sub-paths and extracts any published email addresses.
package scraper

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"mailbeacon/internal/beacon"
	"mailbeacon/internal/domainutil"
	"mailbeacon/internal/extractor"
)

// Scraper walks a company's website looking for published email
// addresses. It holds no per-request state; ScrapeWebsite is safe to
// call concurrently for different sites, but a single call visits its
// own URLs sequentially to bound the rate hitting one target.
type Scraper struct {
	Client      *http.Client
	Logger      *zap.Logger
	UserAgent   string
	CommonPages []string
	MinSleep    time.Duration
	MaxSleep    time.Duration
	EmailRegex  *regexp.Regexp
}

// ScrapeWebsite visits the base URL and its configured common sub-paths,
// returning the sorted union of email addresses found. It fails only if
// every URL visited failed; individual page errors are logged and
// skipped.
func (s *Scraper) ScrapeWebsite(ctx context.Context, baseURL string) ([]string, error) {
	normalized, err := domainutil.NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}
	baseDomain, err := domainutil.ExtractDomain(baseURL)
	if err != nil {
		return nil, err
	}

	visitSet, err := s.buildVisitSet(normalized, baseDomain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	found := make(map[string]bool)
	attempted, succeeded, failed := 0, 0, 0

	for i, target := range visitSet {
		if i > 0 {
			sleep(ctx, s.MinSleep, s.MaxSleep)
		}
		if ctx.Err() != nil {
			break
		}

		attempted++
		emails, err := s.fetchAndExtract(ctx, target)
		if err != nil {
			failed++
			s.Logger.Debug("scrape page failed", zap.String("url", target), zap.Error(err))
			continue
		}
		succeeded++
		for _, e := range emails {
			found[e] = true
		}
	}

	out := make([]string, 0, len(found))
	for e := range found {
		out = append(out, e)
	}
	sort.Strings(out)

	s.Logger.Info("scrape summary",
		zap.String("base_url", baseURL),
		zap.Int("attempted", attempted),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("addresses_found", len(out)),
	)

	if attempted > 0 && succeeded == 0 {
		return nil, beacon.NewRequestError(baseURL, nil)
	}

	return out, nil
}

func (s *Scraper) buildVisitSet(normalizedBase, baseDomain string) ([]string, error) {
	base, err := url.Parse(normalizedBase)
	if err != nil {
		return nil, beacon.NewURLParse(normalizedBase, err)
	}

	candidates := []string{normalizedBase}
	for _, page := range s.CommonPages {
		ref, err := url.Parse(page)
		if err != nil {
			continue
		}
		candidates = append(candidates, base.ResolveReference(ref).String())
	}

	visit := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		u, err := url.Parse(c)
		if err != nil {
			continue
		}
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		if host != baseDomain {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		visit = append(visit, c)
	}
	return visit, nil
}

func (s *Scraper) fetchAndExtract(ctx context.Context, target string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, beacon.NewRequestError(target, nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	decoded, err := decodeBody(body, contentType)
	if err != nil {
		decoded = string(body)
	}

	return extractor.FromHTML(decoded, target, s.EmailRegex)
}

func decodeBody(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func sleep(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
