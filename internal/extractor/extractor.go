// Package extractor pulls email addresses out of free text and HTML
// pages.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailbeacon/internal/beacon"
)

// FromText returns the unique, lowercased, sorted set of addresses
// matching re in text.
func FromText(text string, re *regexp.Regexp) []string {
	matches := re.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// FromHTML extracts addresses from mailto: links and from the page's
// rendered text (scripts and styles excluded), unioning both sets.
func FromHTML(html, pageURL string, re *regexp.Regexp) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, beacon.NewHTMLParse(pageURL, err)
	}

	found := make(map[string]bool)

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.Index(addr, "?"); idx >= 0 {
			addr = addr[:idx]
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" && re.MatchString(addr) {
			found[addr] = true
		}
	})

	textDoc := doc.Clone()
	textDoc.Find("script, style").Remove()
	body := textDoc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = textDoc.Text()
	}
	for _, addr := range FromText(text, re) {
		found[addr] = true
	}

	out := make([]string, 0, len(found))
	for addr := range found {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out, nil
}
