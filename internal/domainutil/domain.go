// Package domainutil normalizes user-supplied website strings into URLs
// and bare domains.
package domainutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"mailbeacon/internal/beacon"
)

// NormalizeURL prepends a scheme if one is missing and validates the
// result parses to a URL with both scheme and host.
func NormalizeURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", beacon.NewInsufficientInput("domain or url")
	}

	candidate := input
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", beacon.NewURLParse(input, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", beacon.NewURLParse(input, nil)
	}

	return candidate, nil
}

// ExtractDomain normalizes input the same way as NormalizeURL, then
// strips the port, a leading "www.", and lowercases the result. Non-ASCII
// hosts are converted to their ASCII (punycode) form.
func ExtractDomain(input string) (string, error) {
	normalized, err := NormalizeURL(input)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", beacon.NewURLParse(input, err)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if ascii, err := idna.ToASCII(host); err == nil {
		host = ascii
	}

	if host == "" {
		return "", beacon.NewDomainExtraction(input)
	}

	return host, nil
}
