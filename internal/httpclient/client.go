// Package httpclient constructs the single shared HTTP client used by
// the scraper, process-wide and read-only after construction.
package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// New builds an *http.Client with the given per-request timeout and a
// redirect cap. A cap of 0 disables following redirects entirely.
func New(timeout time.Duration, maxRedirects int) *http.Client {
	client := &http.Client{Timeout: timeout}
	if maxRedirects <= 0 {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return client
	}
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return client
}
