package beacon

import (
	"fmt"
	"net/http"
)

// Kind discriminates the fixed set of error conditions the discovery
// pipeline can surface. It replaces a per-condition exception type with a
// single tagged struct, the idiomatic Go shape for a small closed error
// taxonomy.
type Kind int

const (
	KindInsufficientInput Kind = iota
	KindURLParse
	KindDomainExtraction
	KindNxDomain
	KindNoDNSRecords
	KindDNSTimeout
	KindDNS
	KindRequestError
	KindHTMLParse
	KindSMTPCommand
	KindSMTPTemporary
	KindSMTPPermanent
	KindSMTPInconclusive
	KindConfig
	KindTask
	KindInternal
)

// Error is the one error type the discovery pipeline returns. Kind fixes
// the HTTP status a caller should map to; Err, when set, wraps the
// underlying cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps Kind to the suggested HTTP status for API façades.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInsufficientInput, KindURLParse, KindDomainExtraction:
		return http.StatusBadRequest
	case KindNxDomain, KindSMTPPermanent:
		return http.StatusNotFound
	case KindDNS, KindSMTPInconclusive, KindSMTPTemporary, KindSMTPCommand, KindNoDNSRecords:
		return http.StatusServiceUnavailable
	case KindDNSTimeout:
		return http.StatusGatewayTimeout
	case KindRequestError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newErr(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}

func NewInsufficientInput(reason string) *Error {
	return newErr(KindInsufficientInput, "insufficient input: "+reason, nil)
}

func NewURLParse(input string, err error) *Error {
	return newErr(KindURLParse, fmt.Sprintf("could not parse url %q", input), err)
}

func NewDomainExtraction(input string) *Error {
	return newErr(KindDomainExtraction, fmt.Sprintf("could not extract domain from %q", input), nil)
}

func NewNxDomain(domain string) *Error {
	return newErr(KindNxDomain, fmt.Sprintf("domain %s does not exist", domain), nil)
}

func NewNoDNSRecords(domain string) *Error {
	return newErr(KindNoDNSRecords, fmt.Sprintf("no usable DNS records for %s", domain), nil)
}

func NewDNSTimeout(domain string) *Error {
	return newErr(KindDNSTimeout, fmt.Sprintf("DNS lookup for %s timed out", domain), nil)
}

func NewDNS(domain string, err error) *Error {
	return newErr(KindDNS, fmt.Sprintf("DNS lookup for %s failed", domain), err)
}

func NewRequestError(url string, err error) *Error {
	return newErr(KindRequestError, fmt.Sprintf("request to %s failed", url), err)
}

func NewHTMLParse(url string, err error) *Error {
	return newErr(KindHTMLParse, fmt.Sprintf("could not parse html from %s", url), err)
}

func NewInternal(msg string, err error) *Error {
	return newErr(KindInternal, msg, err)
}
