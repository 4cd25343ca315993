// Package dnsresolve resolves a domain's mail exchanger, falling back to
// an A record when no MX is published.
package dnsresolve

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"

	"mailbeacon/internal/beacon"
)

// Resolver is a collaborator singleton: construct once with a server
// list, then call ResolveMailServer concurrently. It holds no mutable
// state after construction.
type Resolver struct {
	servers []string
	timeout time.Duration
	client  *dns.Client
}

// New builds a Resolver against the given nameserver list (host:port or
// bare host, in which case :53 is assumed).
func New(servers []string, timeout time.Duration) *Resolver {
	normalized := make([]string, 0, len(servers))
	for _, s := range servers {
		if !strings.Contains(s, ":") {
			s = s + ":53"
		}
		normalized = append(normalized, s)
	}
	return &Resolver{
		servers: normalized,
		timeout: timeout,
		client:  &dns.Client{Timeout: timeout},
	}
}

// ResolveMailServer queries MX records for domain, falling back to A
// records when none exist, per the policy table in the component's
// documentation.
func (r *Resolver) ResolveMailServer(ctx context.Context, domain string) (beacon.MailServer, error) {
	domain = dns.Fqdn(domain)

	mxAnswer, mxRcode, err := r.exchange(ctx, domain, dns.TypeMX)
	if err != nil {
		return beacon.MailServer{}, classifyErr(domain, err)
	}
	if mxRcode == dns.RcodeNameError {
		return beacon.MailServer{}, beacon.NewNxDomain(domain)
	}

	var mxRecords []*dns.MX
	for _, rr := range mxAnswer {
		if mx, ok := rr.(*dns.MX); ok {
			mxRecords = append(mxRecords, mx)
		}
	}

	if len(mxRecords) == 0 {
		// NoData: fall back to an A query.
		aAnswer, aRcode, err := r.exchange(ctx, domain, dns.TypeA)
		if err != nil {
			return beacon.MailServer{}, classifyErr(domain, err)
		}
		if aRcode == dns.RcodeNameError {
			return beacon.MailServer{}, beacon.NewNxDomain(domain)
		}
		for _, rr := range aAnswer {
			if a, ok := rr.(*dns.A); ok {
				return beacon.MailServer{
					Exchange:   a.A.String(),
					Preference: beacon.ARecordFallbackPreference,
				}, nil
			}
		}
		return beacon.MailServer{}, beacon.NewNoDNSRecords(domain)
	}

	sort.Slice(mxRecords, func(i, j int) bool {
		return mxRecords[i].Preference < mxRecords[j].Preference
	})

	// Only the highest-priority record is consulted: an empty exchange
	// there is treated as no usable record, not a reason to fall
	// through to the next-preference MX.
	best := mxRecords[0]
	exchange := strings.TrimSuffix(best.Mx, ".")
	if exchange == "" {
		return beacon.MailServer{}, beacon.NewNoDNSRecords(domain)
	}
	return beacon.MailServer{Exchange: exchange, Preference: best.Preference}, nil
}

// exchange tries each configured server in turn, returning the first
// non-timeout response.
func (r *Resolver) exchange(ctx context.Context, fqdn string, qtype uint16) ([]dns.RR, int, error) {
	if len(r.servers) == 0 {
		return nil, 0, errors.New("no DNS servers configured")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		reply, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			continue
		}
		return reply.Answer, reply.Rcode, nil
	}
	return nil, 0, lastErr
}

func classifyErr(domain string, err error) *beacon.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return beacon.NewDNSTimeout(domain)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return beacon.NewDNSTimeout(domain)
	}
	return beacon.NewDNS(domain, err)
}
