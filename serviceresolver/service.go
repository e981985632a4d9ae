// Package serviceresolver locates registry servers through DNS SRV records,
// so clients can be pointed at srv://_registry._tcp.example.com instead of a
// fixed address.
package serviceresolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultNameserver is the local stub resolver on systemd hosts.
const DefaultNameserver = "127.0.0.53:53"

// SRVScheme marks a server address that must be resolved first.
const SRVScheme = "srv://"

// ErrNoRecords is returned when the SRV query has no usable answer.
var ErrNoRecords = errors.New("no SRV records found")

// Target is one resolved SRV endpoint.
type Target struct {
	Host     string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// Resolver queries SRV records from a single nameserver.
type Resolver struct {
	Nameserver string
	Timeout    time.Duration
}

// NewResolver creates a resolver for nameserver, DefaultNameserver if empty.
func NewResolver(nameserver string) *Resolver {
	if nameserver == "" {
		nameserver = DefaultNameserver
	}
	return &Resolver{Nameserver: nameserver, Timeout: 5 * time.Second}
}

// LookupSRV returns the SRV targets for name ordered by priority, then by
// descending weight.
func (r *Resolver) LookupSRV(name string) ([]Target, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	m.RecursionDesired = true

	c := &dns.Client{Timeout: r.Timeout}
	in, _, err := c.Exchange(m, r.Nameserver)
	if err != nil {
		return nil, fmt.Errorf("SRV query for %s failed: %w", name, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("SRV query for %s failed: %s", name, dns.RcodeToString[in.Rcode])
	}

	targets := make([]Target, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			targets = append(targets, Target{
				Host:     strings.TrimSuffix(srv.Target, "."),
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecords, name)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Priority != targets[j].Priority {
			return targets[i].Priority < targets[j].Priority
		}
		return targets[i].Weight > targets[j].Weight
	})
	return targets, nil
}

// ResolveServerAddr turns srv://name into an http:// base URL of the
// preferred target. Other addresses are returned unchanged.
func (r *Resolver) ResolveServerAddr(addr string) (string, error) {
	name, ok := strings.CutPrefix(addr, SRVScheme)
	if !ok {
		return addr, nil
	}

	targets, err := r.LookupSRV(strings.TrimSuffix(name, "/"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", targets[0].Host, targets[0].Port), nil
}
