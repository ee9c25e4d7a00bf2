package main

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// ParseDomainWhitelist splits a comma separated list of domain patterns.
func ParseDomainWhitelist(whitelist string) []string {
	return splitList(whitelist)
}

// isDomainWhitelisted reports whether requestURL may be loaded. Patterns are
// exact hosts, globs like "*.cdn.com", or ".example.com" for a domain and all
// of its subdomains.
func isDomainWhitelisted(requestURL string, whitelist []string) bool {
	if len(whitelist) == 0 {
		return true
	}

	parsed, err := url.Parse(requestURL)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		// data: and about: URLs carry no host
		return true
	}

	for _, pattern := range whitelist {
		pattern = strings.ToLower(pattern)

		if strings.HasPrefix(pattern, ".") {
			if strings.HasSuffix(hostname, pattern) || hostname == pattern[1:] {
				return true
			}
			continue
		}

		if matched, err := filepath.Match(pattern, hostname); err == nil && matched {
			return true
		}
	}

	return false
}

// requestGate decides which requests a page may issue. The first request,
// the page URL itself, passes when permitFirst is set; later ones must match
// the whitelist. Allow may be called from concurrent request handlers.
type requestGate struct {
	whitelist   []string
	permitFirst bool
	first       atomic.Bool
}

func newRequestGate(whitelist []string, permitFirst bool) *requestGate {
	g := &requestGate{whitelist: whitelist, permitFirst: permitFirst}
	g.first.Store(true)
	return g
}

func (g *requestGate) Allow(requestURL string) bool {
	if g.permitFirst && g.first.CompareAndSwap(true, false) {
		return true
	}
	return isDomainWhitelisted(requestURL, g.whitelist)
}
