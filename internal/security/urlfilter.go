package security

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ErrURLBlocked is returned for a URL outside the filter's domains.
var ErrURLBlocked = errors.New("URL blocked by filter")

// URLFilter admits https URLs on a fixed set of domains and their
// subdomains. It guards fetches of URLs that come back from a remote API,
// such as rendered image links. An empty filter admits nothing.
type URLFilter struct {
	domains   []string
	plainHTTP bool
}

// NewURLFilter returns a filter for domains. Matching is case-insensitive.
func NewURLFilter(domains ...string) *URLFilter {
	f := &URLFilter{domains: make([]string, 0, len(domains))}
	for _, d := range domains {
		if d = strings.ToLower(strings.Trim(strings.TrimSpace(d), ".")); d != "" {
			f.domains = append(f.domains, d)
		}
	}
	return f
}

// AllowHTTP makes f admit http URLs as well, for local development
// servers. It returns f.
func (f *URLFilter) AllowHTTP() *URLFilter {
	f.plainHTTP = true
	return f
}

// Check returns nil if rawURL may be fetched.
func (f *URLFilter) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrURLBlocked, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && (scheme != "http" || !f.plainHTTP) {
		return fmt.Errorf("%w: scheme %q", ErrURLBlocked, u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("%w: credentials in URL", ErrURLBlocked)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrURLBlocked)
	}
	if !slices.ContainsFunc(f.domains, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	}) {
		return fmt.Errorf("%w: %s", ErrURLBlocked, host)
	}
	return nil
}
