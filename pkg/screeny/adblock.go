package screeny

import "strings"

// defaultBlockedDomains are known ad, tracking and analytics hosts. Requests
// whose URL contains any of these are aborted when ad blocking is enabled.
var defaultBlockedDomains = []string{
	"googletagmanager.com",
	"google-analytics.com",
	"doubleclick.net",
	"googlesyndication.com",
	"facebook.com/tr",
	"hotjar.com",
	"crazyegg.com",
	"mouseflow.com",
	"clarity.ms",
}

// Blocklist decides which requests are aborted during capture.
type Blocklist struct {
	domains []string
}

// DefaultBlocklist returns a blocklist with the built-in ad/tracking domains.
func DefaultBlocklist() *Blocklist {
	return NewBlocklist(defaultBlockedDomains...)
}

// NewBlocklist returns a blocklist matching the given domain fragments.
func NewBlocklist(domains ...string) *Blocklist {
	b := &Blocklist{}
	b.Add(domains...)
	return b
}

// Add appends domain fragments to the blocklist. Empty entries are dropped.
func (b *Blocklist) Add(domains ...string) {
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d != "" {
			b.domains = append(b.domains, d)
		}
	}
}

// Blocked reports whether a request URL matches the blocklist. Matching is a
// plain substring check, which also covers path-qualified entries such as
// facebook.com/tr.
func (b *Blocklist) Blocked(rawURL string) bool {
	for _, d := range b.domains {
		if strings.Contains(rawURL, d) {
			return true
		}
	}
	return false
}

// Len returns the number of entries in the blocklist.
func (b *Blocklist) Len() int {
	return len(b.domains)
}
