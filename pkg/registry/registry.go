package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/pkg/config"
)

// Registry holds the authorized crawl sources for a run. Sources come from
// the whitelist configuration; blacklisted domains override the whitelist.
type Registry struct {
	mu        sync.RWMutex
	sources   []models.AuthorizedSource
	blacklist map[string]bool
}

// FromConfig builds a registry from the run configuration. Sources are kept
// sorted by priority descending so callers iterate highest-authority first.
func FromConfig(cfg *config.Config) *Registry {
	blacklist := make(map[string]bool, len(cfg.BlacklistDomains))
	for _, d := range cfg.BlacklistDomains {
		blacklist[strings.ToLower(d)] = true
	}

	var sources []models.AuthorizedSource
	for _, src := range cfg.WhitelistSources {
		domain := strings.ToLower(src.Domain)
		if blacklist[domain] {
			continue
		}
		sources = append(sources, models.AuthorizedSource{
			Domain:     domain,
			SitemapURL: src.Sitemap,
			Type:       models.DocType(src.Type),
			Priority:   src.Priority,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority > sources[j].Priority
	})

	return &Registry{
		sources:   sources,
		blacklist: blacklist,
	}
}

// Sources returns the authorized sources in priority order.
func (r *Registry) Sources() []models.AuthorizedSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.AuthorizedSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Domains returns the allow-listed domains in priority order.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	domains := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		domains = append(domains, s.Domain)
	}
	return domains
}

// IsAuthorized reports whether a host belongs to an allow-listed domain.
// Subdomains of an authorized domain are authorized; blacklisted hosts
// never are.
func (r *Registry) IsAuthorized(host string) bool {
	host = strings.ToLower(host)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.blacklist[host] {
		return false
	}
	for _, s := range r.sources {
		if host == s.Domain || strings.HasSuffix(host, "."+s.Domain) {
			return true
		}
	}
	return false
}

// Lookup returns the source entry for a host, matching subdomains.
func (r *Registry) Lookup(host string) (models.AuthorizedSource, bool) {
	host = strings.ToLower(host)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sources {
		if host == s.Domain || strings.HasSuffix(host, "."+s.Domain) {
			return s, true
		}
	}
	return models.AuthorizedSource{}, false
}

// MarkCrawled records when a domain was last crawled, for recrawl-cadence
// decisions.
func (r *Registry) MarkCrawled(domain string, at time.Time) {
	domain = strings.ToLower(domain)
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.sources {
		if r.sources[i].Domain == domain {
			r.sources[i].LastCrawled = at
			return
		}
	}
}

// LastCrawled returns the most recent crawl time across all sources, or the
// zero time when nothing has been crawled yet.
func (r *Registry) LastCrawled() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest time.Time
	for _, s := range r.sources {
		if s.LastCrawled.After(latest) {
			latest = s.LastCrawled
		}
	}
	return latest
}
