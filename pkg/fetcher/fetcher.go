package fetcher

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
	"github.com/steuerkompass/editorial/pkg/logger"
)

const (
	ReasonDomainNotAuthorized = "domain not authorized"
	ReasonDuplicateContent    = "duplicate content"
)

// Output is one fetch stage result: the deduplicated documents plus every
// discarded candidate with its reason, as a measure of yield.
type Output struct {
	Fetched []models.FetchResult
	Skipped []models.SkippedCandidate
}

// Fetcher runs topic queries against a search provider, restricted to the
// authorized domains, retrieves the hits and deduplicates them by content
// fingerprint within the run.
type Fetcher struct {
	searcher    types.SearchProvider
	client      types.ContentFetcher
	fingerprint types.Fingerprinter
	limiter     *rate.Limiter
	log         *logger.Logger
	config      types.FetcherConfig
}

func NewWithConfig(searcher types.SearchProvider, client types.ContentFetcher, fp types.Fingerprinter, cfg types.FetcherConfig) *Fetcher {
	if cfg.MaxResultsPerQuery == 0 {
		cfg.MaxResultsPerQuery = 10
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if fp == nil {
		fp = SHA256Fingerprinter{}
	}

	return &Fetcher{
		searcher:    searcher,
		client:      client,
		fingerprint: fp,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		log:         logger.New(),
		config:      cfg,
	}
}

// Fetch resolves all queries for one topic. A single query failure is
// logged and skipped; only a run where every query fails (or nothing
// passes the domain filter) yields an error.
//
// Output order is stable: first-seen wins, and no two fetched entries share
// a content fingerprint.
func (f *Fetcher) Fetch(ctx context.Context, topic string, queries []string, sources []models.AuthorizedSource) (*Output, error) {
	allowed := make(map[string]models.AuthorizedSource, len(sources))
	domains := make([]string, 0, len(sources))
	for _, s := range sources {
		allowed[s.Domain] = s
		domains = append(domains, s.Domain)
	}

	out := &Output{}
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	queriesFailed := 0

	for _, query := range queries {
		results, err := f.searcher.Search(ctx, query, domains, f.config.MaxResultsPerQuery)
		if err != nil {
			f.log.Warnf("search failed for topic %s query %q: %v", topic, query, err)
			queriesFailed++
			continue
		}

		for _, result := range results {
			if !f.isAuthorized(result.URL, allowed) {
				out.Skipped = append(out.Skipped, models.SkippedCandidate{
					URL:    result.URL,
					Reason: ReasonDomainNotAuthorized,
				})
				continue
			}

			// A repeated URL is the same document again; record it so the
			// yield measure stays honest.
			if visited[result.URL] {
				out.Skipped = append(out.Skipped, models.SkippedCandidate{
					URL:    result.URL,
					Reason: ReasonDuplicateContent,
				})
				continue
			}
			visited[result.URL] = true

			if err := f.limiter.Wait(ctx); err != nil {
				return out, err
			}

			fetched, err := f.client.Fetch(ctx, result.URL)
			if err != nil {
				f.log.Warnf("fetch failed for %s: %v", result.URL, err)
				continue
			}

			if fetched.Fingerprint == "" {
				fetched.Fingerprint = f.fingerprint.Fingerprint([]byte(fetched.Content))
			}
			if seen[fetched.Fingerprint] {
				out.Skipped = append(out.Skipped, models.SkippedCandidate{
					URL:    result.URL,
					Reason: ReasonDuplicateContent,
				})
				continue
			}
			seen[fetched.Fingerprint] = true

			if fetched.Title == "" {
				fetched.Title = result.Title
			}
			out.Fetched = append(out.Fetched, *fetched)

			if f.config.OnProgress != nil {
				f.config.OnProgress(result.URL)
			}
		}
	}

	if len(queries) > 0 && queriesFailed == len(queries) {
		return out, &models.SourceError{Topic: topic, Reason: "all queries failed"}
	}

	return out, nil
}

func (f *Fetcher) isAuthorized(rawURL string, allowed map[string]models.AuthorizedSource) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if _, ok := allowed[host]; ok {
		return true
	}
	// Subdomain of an authorized domain counts.
	for domain := range allowed {
		if len(host) > len(domain) && host[len(host)-len(domain)-1] == '.' &&
			host[len(host)-len(domain):] == domain {
			return true
		}
	}
	return false
}
