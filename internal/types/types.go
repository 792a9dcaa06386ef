package types

import (
	"context"
	"time"

	"github.com/steuerkompass/editorial/internal/models"
)

// SearchResult is one hit from the search provider.
type SearchResult struct {
	URL     string
	Title   string
	Content string
}

// SearchProvider issues topic queries, restricted to the supplied domain
// allowlist when the backend supports it. Implementations that cannot
// restrict server-side return unfiltered hits; the fetcher post-filters
// either way.
type SearchProvider interface {
	Search(ctx context.Context, query string, domains []string, maxResults int) ([]SearchResult, error)
}

// ContentFetcher retrieves one URL. Swappable so the pipeline logic never
// touches a concrete HTTP client.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*models.FetchResult, error)
}

// Fingerprinter computes the stable content hash used as the per-run dedup
// key.
type Fingerprinter interface {
	Fingerprint(body []byte) string
}

// Embedder produces chunk embeddings. Optional; a nil Embedder disables the
// embedding step.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchFilter narrows a content search against the package store.
type SearchFilter struct {
	ContentType string
	Topic       string
	Limit       int
}

// ContentRecord is one document-like hit returned by the package store.
type ContentRecord struct {
	ID      string
	Topic   string
	Type    string
	Title   string
	Snippet string
}

// PackageStore is the persistence/search collaborator. The pipeline
// degrades to its in-memory cache when StorePackage fails.
type PackageStore interface {
	StorePackage(ctx context.Context, pkg *models.EditorialPackage) error
	SearchContent(ctx context.Context, query string, filter SearchFilter) ([]ContentRecord, error)
	Close()
}

// FetcherConfig tunes the source-fetch stage.
type FetcherConfig struct {
	MaxResultsPerQuery int
	RateLimit          float64 // requests per second
	Timeout            time.Duration
	OnProgress         func(url string)
}

// SchedulerConfig tunes the batch scheduler.
type SchedulerConfig struct {
	MaxConcurrent      int
	DelayBetweenTopics time.Duration
	RecrawlDays        int
}
