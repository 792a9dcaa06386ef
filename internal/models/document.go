package models

import "time"

// DocType classifies a legal source document.
type DocType string

const (
	DocTypeLaw      DocType = "LAW"
	DocTypeBMF      DocType = "BMF"
	DocTypeRuling   DocType = "RULING"
	DocTypeForm     DocType = "FORM"
	DocTypeGuidance DocType = "GUIDANCE"
)

// AuthorizedSource is one allow-listed crawl origin. Identity is the domain;
// the struct is configuration and never mutated after loading.
type AuthorizedSource struct {
	Domain      string    `json:"domain"`
	SitemapURL  string    `json:"sitemap_url,omitempty"`
	Type        DocType   `json:"type"`
	Priority    int       `json:"priority"`
	LastCrawled time.Time `json:"last_crawled,omitempty"`
}

// FetchResult is produced once per unique fetch. Fingerprint is the dedup
// key within a single pipeline run.
type FetchResult struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	StatusCode   int       `json:"status_code"`
	MimeType     string    `json:"mime_type"`
	Fingerprint  string    `json:"fingerprint"`
	Content      string    `json:"-"`
	Published    time.Time `json:"published,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
}

// SkippedCandidate records a search result discarded before or after
// fetching, with the reason ("domain not authorized", "duplicate content").
type SkippedCandidate struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// LegalDocument is the normalized form of a fetched source. Immutable once
// created; a changed content hash produces a superseding document, never a
// mutation of the existing one.
type LegalDocument struct {
	DocID         string    `json:"doc_id"`
	Title         string    `json:"title"`
	DocType       DocType   `json:"doc_type"`
	Citation      string    `json:"citation"`
	PublishedAt   time.Time `json:"published_at,omitempty"`
	EffectiveFrom time.Time `json:"effective_from,omitempty"`
	EffectiveTo   time.Time `json:"effective_to,omitempty"` // zero means open-ended
	VersionHash   string    `json:"version_hash"`
	SourceURL     string    `json:"source_url"`
	MimeType      string    `json:"mime_type"`
	ContentHash   string    `json:"content_hash"`
}

// DocumentChunk is the unit of citation: an addressable slice of a
// normalized document tied to a paragraph reference.
type DocumentChunk struct {
	ChunkID   string    `json:"chunk_id"`
	DocID     string    `json:"doc_id"`
	Paragraph string    `json:"paragraph"`
	Page      int       `json:"page,omitempty"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// CitationRelation names how one legal text relates to another.
type CitationRelation string

const (
	RelationCites      CitationRelation = "cites"
	RelationInterprets CitationRelation = "interprets"
	RelationApplies    CitationRelation = "applies"
	RelationSupersedes CitationRelation = "supersedes"
)

// CitationLink is one edge in the cross-reference graph between rulings,
// BMF letters and statutes. Not mutated after creation.
type CitationLink struct {
	SourceParagraph string           `json:"source_paragraph"`
	TargetType      string           `json:"target_type"`
	TargetID        string           `json:"target_id"`
	Relation        CitationRelation `json:"relation"`
}
