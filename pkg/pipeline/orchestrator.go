package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/pkg/config"
	"github.com/steuerkompass/editorial/pkg/extractor"
	"github.com/steuerkompass/editorial/pkg/fetcher"
	"github.com/steuerkompass/editorial/pkg/gates"
	"github.com/steuerkompass/editorial/pkg/logger"
	"github.com/steuerkompass/editorial/pkg/normalizer"
	"github.com/steuerkompass/editorial/pkg/registry"
	"github.com/steuerkompass/editorial/pkg/store"
	"github.com/steuerkompass/editorial/pkg/synthesizer"
)

// Orchestrator runs the stage sequence for one topic:
// Fetching -> Normalizing -> Extracting -> Synthesizing -> GateEvaluation ->
// Packaging. Transitions are strictly sequential with no backtracking.
type Orchestrator struct {
	fetcher       *fetcher.Fetcher
	normalizer    *normalizer.Normalizer
	synthesizer   *synthesizer.Synthesizer
	store         *store.CachedStore
	registry      *registry.Registry
	criticalGates []string
	year          int
	log           *logger.Logger
}

type OrchestratorConfig struct {
	// CriticalGates names the gates whose failure fails the whole run.
	// Gates outside this set are advisory.
	CriticalGates []string
	// Year stamps rule ids; zero means the current processing year.
	Year int
}

func New(f *fetcher.Fetcher, n *normalizer.Normalizer, s *store.CachedStore, reg *registry.Registry, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	return &Orchestrator{
		fetcher:       f,
		normalizer:    n,
		synthesizer:   synthesizer.New(),
		store:         s,
		registry:      reg,
		criticalGates: cfg.CriticalGates,
		year:          cfg.Year,
		log:           logger.New(),
	}
}

// Store exposes the package store, for cadence checks and content search.
func (o *Orchestrator) Store() *store.CachedStore { return o.store }

// Run executes the full pipeline for one topic. Callers always receive a
// structured result; run-level problems land in result.Errors, never as a
// bare error.
func (o *Orchestrator) Run(ctx context.Context, topic config.TopicConfig) models.PipelineResult {
	start := time.Now()
	result := models.PipelineResult{Topic: topic.ID, State: models.StateFetching}

	fail := func(msg string) models.PipelineResult {
		result.State = models.StateFailed
		result.Success = false
		result.Errors = append(result.Errors, msg)
		result.ExecutionTime = time.Since(start)
		return result
	}

	// Fetching.
	sources := o.registry.Sources()
	queries := flattenQueries(topic.Queries)
	fetchOut, err := o.fetcher.Fetch(ctx, topic.ID, queries, sources)
	if fetchOut != nil {
		result.Artifacts.Fetched = fetchOut.Fetched
		result.Artifacts.Skipped = fetchOut.Skipped
	}
	if err != nil {
		return fail(fmt.Sprintf("fetch stage failed: %v", err))
	}
	if len(fetchOut.Fetched) == 0 {
		return fail(fmt.Sprintf("zero documents retrieved for topic %s", topic.ID))
	}

	// Normalizing.
	result.State = models.StateNormalizing
	docs, chunks, links, err := o.normalizer.Normalize(ctx, fetchOut.Fetched)
	if err != nil {
		return fail(fmt.Sprintf("normalize stage failed: %v", err))
	}
	result.Artifacts.Documents = docs
	result.Artifacts.Chunks = chunks
	result.Artifacts.Links = links

	// Extracting. Per-document failures are warnings, never fatal.
	result.State = models.StateExtracting
	ext := extractor.NewWithConfig(extractor.ExtractorConfig{
		Year:        o.year,
		FormTargets: topic.FormMapTargets,
	})

	var rules []models.RuleSpec
	seen := make(map[string]bool)
	for _, doc := range docs {
		docRules, err := extractRules(ext, doc, chunks)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("extraction failed for document %s: %v", doc.DocID, err))
			continue
		}
		for _, rule := range docRules {
			if seen[rule.RuleID] {
				continue
			}
			seen[rule.RuleID] = true
			rules = append(rules, rule)
		}
	}
	result.Artifacts.RuleSpecs = rules

	// Synthesizing. A synthesis error is fatal for the topic.
	result.State = models.StateSynthesizing
	synthOut, err := o.synthesizer.Synthesize(rules)
	if err != nil {
		return fail(fmt.Sprintf("synthesis stage failed: %v", err))
	}
	result.Artifacts.Notes = synthOut.Notes
	result.Artifacts.Steps = synthOut.Steps

	// Gate evaluation.
	result.State = models.StateGateEvaluation
	gateResults := []models.QualityGateResult{
		extractor.ValidationGate(rules),
		synthesizer.ValidationGate(synthOut.Notes, synthOut.Steps),
		gates.AuthorityGate(docs, sources),
		gates.CitationCoverageGate(rules),
	}
	result.Artifacts.Gates = gateResults
	result.Quality = gates.Aggregate(gateResults)
	critical := gates.CriticalFailure(gateResults, o.criticalGates)
	if critical {
		result.Warnings = append(result.Warnings, "critical quality gate failed")
	}

	// Packaging always happens on non-fatal paths, so partial progress is
	// never lost.
	result.State = models.StatePackaging
	pkg := o.assemblePackage(topic.ID, rules, synthOut, result.Quality)
	if err := o.store.StorePackage(ctx, pkg); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("persistence degraded: %v", err))
	}
	if err := o.store.StoreChunks(ctx, pkg.PackageID, topic.ID, chunks); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("chunk indexing degraded: %v", err))
	}
	result.PackageID = pkg.PackageID

	now := time.Now()
	for _, doc := range docs {
		if src, ok := o.registry.Lookup(hostOf(doc.SourceURL)); ok {
			o.registry.MarkCrawled(src.Domain, now)
		}
	}

	result.Success = !critical
	if critical || len(result.Warnings) > 0 {
		result.State = models.StatePartialSuccess
	} else {
		result.State = models.StateSuccess
	}
	result.ExecutionTime = time.Since(start)
	return result
}

// extractRules isolates one document's extraction so a panic in a strategy
// degrades to a per-document warning.
func extractRules(ext *extractor.Extractor, doc models.LegalDocument, chunks []models.DocumentChunk) (rules []models.RuleSpec, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panic: %v", r)
		}
	}()
	return ext.Extract(doc, chunks), nil
}

func (o *Orchestrator) assemblePackage(topicID string, rules []models.RuleSpec, synthOut *synthesizer.Output, quality models.QualitySummary) *models.EditorialPackage {
	version := 1
	if prev, ok := o.store.Cache().Latest(topicID); ok {
		version = prev.Version + 1
	}

	// KZ mappings are the union of every rule's form-field mappings.
	var mappings []models.FormFieldMapping
	seenMapping := make(map[string]bool)
	citationIndex := make(map[string][]string)
	for _, rule := range rules {
		for _, ff := range rule.FormFields {
			key := ff.Form + "/" + ff.FieldID
			if seenMapping[key] {
				continue
			}
			seenMapping[key] = true
			mappings = append(mappings, ff)
		}
		for _, c := range rule.Citations {
			citationIndex[c.Paragraph] = append(citationIndex[c.Paragraph], rule.RuleID)
		}
	}

	return &models.EditorialPackage{
		PackageID:     uuid.NewString(),
		Topic:         topicID,
		Version:       version,
		CreatedAt:     time.Now(),
		RuleSpecs:     rules,
		Notes:         synthOut.Notes,
		Steps:         synthOut.Steps,
		KZMappings:    mappings,
		CitationIndex: citationIndex,
		Quality:       quality,
	}
}

// flattenQueries returns all queries in deterministic source-type order.
func flattenQueries(queries map[string][]string) []string {
	var kinds []string
	for kind := range queries {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var out []string
	for _, kind := range kinds {
		out = append(out, queries[kind]...)
	}
	return out
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
