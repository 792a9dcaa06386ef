package models

import "time"

// EditorialPackage is the aggregate root produced by one successful pipeline
// run for one topic. Immutable; superseding runs create a new PackageID.
type EditorialPackage struct {
	PackageID     string              `json:"package_id"`
	Topic         string              `json:"topic"`
	Version       int                 `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	RuleSpecs     []RuleSpec          `json:"rulespecs"`
	Notes         []EditorialNote     `json:"notes"`
	Steps         []UserStep          `json:"steps"`
	KZMappings    []FormFieldMapping  `json:"kz_mappings"`
	CitationIndex map[string][]string `json:"citation_index"` // paragraph -> rule ids
	Quality       QualitySummary      `json:"quality"`
}

// PipelineState names one stage of the orchestrator's state machine.
type PipelineState string

const (
	StateFetching       PipelineState = "fetching"
	StateNormalizing    PipelineState = "normalizing"
	StateExtracting     PipelineState = "extracting"
	StateSynthesizing   PipelineState = "synthesizing"
	StateGateEvaluation PipelineState = "gate_evaluation"
	StatePackaging      PipelineState = "packaging"
	StateSuccess        PipelineState = "success"
	StatePartialSuccess PipelineState = "partial_success"
	StateFailed         PipelineState = "failed"
)

// PipelineArtifacts collects everything the stages produced, including on
// failed runs whatever was available before the failing stage.
type PipelineArtifacts struct {
	Fetched   []FetchResult       `json:"fetched,omitempty"`
	Skipped   []SkippedCandidate  `json:"skipped,omitempty"`
	Documents []LegalDocument     `json:"documents,omitempty"`
	Chunks    []DocumentChunk     `json:"chunks,omitempty"`
	Links     []CitationLink      `json:"links,omitempty"`
	RuleSpecs []RuleSpec          `json:"rulespecs,omitempty"`
	Notes     []EditorialNote     `json:"notes,omitempty"`
	Steps     []UserStep          `json:"steps,omitempty"`
	Gates     []QualityGateResult `json:"gates,omitempty"`
}

// PipelineResult is the structured outcome callers always receive, never a
// bare error for run-level issues.
type PipelineResult struct {
	Topic         string            `json:"topic"`
	State         PipelineState     `json:"state"`
	Success       bool              `json:"success"`
	PackageID     string            `json:"package_id,omitempty"`
	ExecutionTime time.Duration     `json:"execution_time"`
	Quality       QualitySummary    `json:"quality"`
	Artifacts     PipelineArtifacts `json:"artifacts"`
	Warnings      []string          `json:"warnings,omitempty"`
	Errors        []string          `json:"errors,omitempty"`
}

// BatchResult is the per-topic breakdown plus aggregate counts a batch
// caller receives.
type BatchResult struct {
	Results   []PipelineResult `json:"results"`
	Skipped   []string         `json:"skipped,omitempty"` // topics inside their recrawl cadence
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Elapsed   time.Duration    `json:"elapsed"`
}
