// Package gates provides deterministic quality-gate evaluation and
// aggregation for pipeline runs.
package gates

import (
	"fmt"
	"strings"

	"github.com/steuerkompass/editorial/internal/models"
)

// Aggregate computes the run's quality summary. Category scores average the
// scores of all gates whose name contains the category keyword; a category
// with no contributing gates scores 0. Total violations counts findings of
// every severity.
func Aggregate(results []models.QualityGateResult) models.QualitySummary {
	summary := models.QualitySummary{
		CoverageScore:    categoryAverage(results, "coverage"),
		ConsistencyScore: categoryAverage(results, "consistency"),
		AuthorityScore:   categoryAverage(results, "authority"),
	}
	for _, r := range results {
		summary.TotalViolations += len(r.Violations)
	}
	return summary
}

func categoryAverage(results []models.QualityGateResult, keyword string) float64 {
	sum := 0.0
	n := 0
	for _, r := range results {
		if strings.Contains(r.Name, keyword) {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CriticalFailure reports whether any failing gate is in the run's
// configured critical set. Gates outside the set are advisory only.
func CriticalFailure(results []models.QualityGateResult, critical []string) bool {
	set := make(map[string]bool, len(critical))
	for _, name := range critical {
		set[name] = true
	}
	for _, r := range results {
		if !r.Passed && set[r.Name] {
			return true
		}
	}
	return false
}

// AuthorityGate scores the share of normalized documents that came from an
// authorized source of priority >= 2. Low-authority documents are flagged
// as info findings, unauthorized ones as errors.
func AuthorityGate(docs []models.LegalDocument, sources []models.AuthorizedSource) models.QualityGateResult {
	result := models.QualityGateResult{
		Name:      "authority_check",
		Threshold: 0.5,
	}

	authoritative := 0
	for _, doc := range docs {
		src, ok := lookupSource(doc.SourceURL, sources)
		if !ok {
			result.Violations = append(result.Violations, models.Violation{
				Type:     "unauthorized_source",
				Message:  fmt.Sprintf("document %s is not from an authorized source", doc.DocID),
				Severity: models.SeverityError,
			})
			continue
		}
		if src.Priority >= 2 {
			authoritative++
		} else {
			result.Violations = append(result.Violations, models.Violation{
				Type:     "low_authority",
				Message:  fmt.Sprintf("document %s comes from low-priority source %s", doc.DocID, src.Domain),
				Severity: models.SeverityInfo,
			})
		}
	}

	if len(docs) > 0 {
		result.Score = float64(authoritative) / float64(len(docs))
	} else {
		result.Score = 0
	}
	result.Passed = result.ErrorCount() == 0 && result.Score >= result.Threshold

	return result
}

// CitationCoverageGate scores the share of rules whose parameters all trace
// to at least one citation.
func CitationCoverageGate(rules []models.RuleSpec) models.QualityGateResult {
	result := models.QualityGateResult{
		Name:      "citation_coverage",
		Threshold: 1.0,
	}

	covered := 0
	for _, rule := range rules {
		if len(rule.Citations) == 0 {
			result.Violations = append(result.Violations, models.Violation{
				Type:     "uncited_parameters",
				Message:  fmt.Sprintf("rule %s has parameters without citations", rule.RuleID),
				Severity: models.SeverityError,
			})
			continue
		}
		covered++
	}

	if len(rules) > 0 {
		result.Score = float64(covered) / float64(len(rules))
	} else {
		result.Score = 1.0
	}
	result.Passed = result.ErrorCount() == 0

	return result
}

func lookupSource(rawURL string, sources []models.AuthorizedSource) (models.AuthorizedSource, bool) {
	for _, src := range sources {
		if strings.Contains(rawURL, src.Domain) {
			return src, true
		}
	}
	return models.AuthorizedSource{}, false
}
