package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/steuerkompass/editorial/internal/models"
)

type ExtractorConfig struct {
	// Year stamps rule ids; zero means the current processing year.
	Year int
	// FormTargets are "Form/FieldID" pairs from the topic configuration,
	// attached to every rule the topic yields.
	FormTargets []string
}

// Extractor scans normalized chunks for calculable tax rules and emits
// immutable RuleSpecs. Extraction is idempotent within a run: colliding
// rule ids are duplicate detections and are not re-emitted.
type Extractor struct {
	config     ExtractorConfig
	strategies []Strategy
	formFields []models.FormFieldMapping
}

func NewWithConfig(config ExtractorConfig, strategies ...Strategy) *Extractor {
	if config.Year == 0 {
		config.Year = time.Now().Year()
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	return &Extractor{
		config:     config,
		strategies: strategies,
		formFields: parseFormTargets(config.FormTargets),
	}
}

// Extract produces every rule the strategies recognize in the document's
// chunks. Chunks are grouped by inferred topic first; each chunk is then
// scanned independently per strategy. No rule is ever emitted without the
// citation of the chunk that produced it.
func (e *Extractor) Extract(doc models.LegalDocument, chunks []models.DocumentChunk) []models.RuleSpec {
	grouped := make(map[string][]models.DocumentChunk)
	var topicOrder []string
	for _, chunk := range chunks {
		if chunk.DocID != doc.DocID {
			continue
		}
		topic := InferTopic(chunk.Paragraph, chunk.Text)
		if _, ok := grouped[topic]; !ok {
			topicOrder = append(topicOrder, topic)
		}
		grouped[topic] = append(grouped[topic], chunk)
	}

	var rules []models.RuleSpec
	emitted := make(map[string]bool)

	for _, topic := range topicOrder {
		for _, chunk := range grouped[topic] {
			for _, strategy := range e.strategies {
				rule := strategy.Match(topic, chunk)
				if rule == nil {
					continue
				}

				rule.RuleID = fmt.Sprintf("%s_%s_%d", topic, rule.Kind, e.config.Year)
				if emitted[rule.RuleID] {
					continue
				}
				emitted[rule.RuleID] = true

				rule.EffectiveFrom = doc.EffectiveFrom
				rule.EffectiveTo = doc.EffectiveTo
				if rule.EffectiveFrom.IsZero() {
					rule.EffectiveFrom = time.Date(e.config.Year, 1, 1, 0, 0, 0, 0, time.UTC)
				}
				rule.FormFields = e.formFields
				rules = append(rules, *rule)
			}
		}
	}

	return rules
}

func parseFormTargets(targets []string) []models.FormFieldMapping {
	var mappings []models.FormFieldMapping
	for _, target := range targets {
		form, field, found := strings.Cut(target, "/")
		if !found || form == "" || field == "" {
			continue
		}
		mappings = append(mappings, models.FormFieldMapping{
			Form:      form,
			FieldID:   field,
			ValueType: "euro",
		})
	}
	return mappings
}

// ValidationGate builds the rulespec_validation quality gate: error on
// missing citations or test vectors, warning on an empty parameter map.
// Score is the fraction of fully valid rules.
func ValidationGate(rules []models.RuleSpec) models.QualityGateResult {
	result := models.QualityGateResult{
		Name:      "rulespec_validation",
		Threshold: 1.0,
	}

	valid := 0
	for _, rule := range rules {
		ok := true
		if len(rule.Citations) == 0 {
			ok = false
			result.Violations = append(result.Violations, models.Violation{
				Type:     "missing_citation",
				Message:  fmt.Sprintf("rule %s has no citations", rule.RuleID),
				Severity: models.SeverityError,
			})
		}
		if len(rule.Tests) == 0 {
			ok = false
			result.Violations = append(result.Violations, models.Violation{
				Type:     "missing_test_vector",
				Message:  fmt.Sprintf("rule %s has no test vectors", rule.RuleID),
				Severity: models.SeverityError,
			})
		}
		if len(rule.Parameters) == 0 {
			result.Violations = append(result.Violations, models.Violation{
				Type:     "empty_parameters",
				Message:  fmt.Sprintf("rule %s has an empty parameter map", rule.RuleID),
				Severity: models.SeverityWarning,
			})
		}
		for _, tv := range rule.Tests {
			got, err := EvalLogic(rule.Logic, tv.Input)
			if err != nil {
				ok = false
				result.Violations = append(result.Violations, models.Violation{
					Type:     "logic_error",
					Message:  fmt.Sprintf("rule %s: %v", rule.RuleID, err),
					Severity: models.SeverityError,
				})
				continue
			}
			if diff := got - tv.Expect; diff > 0.01 || diff < -0.01 {
				ok = false
				result.Violations = append(result.Violations, models.Violation{
					Type:     "test_vector_mismatch",
					Message:  fmt.Sprintf("rule %s: logic yields %.2f, expected %.2f", rule.RuleID, got, tv.Expect),
					Severity: models.SeverityError,
				})
			}
		}
		if ok {
			valid++
		}
	}

	if len(rules) > 0 {
		result.Score = float64(valid) / float64(len(rules))
	} else {
		result.Score = 1.0
	}
	result.Passed = result.ErrorCount() == 0

	return result
}
