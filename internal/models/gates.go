package models

// Severity classifies a quality-gate violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Violation is one structured finding from a quality gate.
type Violation struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// QualityGateResult is the outcome of one named gate: pass/fail, a score in
// [0,1] against a threshold, and the individual findings.
type QualityGateResult struct {
	Name       string      `json:"name"`
	Passed     bool        `json:"passed"`
	Score      float64     `json:"score"`
	Threshold  float64     `json:"threshold"`
	Violations []Violation `json:"violations"`
}

// ErrorCount returns how many violations are error-severity.
func (r QualityGateResult) ErrorCount() int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			n++
		}
	}
	return n
}

// QualitySummary aggregates gate results across one pipeline run. Scores are
// keyword-category averages; a category with no contributing gates scores 0.
type QualitySummary struct {
	CoverageScore    float64 `json:"coverage_score"`
	ConsistencyScore float64 `json:"consistency_score"`
	AuthorityScore   float64 `json:"authority_score"`
	TotalViolations  int     `json:"total_violations"`
}
