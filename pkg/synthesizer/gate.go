package synthesizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steuerkompass/editorial/internal/models"
)

// normative indicators: a numeric amount or a modal verb implying
// obligation or permission. Text containing one must cite its source.
var (
	numericRe      = regexp.MustCompile(`\d`)
	normativeVerbs = []string{"beträgt", "müssen", "muss", "dürfen", "darf", "ist verpflichtet", "sind verpflichtet"}
)

// legalese connectors that should not appear in user-audience text.
var legaleseDenyList = []string{
	"gemäß",
	"im sinne des",
	"im sinne der",
	"nach maßgabe",
	"unbeschadet",
	"insoweit",
	"vorbehaltlich",
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+(\s|$)`)

func countSentences(text string) int {
	return len(sentenceEndRe.FindAllString(text, -1))
}

func hasNormativeIndicator(text string) bool {
	if numericRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, verb := range normativeVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

// ValidationGate builds the editorial_validation quality gate over
// synthesized notes and steps. Score = (valid notes + valid steps) /
// (total notes + total steps); passing requires zero error-level findings.
func ValidationGate(notes []models.EditorialNote, steps []models.UserStep) models.QualityGateResult {
	result := models.QualityGateResult{
		Name:      "editorial_validation",
		Threshold: 1.0,
	}

	valid := 0
	for _, note := range notes {
		ok := true

		if countSentences(note.Text) > 3 {
			ok = false
			result.Violations = append(result.Violations, models.Violation{
				Type:     "sentence_budget",
				Message:  fmt.Sprintf("note %s exceeds 3 sentences", note.ID),
				Severity: models.SeverityWarning,
			})
		}

		if hasNormativeIndicator(note.Text) && len(note.Citations) == 0 {
			ok = false
			result.Violations = append(result.Violations, models.Violation{
				Type:     "uncited_claim",
				Message:  fmt.Sprintf("note %s makes a normative claim without citations", note.ID),
				Severity: models.SeverityError,
			})
		}

		if note.Audience == models.AudienceUser {
			lower := strings.ToLower(note.Text)
			for _, term := range legaleseDenyList {
				if strings.Contains(lower, term) {
					ok = false
					result.Violations = append(result.Violations, models.Violation{
						Type:     "legalese",
						Message:  fmt.Sprintf("note %s uses legalistic term %q in user text", note.ID, term),
						Severity: models.SeverityWarning,
					})
					break
				}
			}
		}

		if ok {
			valid++
		}
	}

	for _, step := range steps {
		if step.Title == "" || step.Why == "" || step.How == "" {
			result.Violations = append(result.Violations, models.Violation{
				Type:     "incomplete_step",
				Message:  fmt.Sprintf("step for rule %s has an empty title, rationale or action", step.RuleID),
				Severity: models.SeverityError,
			})
			continue
		}
		valid++
	}

	total := len(notes) + len(steps)
	if total > 0 {
		result.Score = float64(valid) / float64(total)
	} else {
		result.Score = 1.0
	}
	result.Passed = result.ErrorCount() == 0

	return result
}
