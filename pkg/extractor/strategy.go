package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/steuerkompass/editorial/internal/models"
)

// Strategy recognizes one calculable-rule shape in a chunk of legal text.
// Match returns nil when the chunk contains no parseable instance of the
// shape; a matched pattern without a parseable number never yields a rule.
type Strategy interface {
	Kind() models.RuleKind
	Match(topic string, chunk models.DocumentChunk) *models.RuleSpec
}

// DefaultStrategies returns the three built-in rule shapes.
func DefaultStrategies() []Strategy {
	return []Strategy{
		FixedAllowanceStrategy{},
		CappedAmountStrategy{},
		PercentageStrategy{},
	}
}

var (
	fixedAllowanceRe = regexp.MustCompile(`(?i)(Pauschbetrag|Pauschale)\b[^.]{0,80}?(\d{1,3}(?:\.\d{3})*(?:,\d+)?)\s*(?:Euro|EUR|€)`)
	cappedAmountRe   = regexp.MustCompile(`(?i)(Höchstbetrag|höchstens|maximal)\b[^.]{0,80}?(\d{1,3}(?:\.\d{3})*(?:,\d+)?)\s*(?:Euro|EUR|€)`)
	percentageRe     = regexp.MustCompile(`(\d{1,3}(?:,\d+)?)\s*(?:Prozent|%)`)
)

// parseGermanNumber converts "1.230" or "1.230,50" to its float value.
func parseGermanNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func citationFor(chunk models.DocumentChunk) models.Citation {
	return models.Citation{
		DocID:     chunk.DocID,
		Paragraph: chunk.Paragraph,
		Page:      chunk.Page,
	}
}

// FixedAllowanceStrategy finds flat amounts ("Pauschbetrag beträgt 1.230
// Euro"): the taxpayer gets at least the fixed amount regardless of actual
// expenses.
type FixedAllowanceStrategy struct{}

func (FixedAllowanceStrategy) Kind() models.RuleKind { return models.RuleKindFixedAllowance }

func (s FixedAllowanceStrategy) Match(topic string, chunk models.DocumentChunk) *models.RuleSpec {
	m := fixedAllowanceRe.FindStringSubmatch(chunk.Text)
	if m == nil {
		return nil
	}
	amount, ok := parseGermanNumber(m[2])
	if !ok {
		return nil
	}

	value := formatAmount(amount)
	return &models.RuleSpec{
		Topic:        topic,
		Kind:         s.Kind(),
		Definition:   fmt.Sprintf("Pauschbetrag von %s Euro wird ohne Einzelnachweis berücksichtigt.", value),
		Parameters:   map[string]string{"amount": value},
		Logic:        fmt.Sprintf("value = max(actual_expenses, %s)", value),
		RoundingNote: "Betrag in vollen Euro",
		Citations:    []models.Citation{citationFor(chunk)},
		Tests: []models.TestVector{
			{
				Input:  map[string]float64{"actual_expenses": amount / 2},
				Expect: amount,
			},
		},
	}
}

// CappedAmountStrategy finds ceilings ("Höchstbetrag", "höchstens"): the
// deductible value is clamped to the cap.
type CappedAmountStrategy struct{}

func (CappedAmountStrategy) Kind() models.RuleKind { return models.RuleKindCappedAmount }

func (s CappedAmountStrategy) Match(topic string, chunk models.DocumentChunk) *models.RuleSpec {
	m := cappedAmountRe.FindStringSubmatch(chunk.Text)
	if m == nil {
		return nil
	}
	cap, ok := parseGermanNumber(m[2])
	if !ok {
		return nil
	}

	value := formatAmount(cap)
	return &models.RuleSpec{
		Topic:        topic,
		Kind:         s.Kind(),
		Definition:   fmt.Sprintf("Abzug ist auf höchstens %s Euro begrenzt.", value),
		Parameters:   map[string]string{"cap": value},
		Logic:        fmt.Sprintf("value = min(actual_amount, %s)", value),
		RoundingNote: "Betrag in vollen Euro",
		Citations:    []models.Citation{citationFor(chunk)},
		Tests: []models.TestVector{
			{
				Input:  map[string]float64{"actual_amount": cap * 2},
				Expect: cap,
			},
		},
	}
}

// PercentageStrategy finds rates ("20 Prozent"): the value is a share of a
// base amount.
type PercentageStrategy struct{}

func (PercentageStrategy) Kind() models.RuleKind { return models.RuleKindPercentage }

// referenceBase is the fixed base the generated test vector is computed
// against.
const referenceBase = 1000.0

func (s PercentageStrategy) Match(topic string, chunk models.DocumentChunk) *models.RuleSpec {
	m := percentageRe.FindStringSubmatch(chunk.Text)
	if m == nil {
		return nil
	}
	percent, ok := parseGermanNumber(m[1])
	if !ok || percent <= 0 || percent > 100 {
		return nil
	}
	rate := percent / 100

	rateStr := strconv.FormatFloat(rate, 'f', -1, 64)
	return &models.RuleSpec{
		Topic:        topic,
		Kind:         s.Kind(),
		Definition:   fmt.Sprintf("Es werden %s Prozent der Aufwendungen berücksichtigt.", formatAmount(percent)),
		Parameters:   map[string]string{"rate": rateStr},
		Logic:        fmt.Sprintf("value = base_amount * %s", rateStr),
		RoundingNote: "kaufmännisch auf volle Euro gerundet",
		Citations:    []models.Citation{citationFor(chunk)},
		Tests: []models.TestVector{
			{
				Input:  map[string]float64{"base_amount": referenceBase},
				Expect: referenceBase * rate,
			},
		},
	}
}
