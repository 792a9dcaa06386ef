package synthesizer

import (
	"fmt"
	"strings"

	"github.com/steuerkompass/editorial/internal/models"
)

// Synthesizer turns RuleSpecs into audience-tagged editorial notes and
// procedural user steps. It never invents citations: every note and step
// carries the originating rule's citation list unchanged.
type Synthesizer struct{}

func New() *Synthesizer { return &Synthesizer{} }

// Output bundles the synthesized content for one topic run.
type Output struct {
	Notes []models.EditorialNote
	Steps []models.UserStep
}

// Synthesize produces at least one note per audience (user, reviewer, dev)
// for every rule, plus topic-specific user steps. A rule missing its logic
// or citations is a fatal synthesis error; the caller aborts the run.
func (s *Synthesizer) Synthesize(rules []models.RuleSpec) (*Output, error) {
	out := &Output{}

	for _, rule := range rules {
		if rule.Logic == "" {
			return nil, &models.SynthesisError{RuleID: rule.RuleID, Reason: "rule has no logic expression"}
		}
		if len(rule.Citations) == 0 {
			return nil, &models.SynthesisError{RuleID: rule.RuleID, Reason: "rule has no citations"}
		}

		out.Notes = append(out.Notes,
			s.userNote(rule),
			s.reviewerNote(rule),
			s.devNote(rule),
		)
		out.Steps = append(out.Steps, s.stepsFor(rule)...)
	}

	return out, nil
}

// userNote states the rule in plain language, grounded in the rule's actual
// topic and amount rather than a template placeholder.
func (s *Synthesizer) userNote(rule models.RuleSpec) models.EditorialNote {
	var text string
	label := topicLabel(rule.Topic)

	switch rule.Kind {
	case models.RuleKindFixedAllowance:
		text = fmt.Sprintf(
			"Bei %s gilt ein Pauschbetrag von %s Euro. Liegen Ihre tatsächlichen Kosten darunter, zählt automatisch der Pauschbetrag.",
			label, rule.Parameters["amount"])
	case models.RuleKindCappedAmount:
		text = fmt.Sprintf(
			"Bei %s können Sie höchstens %s Euro ansetzen. Höhere Ausgaben wirken sich nicht mehr aus.",
			label, rule.Parameters["cap"])
	case models.RuleKindPercentage:
		text = fmt.Sprintf(
			"Bei %s zählt ein Anteil von %s der Aufwendungen. Den Rest tragen Sie selbst.",
			label, percentLabel(rule.Parameters["rate"]))
	default:
		text = rule.Definition
	}

	return models.EditorialNote{
		ID:        rule.RuleID + "_user",
		RuleID:    rule.RuleID,
		Audience:  models.AudienceUser,
		Text:      text,
		Citations: rule.Citations,
	}
}

// reviewerNote states logic and parameters verbatim for auditing.
func (s *Synthesizer) reviewerNote(rule models.RuleSpec) models.EditorialNote {
	var params []string
	for name, value := range rule.Parameters {
		params = append(params, fmt.Sprintf("%s=%s", name, value))
	}

	text := fmt.Sprintf("Logik: %s. Parameter: %s. Quelle: %s.",
		rule.Logic, strings.Join(params, ", "), rule.Citations[0].Paragraph)

	return models.EditorialNote{
		ID:        rule.RuleID + "_reviewer",
		RuleID:    rule.RuleID,
		Audience:  models.AudienceReviewer,
		Text:      text,
		Citations: rule.Citations,
	}
}

// devNote states the form mapping and test-vector count for implementers.
func (s *Synthesizer) devNote(rule models.RuleSpec) models.EditorialNote {
	mapping := "Keine Formularzuordnung hinterlegt."
	if len(rule.FormFields) > 0 {
		var targets []string
		for _, ff := range rule.FormFields {
			targets = append(targets, fmt.Sprintf("%s Feld %s (%s)", ff.Form, ff.FieldID, ff.ValueType))
		}
		mapping = "Mappt auf " + strings.Join(targets, ", ") + "."
	}

	text := fmt.Sprintf("%s Regel %s mit %d Testvektor(en).", mapping, rule.RuleID, len(rule.Tests))

	return models.EditorialNote{
		ID:        rule.RuleID + "_dev",
		RuleID:    rule.RuleID,
		Audience:  models.AudienceDev,
		Text:      text,
		Citations: rule.Citations,
	}
}

// stepsFor applies the topic decision table; topics without an entry get
// one generic step restating the rule's definition as the rationale.
func (s *Synthesizer) stepsFor(rule models.RuleSpec) []models.UserStep {
	switch rule.Topic {
	case "werbungskosten":
		return []models.UserStep{
			{
				RuleID:    rule.RuleID,
				Title:     "Belege sammeln",
				Why:       "Nur nachgewiesene berufliche Ausgaben können oberhalb des Pauschbetrags berücksichtigt werden.",
				How:       "Sammeln Sie Quittungen und Rechnungen für Arbeitsmittel, Fahrten und Fortbildungen über das Jahr.",
				Citations: rule.Citations,
			},
			{
				RuleID:    rule.RuleID,
				Title:     "Mit dem Pauschbetrag vergleichen",
				Why:       "Liegen die tatsächlichen Kosten unter dem Pauschbetrag, lohnt sich kein Einzelnachweis.",
				How:       "Addieren Sie Ihre Ausgaben und tragen Sie nur bei einem höheren Betrag die Einzelposten ein.",
				Citations: rule.Citations,
			},
		}
	case "haushaltsnahe_dienstleistungen":
		return []models.UserStep{
			{
				RuleID:    rule.RuleID,
				Title:     "Rechnung und Zahlungsbeleg aufbewahren",
				Why:       "Barzahlungen werden nicht anerkannt; die Zahlung muss per Überweisung nachweisbar sein.",
				How:       "Bewahren Sie die Rechnung des Dienstleisters und den Kontoauszug der Überweisung auf.",
				Citations: rule.Citations,
			},
		}
	case "sonderausgaben":
		return []models.UserStep{
			{
				RuleID:    rule.RuleID,
				Title:     "Nachweise zusammenstellen",
				Why:       "Versicherungsbeiträge und Spenden zählen nur mit Bescheinigung.",
				How:       "Fordern Sie die Jahresbescheinigungen Ihrer Versicherer an und legen Sie Spendenquittungen bei.",
				Citations: rule.Citations,
			},
		}
	}

	return []models.UserStep{
		{
			RuleID:    rule.RuleID,
			Title:     "Angaben prüfen",
			Why:       rule.Definition,
			How:       "Prüfen Sie, ob die Regel auf Ihre Situation zutrifft, und tragen Sie den Wert im passenden Formularfeld ein.",
			Citations: rule.Citations,
		},
	}
}

func topicLabel(topic string) string {
	labels := map[string]string{
		"werbungskosten":                "den Werbungskosten",
		"sonderausgaben":                "den Sonderausgaben",
		"kapitalertraege":               "Kapitalerträgen",
		"vermietung_verpachtung":        "Vermietung und Verpachtung",
		"aussergewoehnliche_belastungen": "außergewöhnlichen Belastungen",
		"haushaltsnahe_dienstleistungen": "haushaltsnahen Dienstleistungen",
		"unterhaltsleistungen":          "Unterhaltsleistungen",
		"betriebsausgaben":              "den Betriebsausgaben",
		"arbeitslohn":                   "dem Arbeitslohn",
	}
	if label, ok := labels[topic]; ok {
		return label
	}
	return "diesem Thema"
}

func percentLabel(rate string) string {
	// rate is stored as a decimal string ("0.2"); render it as a percent.
	if strings.HasPrefix(rate, "0.") {
		trimmed := strings.TrimPrefix(rate, "0.")
		if len(trimmed) == 1 {
			return trimmed + "0 Prozent"
		}
		if len(trimmed) == 2 {
			return strings.TrimPrefix(trimmed, "0") + " Prozent"
		}
	}
	if rate == "1" {
		return "100 Prozent"
	}
	return rate + " (Anteil)"
}
