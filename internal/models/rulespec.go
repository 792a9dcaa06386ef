package models

import "time"

// RuleKind is one of the three calculable-rule shapes the extractor
// recognizes.
type RuleKind string

const (
	RuleKindFixedAllowance RuleKind = "fixed_allowance"
	RuleKindCappedAmount   RuleKind = "capped_amount"
	RuleKindPercentage     RuleKind = "percentage"
)

// Citation points at the exact chunk a rule or note was derived from.
type Citation struct {
	DocID     string `json:"doc_id"`
	Paragraph string `json:"paragraph"`
	Page      int    `json:"page,omitempty"`
}

// TestVector is one input/expected-output pair for a rule's logic
// expression.
type TestVector struct {
	Input  map[string]float64 `json:"input"`
	Expect float64            `json:"expect"`
}

// FormFieldMapping ties a rule's output value to an official form field
// (Kennziffer).
type FormFieldMapping struct {
	Form      string `json:"form"`
	FieldID   string `json:"field_id"`
	ValueType string `json:"value_type"`
}

// RuleSpec is a structured, testable calculation rule extracted from a legal
// source. Never mutated after creation: a changed source yields a new RuleID.
//
// Invariants: Citations and Tests are non-empty, and every numeric parameter
// traces to at least one citation.
type RuleSpec struct {
	RuleID        string             `json:"rule_id"`
	Topic         string             `json:"topic"`
	Kind          RuleKind           `json:"kind"`
	EffectiveFrom time.Time          `json:"effective_from,omitempty"`
	EffectiveTo   time.Time          `json:"effective_to,omitempty"`
	FormFields    []FormFieldMapping `json:"form_fields,omitempty"`
	Definition    string             `json:"definition"`
	Parameters    map[string]string  `json:"parameters"`
	Logic         string             `json:"logic"`
	RoundingNote  string             `json:"rounding_note,omitempty"`
	Citations     []Citation         `json:"citations"`
	Tests         []TestVector       `json:"tests"`
}
