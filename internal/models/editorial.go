package models

// Audience tags who an editorial note is written for.
type Audience string

const (
	AudienceUser     Audience = "user"
	AudienceReviewer Audience = "reviewer"
	AudienceDev      Audience = "dev"
)

// EditorialNote is a short, citation-backed plain-language note derived from
// one RuleSpec. Target length is three sentences or fewer.
type EditorialNote struct {
	ID        string     `json:"id"`
	RuleID    string     `json:"rule_id"`
	Audience  Audience   `json:"audience"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// UserStep is one procedural instruction synthesized from a RuleSpec.
type UserStep struct {
	RuleID    string     `json:"rule_id"`
	Title     string     `json:"title"`
	Why       string     `json:"why"`
	How       string     `json:"how"`
	Citations []Citation `json:"citations"`
}
