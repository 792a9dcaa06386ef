package extractor

import (
	"regexp"
	"strings"
)

// statuteTopics maps well-known EStG paragraph numbers to topic names.
// Chunks whose paragraph reference is unrecognized fall back to keyword
// matching, then to the generic bucket.
var statuteTopics = map[string]string{
	"4":   "betriebsausgaben",
	"9":   "werbungskosten",
	"9a":  "werbungskosten",
	"10":  "sonderausgaben",
	"19":  "arbeitslohn",
	"20":  "kapitalertraege",
	"21":  "vermietung_verpachtung",
	"33":  "aussergewoehnliche_belastungen",
	"33a": "unterhaltsleistungen",
	"35a": "haushaltsnahe_dienstleistungen",
}

var topicKeywords = []struct {
	keyword string
	topic   string
}{
	{"werbungskosten", "werbungskosten"},
	{"entfernungspauschale", "werbungskosten"},
	{"arbeitsmittel", "werbungskosten"},
	{"homeoffice", "werbungskosten"},
	{"sonderausgaben", "sonderausgaben"},
	{"vorsorgeaufwendungen", "sonderausgaben"},
	{"kapitalerträge", "kapitalertraege"},
	{"sparer-pauschbetrag", "kapitalertraege"},
	{"vermietung", "vermietung_verpachtung"},
	{"außergewöhnliche belastung", "aussergewoehnliche_belastungen"},
	{"haushaltsnahe", "haushaltsnahe_dienstleistungen"},
	{"handwerkerleistung", "haushaltsnahe_dienstleistungen"},
	{"unterhalt", "unterhaltsleistungen"},
}

// GenericTopic is the bucket for chunks no lookup or keyword matched.
const GenericTopic = "allgemein"

var paragraphNumRe = regexp.MustCompile(`§\s*(\d+[a-z]?)`)

// InferTopic resolves a chunk to a topic name: statute-paragraph lookup
// first, keyword match on the text as fallback.
func InferTopic(paragraph, text string) string {
	if m := paragraphNumRe.FindStringSubmatch(paragraph); m != nil {
		if topic, ok := statuteTopics[strings.ToLower(m[1])]; ok {
			return topic
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.topic
		}
	}

	return GenericTopic
}
