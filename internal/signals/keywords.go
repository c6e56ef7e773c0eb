package signals

import "strings"

// SuspiciousKeywords is the default keyword list fed to the risk scorer.
// "suspend" also covers "suspended"; list entries must not contain one another
// or a single word would score twice.
var SuspiciousKeywords = []string{
	"urgent", "immediately", "asap", "overdue",
	"payment", "invoice", "bank", "salary",
	"password", "verify", "reset", "confirm",
	"suspend", "click here", "act now", "limited time",
	"account locked", "unusual activity", "security alert",
}

// MatchKeywords returns the keywords present in text, in list order. Text is
// normalized first; a keyword also matches in its letter-spaced form
// ("p a s s w o r d").
func MatchKeywords(text string, keywords []string) []string {
	if text == "" {
		return nil
	}

	normalized := Normalize(text)
	var found []string
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) || strings.Contains(normalized, spaced(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

func spaced(s string) string {
	runes := []rune(s)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
