// Package persona decides which organisational role an email is aimed at and
// holds the per-persona reply material.
package persona

import (
	"strings"

	"github.com/stoik/lure/internal/models"
)

type category struct {
	persona  models.Persona
	keywords []string
}

// Order matters: it is the tie-break priority (finance > hr > it > general).
var categories = []category{
	{models.PersonaFinance, []string{"invoice", "payment", "transfer", "vendor", "bank", "wire", "amount"}},
	{models.PersonaHR, []string{"resume", "cv", "candidate", "interview", "offer", "job"}},
	{models.PersonaIT, []string{"password", "reset", "mfa", "vpn", "ticket", "account", "support"}},
	{models.PersonaGeneral, []string{"meeting", "proposal", "document", "link", "review", "schedule"}},
}

// Classify counts every occurrence of each category's keywords in subject,
// body and optional hints (case-insensitive) and returns the category with the
// strictly highest count. Ties go to the earlier category; no hits at all
// yields general.
func Classify(subject, body string, hints []string) models.PersonaResult {
	text := strings.ToLower(subject + " " + body + " " + strings.Join(hints, " "))

	scores := make(map[models.Persona]int, len(categories))
	best, bestCount, total := models.PersonaGeneral, 0, 0
	for _, c := range categories {
		n := 0
		for _, kw := range c.keywords {
			n += strings.Count(text, kw)
		}
		scores[c.persona] = n
		total += n
		if n > bestCount {
			best, bestCount = c.persona, n
		}
	}

	confidence := 1.0
	if total > 0 {
		confidence = float64(bestCount) / float64(total)
	}

	return models.PersonaResult{
		Persona:    best,
		Confidence: confidence,
		Scores:     scores,
	}
}
