// Package risk aggregates the deterministic signals of an email into a bounded
// 0-100 score and a risk band.
package risk

import (
	"strings"

	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/internal/signals"
)

// Scoring weights. Each capped factor is points-per-item up to its cap.
const (
	KeywordPoints    = 10
	KeywordCap       = 40
	URLPoints        = 15
	URLCap           = 45
	MismatchPoints   = 20
	AttachmentPoints = 5
	AttachmentCap    = 15
	NoAuthPoints     = 10
	MaxScore         = 100

	MediumThreshold = 40
	HighThreshold   = 70
)

// Signals are the counted inputs of the score
type Signals struct {
	KeywordHits    int
	SuspiciousURLs int
	DomainMismatch bool
	Attachments    int
	HasAuthResult  bool
}

// Score aggregates signals into [0, 100] and returns the per-factor points
func Score(s Signals) (int, map[string]int) {
	breakdown := map[string]int{
		"keywords":        capped(s.KeywordHits, KeywordPoints, KeywordCap),
		"urls":            capped(s.SuspiciousURLs, URLPoints, URLCap),
		"domain_mismatch": 0,
		"attachments":     capped(s.Attachments, AttachmentPoints, AttachmentCap),
		"missing_auth":    0,
	}
	if s.DomainMismatch {
		breakdown["domain_mismatch"] = MismatchPoints
	}
	if !s.HasAuthResult {
		breakdown["missing_auth"] = NoAuthPoints
	}

	total := 0
	for _, pts := range breakdown {
		total += pts
	}
	if total > MaxScore {
		total = MaxScore
	}
	return total, breakdown
}

func capped(count, points, limit int) int {
	if count <= 0 {
		return 0
	}
	if v := count * points; v < limit {
		return v
	}
	return limit
}

// Classify maps a score to its band: <40 low, 40-69 medium, >=70 high
func Classify(score int) models.Classification {
	switch {
	case score >= HighThreshold:
		return models.HighRisk
	case score >= MediumThreshold:
		return models.MediumRisk
	default:
		return models.LowRisk
	}
}

// Assess runs every detector on the input and aggregates the result. It never
// fails; missing optional fields count as neutral.
func Assess(in models.EmailInput) models.RiskAssessment {
	urls := signals.ExtractURLs(in.Body + " " + in.BodyHTML)
	hits := signals.MatchKeywords(in.Subject+" "+in.Body, signals.SuspiciousKeywords)
	tags := signals.DetectBehaviors(in.Subject, in.Body)
	// URLs found only in the HTML body still count as links
	if len(urls) > 0 {
		tags.Add(models.TagContainsURL)
	}
	mismatch := signals.DomainMismatch(in.Sender, in.DisplayName)

	score, breakdown := Score(Signals{
		KeywordHits:    len(hits),
		SuspiciousURLs: signals.CountSuspicious(urls),
		DomainMismatch: mismatch,
		Attachments:    len(in.Attachments),
		HasAuthResult:  strings.TrimSpace(in.AuthResult) != "",
	})

	if hits == nil {
		hits = []string{}
	}
	if urls == nil {
		urls = []models.URLFinding{}
	}

	return models.RiskAssessment{
		Score:          score,
		Classification: Classify(score),
		KeywordHits:    hits,
		URLFindings:    urls,
		BehaviorTags:   tags,
		DomainMismatch: mismatch,
		Breakdown:      breakdown,
	}
}
