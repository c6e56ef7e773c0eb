// Package phishing turns model output into phishing verdicts and persona
// replies, degrading to fixed safe results whenever the model cannot help.
package phishing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stoik/lure/internal/ai"
	"github.com/stoik/lure/internal/logger"
	"github.com/stoik/lure/internal/models"
)

const (
	analysisSystemPrompt = "You are a cybersecurity expert specializing in phishing detection."

	// TagAnalysisFailed marks a verdict produced without the model
	TagAnalysisFailed = "analysis_failed"

	reasonNotConfigured = "AI analysis is not configured."
	// Transport error text is logged, never returned to callers
	reasonModelFailed = "LLM failed to analyze content. The model was unavailable or returned an unusable reply."
)

// Generator is the part of the AI client the analyzer needs. *ai.Client
// satisfies it.
type Generator interface {
	GenerateText(ctx context.Context, prompt, system string) (string, error)
	GenerateJSON(ctx context.Context, prompt, system string) ai.JSONResult
}

// Analyzer asks a Generator for phishing verdicts and reply drafts. A nil
// Generator is allowed: every call then returns its fallback.
type Analyzer struct {
	gen Generator
	log *logger.Logger
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(gen Generator, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{gen: gen, log: log.WithComponent("phishing")}
}

// Enabled reports whether a model is configured
func (a *Analyzer) Enabled() bool {
	return a.gen != nil
}

// AnalyzePhishing asks the model for a verdict on in. It never fails: when
// the model is missing or its reply is unusable a verdict with
// TagAnalysisFailed and Source "fallback" is returned.
func (a *Analyzer) AnalyzePhishing(ctx context.Context, in models.EmailInput) models.PhishingVerdict {
	if a.gen == nil {
		return fallbackVerdict(reasonNotConfigured)
	}

	res := a.gen.GenerateJSON(ctx, analysisPrompt(in), analysisSystemPrompt)
	if !res.OK() {
		a.log.Warn().Str("error", res.Error).Msg("phishing analysis unavailable, using fallback verdict")
		return fallbackVerdict(reasonModelFailed)
	}

	return verdictFromJSON(res.Data)
}

func analysisPrompt(in models.EmailInput) string {
	return fmt.Sprintf(`Analyze the following email for phishing indicators.

Subject: %s
Sender: %s
Body:
%s

Check for:
1. Urgency (e.g., "immediate action required")
2. Threat (e.g., "account suspended")
3. Fake Authority (e.g., pretending to be CEO/IT)
4. Link Manipulation (suspicious URLs)
5. Unrealistic Offers
6. Social Engineering Tone

Return a JSON object with the following fields:
- is_phishing: boolean
- risk_score: integer (0-100)
- tags: list of strings (e.g., ["urgency", "fake_authority"])
- reasoning: short string explaining the verdict`, in.Subject, in.Sender, in.Body)
}

func fallbackVerdict(reason string) models.PhishingVerdict {
	return models.PhishingVerdict{
		IsPhishing: false,
		RiskScore:  0,
		Tags:       []string{TagAnalysisFailed},
		Reasoning:  reason,
		Source:     models.SourceFallback,
	}
}

// verdictFromJSON reads the model object leniently. Models return numbers as
// strings and booleans as "yes" often enough that strict decoding would throw
// away usable verdicts.
func verdictFromJSON(data map[string]any) models.PhishingVerdict {
	v := models.PhishingVerdict{
		IsPhishing: asBool(data["is_phishing"]),
		RiskScore:  clampScore(asInt(data["risk_score"])),
		Tags:       asStrings(data["tags"]),
		Reasoning:  "No reasoning provided.",
		Source:     models.SourceAI,
	}
	if r, ok := data["reasoning"].(string); ok && strings.TrimSpace(r) != "" {
		v.Reasoning = strings.TrimSpace(r)
	}
	return v
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case string:
		var n float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%g", &n); err == nil {
			return int(math.Round(n))
		}
	}
	return 0
}

func asStrings(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
