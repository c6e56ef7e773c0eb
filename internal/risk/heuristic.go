package risk

import "github.com/stoik/lure/internal/models"

// RuleVerdict is the older rule-based phishing call. Its score is a raw count
// (one per keyword hit, plus one for any URL and one for any attachment) on a
// different scale from Score; the two are reported side by side and never
// combined.
func RuleVerdict(keywordHits int, hasURLs, hasAttachments bool, tags models.BehaviorTags) models.RuleVerdict {
	score := keywordHits
	if hasURLs {
		score++
	}
	if hasAttachments {
		score++
	}

	return models.RuleVerdict{
		RuleScore:  score,
		IsPhishing: score >= 3 || (tags.Has(models.TagCredentialHarvest) && score >= 2),
	}
}

// Suggested actions
const (
	ActionBlockURL        = "block_url_and_alert"
	ActionSandbox         = "sandbox_attachment"
	ActionVerifyWithProc  = "verify_with_procurement"
	ActionFlagForTraining = "flag_for_training"
	ActionMonitor         = "monitor"
)

// SuggestedActions maps behavior tags to triage actions for the SOC
func SuggestedActions(tags models.BehaviorTags, attachments []string) []string {
	var actions []string
	if tags.Has(models.TagCredentialHarvest) || tags.Has(models.TagContainsURL) {
		actions = append(actions, ActionBlockURL)
	}
	if tags.Has(models.TagAttachmentMalware) || len(attachments) > 0 {
		actions = append(actions, ActionSandbox)
	}
	if tags.Has(models.TagFinancialFraud) {
		actions = append(actions, ActionVerifyWithProc)
	}
	if tags.Has(models.TagUrgency) {
		actions = append(actions, ActionFlagForTraining)
	}
	if len(actions) == 0 {
		actions = append(actions, ActionMonitor)
	}
	return actions
}
