package signals

import (
	"strings"

	"github.com/stoik/lure/internal/models"
)

type behaviorRule struct {
	tag      models.BehaviorTag
	patterns []string
}

// Patterns are matched as plain substrings of the normalized (lower-case)
// text, so they must be lower-case themselves.
var behaviorRules = []behaviorRule{
	{models.TagUrgency, []string{"urgent", "immediately", "asap", "within 24", "right away"}},
	{models.TagCredentialHarvest, []string{"reset your password", "verify your account", "login", "sign in", "enter credentials", "update your password"}},
	{models.TagFinancialFraud, []string{"invoice", "pay", "payment", "wire", "transfer", "bank"}},
	{models.TagAttachmentMalware, []string{".exe", ".zip", ".scr", ".js", ".bat", ".docm", ".xlsm", "attachment"}},
	{models.TagURLShortener, []string{"bit.ly", "tinyurl", "t.co", "goo.gl"}},
	{models.TagFakeAuthority, []string{"from the ceo", "from payroll", "from admin", "it support", "hr department", "accounts payable"}},
}

// Normalize lower-cases text and collapses every whitespace run to one space
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// DetectBehaviors tags the suspicious lexical patterns present in subject and
// body. contains_url is added when at least one URL is found.
func DetectBehaviors(subject, body string) models.BehaviorTags {
	raw := subject + " " + body
	text := Normalize(raw)

	tags := make(models.BehaviorTags)
	for _, rule := range behaviorRules {
		for _, p := range rule.patterns {
			if strings.Contains(text, p) {
				tags.Add(rule.tag)
				break
			}
		}
	}

	if len(ExtractURLs(raw)) > 0 {
		tags.Add(models.TagContainsURL)
	}

	return tags
}
