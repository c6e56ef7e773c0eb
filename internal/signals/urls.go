// Package signals extracts the deterministic phishing signals from message
// text: URLs, behavior tags, suspicious keywords and sender/display-name
// mismatches. Every function here is pure.
package signals

import (
	"regexp"
	"strings"

	"github.com/stoik/lure/internal/models"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)

// ShortenerDomains are link-shortening services that hide the real target
var ShortenerDomains = []string{"bit.ly", "tinyurl.com", "goo.gl", "ow.ly", "t.co", "buff.ly"}

// SuspiciousTLDs are free top-level domains heavily used for throwaway phishing hosts
var SuspiciousTLDs = []string{".tk", ".ml", ".ga"}

// ExtractURLs finds http(s) URLs in text (plain or HTML) and classifies each
// one. Findings are returned in first-seen order; duplicates are kept.
func ExtractURLs(text string) []models.URLFinding {
	if text == "" {
		return nil
	}

	matches := urlPattern.FindAllString(text, -1)
	findings := make([]models.URLFinding, 0, len(matches))
	for _, raw := range matches {
		raw = strings.TrimRight(raw, ".,;:!?)")

		scheme := "https"
		if strings.HasPrefix(strings.ToLower(raw), "http://") {
			scheme = "http"
		}

		finding := models.URLFinding{
			RawURL: raw,
			Scheme: scheme,
			Domain: extractDomain(raw),
		}
		if reason := classifyURL(scheme, finding.Domain); reason != "" {
			finding.IsSuspicious = true
			finding.Reason = &reason
		}
		findings = append(findings, finding)
	}

	return findings
}

// extractDomain returns the lower-cased text between "//" and the next "/" or
// ":", or nil when there is none.
func extractDomain(raw string) *string {
	idx := strings.Index(raw, "//")
	if idx < 0 {
		return nil
	}
	rest := raw[idx+2:]
	if end := strings.IndexAny(rest, "/:"); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return nil
	}
	domain := strings.ToLower(rest)
	return &domain
}

// classifyURL applies the checks in precedence order; first match wins.
func classifyURL(scheme string, domain *string) models.URLReason {
	if scheme == "http" {
		return models.ReasonInsecureHTTP
	}
	if domain == nil {
		return ""
	}
	for _, short := range ShortenerDomains {
		if *domain == short || strings.HasSuffix(*domain, "."+short) {
			return models.ReasonShortenedURL
		}
	}
	for _, tld := range SuspiciousTLDs {
		if strings.HasSuffix(*domain, tld) {
			return models.ReasonSuspiciousTLD
		}
	}
	return ""
}

// CountSuspicious returns how many findings are flagged
func CountSuspicious(findings []models.URLFinding) int {
	n := 0
	for _, f := range findings {
		if f.IsSuspicious {
			n++
		}
	}
	return n
}
