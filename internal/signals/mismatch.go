package signals

import (
	"net/mail"
	"strings"
	"unicode"
)

// DomainMismatch reports whether the display name embeds an address ("Name
// <addr>") whose domain differs from the sender's. It returns false when either
// input is empty or the display name carries no address; spoofs that only use
// a plain display name are not caught here.
func DomainMismatch(sender, displayName string) bool {
	if strings.TrimSpace(sender) == "" || strings.TrimSpace(displayName) == "" {
		return false
	}

	senderDomain := domainOf(parseAddress(sender))

	embedded, err := mail.ParseAddress(displayName)
	if err != nil || !strings.Contains(embedded.Address, "@") {
		return false
	}
	displayDomain := domainOf(embedded.Address)

	return senderDomain != "" && displayDomain != "" && senderDomain != displayDomain
}

// parseAddress returns the bare address from "Name <addr>" or "addr". Input
// that does not parse is returned trimmed.
func parseAddress(s string) string {
	if addr, err := mail.ParseAddress(s); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(s)
}

func domainOf(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// Spoof flags
const (
	FlagDisplayNameMismatch     = "display_name_mismatch"
	FlagSuspiciousDomainPattern = "suspicious_domain_pattern"
)

var suspiciousAddressFragments = []string{"-secure", "secure-", "account-", "verify-"}

// SpoofFlags reports cheap sender-spoofing hints: a display name claiming IT
// support sent from a non-support mailbox, and look-alike domain fragments.
// These are informational and do not feed the risk score.
func SpoofFlags(sender, displayName string) []string {
	words := displayWords(displayName)
	addr := strings.ToLower(sender)

	flags := []string{}
	if words["it"] && words["support"] &&
		!strings.Contains(addr, "support@") && !strings.Contains(addr, "it-") && !strings.Contains(addr, "it@") {
		flags = append(flags, FlagDisplayNameMismatch)
	}
	for _, frag := range suspiciousAddressFragments {
		if strings.Contains(addr, frag) {
			flags = append(flags, FlagSuspiciousDomainPattern)
			break
		}
	}
	return flags
}

// displayWords splits a display name into lower-case words, so "IT" matches
// but "Security" does not.
func displayWords(displayName string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(displayName), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}
