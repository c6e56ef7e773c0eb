package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// URLReason explains why a URL was flagged
type URLReason string

const (
	ReasonInsecureHTTP  URLReason = "insecure_http"
	ReasonShortenedURL  URLReason = "shortened_url"
	ReasonSuspiciousTLD URLReason = "suspicious_tld"
)

// URLFinding is one URL found in message text
type URLFinding struct {
	RawURL       string     `json:"url"`
	Scheme       string     `json:"scheme"`
	Domain       *string    `json:"domain"`
	IsSuspicious bool       `json:"is_suspicious"`
	Reason       *URLReason `json:"reason"`
}

// BehaviorTag names a category of suspicious textual pattern
type BehaviorTag string

const (
	TagUrgency           BehaviorTag = "urgency"
	TagCredentialHarvest BehaviorTag = "credential_harvest"
	TagFinancialFraud    BehaviorTag = "financial_fraud"
	TagAttachmentMalware BehaviorTag = "attachment_malware"
	TagURLShortener      BehaviorTag = "url_shortener"
	TagFakeAuthority     BehaviorTag = "fake_authority"
	TagContainsURL       BehaviorTag = "contains_url"
)

// BehaviorTags is a set; only membership is meaningful
type BehaviorTags map[BehaviorTag]struct{}

// Add inserts a tag into the set
func (t BehaviorTags) Add(tag BehaviorTag) {
	t[tag] = struct{}{}
}

// Has reports membership
func (t BehaviorTags) Has(tag BehaviorTag) bool {
	_, ok := t[tag]
	return ok
}

// Sorted returns the tags as lexicographically sorted strings
func (t BehaviorTags) Sorted() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, string(tag))
	}
	sort.Strings(out)
	return out
}

// MarshalJSON emits the set as a sorted array so output is reproducible
func (t BehaviorTags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Sorted())
}

// UnmarshalJSON reads the array form written by MarshalJSON
func (t *BehaviorTags) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	set := make(BehaviorTags, len(tags))
	for _, tag := range tags {
		set.Add(BehaviorTag(tag))
	}
	*t = set
	return nil
}

// Classification is the risk band derived from the 0-100 score
type Classification string

const (
	LowRisk    Classification = "low_risk"
	MediumRisk Classification = "medium_risk"
	HighRisk   Classification = "high_risk"
)

// RiskAssessment is the deterministic result of the scoring engine
type RiskAssessment struct {
	Score          int            `json:"risk_score"`
	Classification Classification `json:"classification"`
	KeywordHits    []string       `json:"suspicious_keywords_detected"`
	URLFindings    []URLFinding   `json:"urls"`
	BehaviorTags   BehaviorTags   `json:"behaviour_tags"`
	DomainMismatch bool           `json:"domain_mismatch"`
	Breakdown      map[string]int `json:"score_breakdown"`
}

// RuleVerdict is the small-scale rule heuristic. RuleScore is a raw count and
// is NOT comparable with RiskAssessment.Score.
type RuleVerdict struct {
	RuleScore  int  `json:"rule_score"`
	IsPhishing bool `json:"is_phishing"`
}

// Persona is the organisational role an email appears to target
type Persona string

const (
	PersonaFinance Persona = "finance"
	PersonaHR      Persona = "hr"
	PersonaIT      Persona = "it"
	PersonaGeneral Persona = "general"
)

// ParsePersona maps free text onto a Persona. "employee" is the historical
// name of the catch-all; anything unrecognised is general.
func ParsePersona(s string) Persona {
	switch Persona(s) {
	case PersonaFinance, PersonaHR, PersonaIT:
		return Persona(s)
	default:
		return PersonaGeneral
	}
}

// PersonaResult is the classifier output
type PersonaResult struct {
	Persona    Persona         `json:"persona"`
	Confidence float64         `json:"confidence"`
	Scores     map[Persona]int `json:"scores"`
}

// Verdict sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// PhishingVerdict is the AI opinion, or the safe default when the AI failed
type PhishingVerdict struct {
	IsPhishing bool     `json:"is_phishing"`
	RiskScore  int      `json:"risk_score"`
	Tags       []string `json:"tags"`
	Reasoning  string   `json:"reasoning"`
	Source     string   `json:"source"`
}

// ReplyDraft is a persona-consistent reply
type ReplyDraft struct {
	Subject     string  `json:"reply_subject"`
	Body        string  `json:"reply_body"`
	PersonaUsed Persona `json:"persona_used"`
	Source      string  `json:"source"`
}

// AnalysisResponse is the composite result of one analysis pass
type AnalysisResponse struct {
	ID               uuid.UUID       `json:"id"`
	Subject          string          `json:"subject"`
	Sender           string          `json:"sender"`
	Risk             RiskAssessment  `json:"risk"`
	Persona          PersonaResult   `json:"persona"`
	RuleHeuristic    RuleVerdict     `json:"rule_heuristic"`
	PhishingAnalysis PhishingVerdict `json:"phishing_analysis"`
	GeneratedReply   *ReplyDraft     `json:"generated_reply,omitempty"`
	SpoofFlags       []string        `json:"spoof_flags"`
	SuggestedActions []string        `json:"suggested_actions"`
	AnalyzedAt       time.Time       `json:"analyzed_at"`
}

// AnalysisRecord is the persisted summary of an analysis (database model).
// IsPhishing is the model verdict and RuleIsPhishing the rule heuristic; they
// are stored side by side.
type AnalysisRecord struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Fingerprint    string          `db:"fingerprint" json:"fingerprint"`
	Sender         string          `db:"sender" json:"sender"`
	Subject        string          `db:"subject" json:"subject"`
	Persona        Persona         `db:"persona" json:"persona"`
	RiskScore      int             `db:"risk_score" json:"risk_score"`
	Classification Classification  `db:"classification" json:"classification"`
	IsPhishing     bool            `db:"is_phishing" json:"is_phishing"`
	RuleIsPhishing bool            `db:"rule_is_phishing" json:"rule_is_phishing"`
	Result         json.RawMessage `db:"result" json:"result"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
