package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/lure/internal/models"
)

func TestScore_Weights(t *testing.T) {
	tests := []struct {
		name string
		in   Signals
		want int
	}{
		{"nothing but auth", Signals{HasAuthResult: true}, 0},
		{"missing auth only", Signals{}, 10},
		{"keywords capped", Signals{KeywordHits: 9, HasAuthResult: true}, 40},
		{"urls capped", Signals{SuspiciousURLs: 5, HasAuthResult: true}, 45},
		{"attachments capped", Signals{Attachments: 7, HasAuthResult: true}, 15},
		{"mismatch", Signals{DomainMismatch: true, HasAuthResult: true}, 20},
		{"everything clamps to 100", Signals{KeywordHits: 10, SuspiciousURLs: 10, DomainMismatch: true, Attachments: 10}, 100},
		{"mixed", Signals{KeywordHits: 2, SuspiciousURLs: 1, Attachments: 1}, 20 + 15 + 5 + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, breakdown := Score(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, breakdown, 5)
		})
	}
}

func TestScore_BoundedAndMonotonic(t *testing.T) {
	for _, mismatch := range []bool{false, true} {
		for _, auth := range []bool{false, true} {
			prev := -1
			for n := 0; n <= 12; n++ {
				base := Signals{DomainMismatch: mismatch, HasAuthResult: auth}

				kw := base
				kw.KeywordHits = n
				url := base
				url.SuspiciousURLs = n
				att := base
				att.Attachments = n

				for _, s := range []Signals{kw, url, att} {
					score, _ := Score(s)
					require.GreaterOrEqual(t, score, 0)
					require.LessOrEqual(t, score, 100)
				}

				kwScore, _ := Score(kw)
				require.GreaterOrEqual(t, kwScore, prev, "keyword score decreased at n=%d", n)
				prev = kwScore

				if n > 0 {
					less := url
					less.SuspiciousURLs = n - 1
					a, _ := Score(less)
					b, _ := Score(url)
					require.GreaterOrEqual(t, b, a)

					lessAtt := att
					lessAtt.Attachments = n - 1
					a, _ = Score(lessAtt)
					b, _ = Score(att)
					require.GreaterOrEqual(t, b, a)
				}
			}
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	assert.Equal(t, models.LowRisk, Classify(0))
	assert.Equal(t, models.LowRisk, Classify(39))
	assert.Equal(t, models.MediumRisk, Classify(40))
	assert.Equal(t, models.MediumRisk, Classify(69))
	assert.Equal(t, models.HighRisk, Classify(70))
	assert.Equal(t, models.HighRisk, Classify(100))
}

func TestAssess_InvoiceOverdue(t *testing.T) {
	got := Assess(models.EmailInput{
		Subject: "Invoice #123 Overdue",
		Body:    "Please process this payment immediately.",
		Sender:  "billing@vendor.com",
	})

	assert.Equal(t, []string{"immediately", "overdue", "payment", "invoice"}, got.KeywordHits)
	assert.True(t, got.BehaviorTags.Has(models.TagFinancialFraud))
	assert.True(t, got.BehaviorTags.Has(models.TagUrgency))
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, models.MediumRisk, got.Classification)
	assert.False(t, got.DomainMismatch)
	assert.Empty(t, got.URLFindings)
}

func TestAssess_HighRisk(t *testing.T) {
	got := Assess(models.EmailInput{
		Subject:     "URGENT security alert",
		Body:        "Verify your account now: http://login.example.tk/verify and https://bit.ly/pay",
		BodyHTML:    `<a href="https://evil.ml/x">reset</a>`,
		Sender:      "it@attacker.net",
		DisplayName: "IT Support <helpdesk@corp.com>",
		Attachments: []string{"invoice.zip"},
	})

	require.Len(t, got.URLFindings, 3)
	assert.Equal(t, 100, got.Score)
	assert.True(t, got.DomainMismatch)
	assert.Equal(t, models.HighRisk, got.Classification)
	assert.Equal(t, 45, got.Breakdown["urls"])
	assert.Equal(t, 20, got.Breakdown["domain_mismatch"])
	assert.Equal(t, 5, got.Breakdown["attachments"])
}

func TestAssess_HTMLOnlyLinkTagsContainsURL(t *testing.T) {
	in := models.EmailInput{
		Subject:    "Quarterly report",
		Body:       "See the attached summary.",
		BodyHTML:   `<p>Open the <a href="https://bit.ly/q3">report</a></p>`,
		AuthResult: "spf=pass",
	}

	a := Assess(in)
	require.Len(t, a.URLFindings, 1)
	assert.True(t, a.BehaviorTags.Has(models.TagContainsURL))
	assert.Contains(t, SuggestedActions(a.BehaviorTags, in.Attachments), ActionBlockURL)
}

func TestAssess_Idempotent(t *testing.T) {
	in := models.EmailInput{
		Subject:     "Password reset",
		Body:        "click here http://bit.ly/a http://bit.ly/a",
		Sender:      "a@x.com",
		DisplayName: "Admin <a@y.com>",
		Attachments: []string{"a.exe", "b.exe"},
		AuthResult:  "spf=pass",
	}

	first := Assess(in)
	second := Assess(in)
	assert.Equal(t, first, second)
}

func TestAssess_EmptyInputIsNeutral(t *testing.T) {
	got := Assess(models.EmailInput{})
	assert.Equal(t, 10, got.Score)
	assert.Equal(t, models.LowRisk, got.Classification)
	assert.NotNil(t, got.KeywordHits)
	assert.NotNil(t, got.URLFindings)
}
