package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/services/analyzer/internal/store"
)

type fakeAnalyzer struct {
	mu          sync.Mutex
	verdict     models.PhishingVerdict
	replyCalls  int
	replyPerson models.Persona
	replyMode   models.ReplyMode
}

func (f *fakeAnalyzer) AnalyzePhishing(context.Context, models.EmailInput) models.PhishingVerdict {
	return f.verdict
}

func (f *fakeAnalyzer) GenerateReply(_ context.Context, in models.EmailInput, p models.Persona, mode models.ReplyMode) models.ReplyDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	f.replyPerson = p
	f.replyMode = mode
	return models.ReplyDraft{Subject: "Re: " + in.Subject, Body: "ok", PersonaUsed: p, Source: models.SourceAI}
}

type failingStore struct{ store.Store }

func (failingStore) Save(context.Context, models.AnalysisRecord) error {
	return errors.New("connection refused")
}

func invoiceRequest() models.AnalyzeRequest {
	return models.AnalyzeRequest{EmailInput: models.EmailInput{
		Subject: "Invoice #123 Overdue",
		Body:    "Please process this payment immediately.",
		Sender:  "billing@vendor.com",
	}}
}

func TestAnalyze_InvoiceScenario(t *testing.T) {
	fa := &fakeAnalyzer{verdict: models.PhishingVerdict{IsPhishing: true, RiskScore: 80, Tags: []string{"urgency"}, Source: models.SourceAI}}
	mem := store.NewMemory(10)
	svc := NewService(fa, mem, nil)

	resp, err := svc.Analyze(context.Background(), invoiceRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, models.PersonaFinance, resp.Persona.Persona)
	assert.True(t, resp.Risk.BehaviorTags.Has(models.TagFinancialFraud))
	assert.True(t, resp.Risk.BehaviorTags.Has(models.TagUrgency))
	assert.Contains(t, []models.Classification{models.MediumRisk, models.HighRisk}, resp.Risk.Classification)
	assert.GreaterOrEqual(t, len(resp.Risk.KeywordHits), 2)

	assert.True(t, resp.RuleHeuristic.IsPhishing)
	assert.Equal(t, len(resp.Risk.KeywordHits), resp.RuleHeuristic.RuleScore)
	assert.True(t, resp.PhishingAnalysis.IsPhishing)
	assert.Nil(t, resp.GeneratedReply)
	assert.Equal(t, 0, fa.replyCalls)
	assert.NotNil(t, resp.SpoofFlags)
	assert.NotEmpty(t, resp.SuggestedActions)

	rec, err := mem.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, store.Fingerprint("Invoice #123 Overdue", "Please process this payment immediately."), rec.Fingerprint)
	assert.Equal(t, resp.Risk.Score, rec.RiskScore)
}

func TestAnalyze_GeneratesReplyWithClassifiedPersona(t *testing.T) {
	fa := &fakeAnalyzer{}
	svc := NewService(fa, nil, nil)

	req := invoiceRequest()
	req.GenerateReply = true

	resp, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.GeneratedReply)
	assert.Equal(t, 1, fa.replyCalls)
	assert.Equal(t, models.PersonaFinance, fa.replyPerson)
	assert.Equal(t, models.ReplyStructured, fa.replyMode)
	assert.Equal(t, "Re: Invoice #123 Overdue", resp.GeneratedReply.Subject)
}

func TestAnalyze_FreeformReplyMode(t *testing.T) {
	fa := &fakeAnalyzer{}
	svc := NewService(fa, nil, nil)

	req := invoiceRequest()
	req.GenerateReply = true
	req.ReplyMode = models.ReplyFreeform

	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ReplyFreeform, fa.replyMode)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	svc := NewService(&fakeAnalyzer{}, nil, nil)

	tests := []struct {
		name string
		req  models.AnalyzeRequest
	}{
		{"empty", models.AnalyzeRequest{}},
		{"whitespace only", models.AnalyzeRequest{EmailInput: models.EmailInput{Subject: "  ", Body: "\n"}}},
		{"bad reply mode", models.AnalyzeRequest{EmailInput: models.EmailInput{Subject: "hi"}, ReplyMode: "poetry"}},
		{"too large", models.AnalyzeRequest{EmailInput: models.EmailInput{Body: strings.Repeat("a", MaxBodyBytes+1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAnalyze_HTMLOnlyIsValid(t *testing.T) {
	svc := NewService(&fakeAnalyzer{}, nil, nil)

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{EmailInput: models.EmailInput{
		BodyHTML: `<a href="http://login-update.tk/x">Sign in</a>`,
	}})
	require.NoError(t, err)
	require.Len(t, resp.Risk.URLFindings, 1)
	assert.True(t, resp.Risk.URLFindings[0].IsSuspicious)
}

func TestAnalyze_StoreFailureIsNotFatal(t *testing.T) {
	svc := NewService(&fakeAnalyzer{}, failingStore{}, nil)

	resp, err := svc.Analyze(context.Background(), invoiceRequest())
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	svc := NewService(&fakeAnalyzer{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, invoiceRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHistoryAndLookup(t *testing.T) {
	mem := store.NewMemory(10)
	svc := NewService(&fakeAnalyzer{}, mem, nil)
	ctx := context.Background()

	resp, err := svc.Analyze(ctx, invoiceRequest())
	require.NoError(t, err)

	list, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, resp.ID, list[0].ID)

	rec, err := svc.Lookup(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Subject, rec.Subject)

	_, err = svc.Lookup(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryWithoutStore(t *testing.T) {
	svc := NewService(&fakeAnalyzer{}, nil, nil)

	list, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Lookup(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
