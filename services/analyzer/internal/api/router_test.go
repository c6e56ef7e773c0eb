package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/lure/internal/ai"
	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/internal/phishing"
	"github.com/stoik/lure/services/analyzer/internal/analysis"
	"github.com/stoik/lure/services/analyzer/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, state *ai.ModelState) (*gin.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(50)
	svc := analysis.NewService(phishing.NewAnalyzer(nil, nil), mem, nil)
	return NewRouter(svc, state, nil), mem
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ai_enabled"])
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestHealth_ReportsActiveModel(t *testing.T) {
	state := ai.NewModelState("primary", "fallback")
	state.SwitchToFallback()
	r, _ := newTestRouter(t, state)

	w := do(r, http.MethodGet, "/health", nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ai_enabled"])
	assert.Equal(t, "fallback", body["active_model"])
	assert.Equal(t, true, body["fallback_used"])
}

func TestRequestID_Propagated(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestAnalyzeEndpoint(t *testing.T) {
	r, mem := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/analyze", map[string]any{
		"subject":        "Invoice #123 Overdue",
		"body":           "Please process this payment immediately.",
		"sender":         "billing@vendor.com",
		"generate_reply": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.PersonaFinance, resp.Persona.Persona)
	assert.Equal(t, models.MediumRisk, resp.Risk.Classification)
	assert.Equal(t, []string{phishing.TagAnalysisFailed}, resp.PhishingAnalysis.Tags)
	require.NotNil(t, resp.GeneratedReply)
	assert.Equal(t, models.SourceFallback, resp.GeneratedReply.Source)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "rule_heuristic")
	risk := raw["risk"].(map[string]any)
	assert.Equal(t, []any{"financial_fraud", "urgency"}, risk["behaviour_tags"])

	_, err := mem.Get(context.Background(), resp.ID)
	assert.NoError(t, err)
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/analyze", map[string]any{"sender": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysesEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/analyze", map[string]any{"subject": "hello", "body": "meeting notes"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(r, http.MethodGet, "/analyses?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Analyses []models.AnalysisRecord `json:"analyses"`
		Count    int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Analyses, 2)

	id := list.Analyses[0].ID
	w = do(r, http.MethodGet, "/analyses/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rec models.AnalysisRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, models.PersonaGeneral, rec.Persona)
}

func TestAnalysesEndpoints_Errors(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/analyses?limit=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/analyses/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/analyses/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope", nil).Code)
}
