// Package store keeps the history of analysis results, in PostgreSQL or, when
// no database is configured, in memory.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stoik/lure/internal/models"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("analysis not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Store persists analysis records
type Store interface {
	Save(ctx context.Context, rec models.AnalysisRecord) error
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	Get(ctx context.Context, id uuid.UUID) (models.AnalysisRecord, error)
}

// Fingerprint identifies an email by the SHA256 of its subject and body, so
// repeated submissions of the same message can be grouped.
func Fingerprint(subject, body string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(subject+body)))
}

// NewRecord builds the row stored for resp
func NewRecord(resp *models.AnalysisResponse, fingerprint string) (models.AnalysisRecord, error) {
	result, err := json.Marshal(resp)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	return models.AnalysisRecord{
		ID:             resp.ID,
		Fingerprint:    fingerprint,
		Sender:         resp.Sender,
		Subject:        resp.Subject,
		Persona:        resp.Persona.Persona,
		RiskScore:      resp.Risk.Score,
		Classification: resp.Risk.Classification,
		IsPhishing:     resp.PhishingAnalysis.IsPhishing,
		RuleIsPhishing: resp.RuleHeuristic.IsPhishing,
		Result:         result,
		CreatedAt:      resp.AnalyzedAt,
	}, nil
}

// NormalizeLimit clamps a requested page size to [1, MaxListLimit]
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
