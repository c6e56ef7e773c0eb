package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stoik/lure/internal/models"
)

// Postgres stores records in the analyses table
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an initialised pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const selectColumns = `id, fingerprint, sender, subject, persona, risk_score,
	classification, is_phishing, rule_is_phishing, result, created_at`

func (p *Postgres) Save(ctx context.Context, rec models.AnalysisRecord) error {
	query := `
		INSERT INTO analyses (id, fingerprint, sender, subject, persona, risk_score,
			classification, is_phishing, rule_is_phishing, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		rec.ID,
		rec.Fingerprint,
		rec.Sender,
		rec.Subject,
		string(rec.Persona),
		rec.RiskScore,
		string(rec.Classification),
		rec.IsPhishing,
		rec.RuleIsPhishing,
		[]byte(rec.Result),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	query := `SELECT ` + selectColumns + `
		FROM analyses ORDER BY created_at DESC LIMIT $1`

	rows, err := p.pool.Query(ctx, query, NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := []models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (models.AnalysisRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM analyses WHERE id = $1`

	rec, err := scanRecord(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AnalysisRecord{}, ErrNotFound
	}
	return rec, err
}

func scanRecord(row pgx.Row) (models.AnalysisRecord, error) {
	var (
		rec            models.AnalysisRecord
		persona        string
		classification string
		result         []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.Fingerprint,
		&rec.Sender,
		&rec.Subject,
		&persona,
		&rec.RiskScore,
		&classification,
		&rec.IsPhishing,
		&rec.RuleIsPhishing,
		&result,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan analysis: %w", err)
	}

	rec.Persona = models.Persona(persona)
	rec.Classification = models.Classification(classification)
	rec.Result = result
	return rec, nil
}
