package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

var Pool *pgxpool.Pool

// Configured reports whether a database URL is set. The analyzer runs without
// a database and keeps history in memory in that case.
func Configured() bool {
	return viper.GetString("database.url") != ""
}

func Init(ctx context.Context) error {
	connString := viper.GetString("database.url")
	if connString == "" {
		return fmt.Errorf("database.url not configured")
	}

	var err error
	Pool, err = pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := Pool.Ping(ctx); err != nil {
		Pool.Close()
		Pool = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Migrate creates the analyses table and its indexes
func Migrate(ctx context.Context) error {
	if Pool == nil {
		return fmt.Errorf("database not initialized")
	}

	migrationSQL := `
		-- One row per analysis pass; result holds the full JSON response
		CREATE TABLE IF NOT EXISTS analyses (
		    id UUID PRIMARY KEY,
		    fingerprint VARCHAR(64) NOT NULL,
		    sender VARCHAR(320) NOT NULL DEFAULT '',
		    subject TEXT NOT NULL DEFAULT '',
		    persona VARCHAR(16) NOT NULL,
		    risk_score SMALLINT NOT NULL,
		    classification VARCHAR(16) NOT NULL,
		    is_phishing BOOLEAN NOT NULL,
		    rule_is_phishing BOOLEAN NOT NULL,
		    result JSONB NOT NULL,
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_analyses_fingerprint ON analyses(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_analyses_classification ON analyses(classification);
	`

	if _, err := Pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}
