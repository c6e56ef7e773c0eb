// Package queue consumes email events from Redis, analyzes each one once and
// publishes the results to a second list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stoik/lure/internal/logger"
	"github.com/stoik/lure/internal/models"
)

const (
	DefaultEmailsQueue  = "emails"
	DefaultResultsQueue = "analysis_results"

	// DefaultDedupTTL is how long a processed message id is remembered
	DefaultDedupTTL = 24 * time.Hour

	dedupPrefix = "lure:analyzed:"
)

// Analyzer is implemented by *analysis.Service
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResponse, error)
}

// Config for a Worker
type Config struct {
	EmailsQueue  string
	ResultsQueue string
	DedupTTL     time.Duration
	Concurrency  int
	// PopTimeout bounds each BRPOP so shutdown is noticed
	PopTimeout    time.Duration
	GenerateReply bool
}

func (c *Config) setDefaults() {
	if c.EmailsQueue == "" {
		c.EmailsQueue = DefaultEmailsQueue
	}
	if c.ResultsQueue == "" {
		c.ResultsQueue = DefaultResultsQueue
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = DefaultDedupTTL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.PopTimeout <= 0 {
		c.PopTimeout = 5 * time.Second
	}
}

// Result is what gets pushed to the results queue
type Result struct {
	MessageID string                   `json:"message_id"`
	Analysis  *models.AnalysisResponse `json:"analysis"`
}

// Worker pulls events with BRPOP from Config.EmailsQueue
type Worker struct {
	rdb      *redis.Client
	analyzer Analyzer
	cfg      Config
	log      *logger.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewWorker creates a worker
func NewWorker(rdb *redis.Client, analyzer Analyzer, cfg Config, log *logger.Logger) *Worker {
	cfg.setDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{
		rdb:      rdb,
		analyzer: analyzer,
		cfg:      cfg,
		log:      log.WithComponent("queue-worker"),
	}
}

// Run starts Config.Concurrency consumers and blocks until ctx is cancelled
// and every in-flight event has been handled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Str("queue", w.cfg.EmailsQueue).
		Str("results", w.cfg.ResultsQueue).
		Int("concurrency", w.cfg.Concurrency).
		Msg("queue worker started")

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Wait()

	w.log.Info().
		Int64("processed", w.processed.Load()).
		Int64("duplicates", w.duplicates.Load()).
		Int64("failed", w.failed.Load()).
		Msg("queue worker stopped")
	return nil
}

func (w *Worker) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := w.pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("failed to pop from queue")
			sleep(ctx, time.Second)
			continue
		}
		if payload == "" {
			continue
		}

		if err := w.Process(ctx, payload); err != nil {
			w.failed.Add(1)
			w.log.Error().Err(err).Msg("failed to process event")
		}
	}
}

// pop returns "" when the timeout elapsed with nothing queued
func (w *Worker) pop(ctx context.Context) (string, error) {
	res, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, w.cfg.EmailsQueue).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis BRPOP: %w", err)
	}
	// res is [key, value]
	if len(res) != 2 {
		return "", fmt.Errorf("redis BRPOP: unexpected reply of length %d", len(res))
	}
	return res[1], nil
}

// Process handles one queued event: decode, dedup, analyze, publish. Events
// already seen within the dedup TTL are skipped without error.
func (w *Worker) Process(ctx context.Context, payload string) error {
	var event models.EmailEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return fmt.Errorf("decode email event: %w", err)
	}
	if event.MessageID == "" {
		return fmt.Errorf("email event has no message_id")
	}

	isNew, err := w.rdb.SetNX(ctx, dedupPrefix+event.MessageID, 1, w.cfg.DedupTTL).Result()
	if err != nil {
		return fmt.Errorf("dedup SETNX: %w", err)
	}
	if !isNew {
		w.duplicates.Add(1)
		w.log.Debug().Str("message_id", event.MessageID).Msg("duplicate event skipped")
		return nil
	}

	resp, err := w.analyzer.Analyze(ctx, models.AnalyzeRequest{
		EmailInput:    event.ToInput(),
		GenerateReply: w.cfg.GenerateReply,
	})
	if err != nil {
		w.release(ctx, event.MessageID)
		return fmt.Errorf("analyze %s: %w", event.MessageID, err)
	}

	out, err := json.Marshal(Result{MessageID: event.MessageID, Analysis: resp})
	if err != nil {
		w.release(ctx, event.MessageID)
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := w.rdb.LPush(ctx, w.cfg.ResultsQueue, out).Err(); err != nil {
		w.release(ctx, event.MessageID)
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	w.processed.Add(1)
	w.log.Info().
		Str("message_id", event.MessageID).
		Str("analysis_id", resp.ID.String()).
		Str("classification", string(resp.Risk.Classification)).
		Msg("event analyzed")
	return nil
}

// release forgets a message id so a later redelivery is processed again. It
// runs even when ctx is already cancelled.
func (w *Worker) release(ctx context.Context, messageID string) {
	if err := w.rdb.Del(context.WithoutCancel(ctx), dedupPrefix+messageID).Err(); err != nil {
		w.log.Error().Err(err).Str("message_id", messageID).Msg("failed to release dedup key")
	}
}

// Stats returns processed, duplicate and failed counts
func (w *Worker) Stats() (processed, duplicates, failed int64) {
	return w.processed.Load(), w.duplicates.Load(), w.failed.Load()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
