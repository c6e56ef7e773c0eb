// Package analysis runs one complete analysis pass over an email: the
// deterministic signals, the model verdict and the optional persona reply.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stoik/lure/internal/logger"
	"github.com/stoik/lure/internal/models"
	"github.com/stoik/lure/internal/persona"
	"github.com/stoik/lure/internal/risk"
	"github.com/stoik/lure/internal/signals"
	"github.com/stoik/lure/services/analyzer/internal/store"
)

// ErrInvalidInput wraps every validation failure
var ErrInvalidInput = errors.New("invalid input")

// MaxBodyBytes bounds subject+body+html size
const MaxBodyBytes = 1 << 20

// PhishingAnalyzer is implemented by *phishing.Analyzer
type PhishingAnalyzer interface {
	AnalyzePhishing(ctx context.Context, in models.EmailInput) models.PhishingVerdict
	GenerateReply(ctx context.Context, in models.EmailInput, p models.Persona, mode models.ReplyMode) models.ReplyDraft
}

// Service validates, analyzes and records emails
type Service struct {
	analyzer PhishingAnalyzer
	store    store.Store
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates the analysis service. st may be nil, in which case
// results are not recorded.
func NewService(analyzer PhishingAnalyzer, st store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		analyzer: analyzer,
		store:    st,
		log:      log.WithComponent("analysis"),
		now:      time.Now,
	}
}

// Validate checks the request shape. Missing optional fields are fine.
func Validate(req models.AnalyzeRequest) error {
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Body) == "" && strings.TrimSpace(req.BodyHTML) == "" {
		return fmt.Errorf("%w: subject and body are both empty", ErrInvalidInput)
	}
	if len(req.Subject)+len(req.Body)+len(req.BodyHTML) > MaxBodyBytes {
		return fmt.Errorf("%w: message larger than %d bytes", ErrInvalidInput, MaxBodyBytes)
	}
	switch req.ReplyMode {
	case "", models.ReplyStructured, models.ReplyFreeform:
	default:
		return fmt.Errorf("%w: unknown reply_mode %q", ErrInvalidInput, req.ReplyMode)
	}
	return nil
}

// Analyze runs the deterministic pass and the model verdict concurrently, then
// records the result. A store failure is logged and does not fail the call.
func (s *Service) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	in := req.EmailInput

	resp := &models.AnalysisResponse{
		ID:         uuid.New(),
		Subject:    in.Subject,
		Sender:     in.Sender,
		Persona:    persona.Classify(in.Subject, in.Body, in.KeywordHints),
		AnalyzedAt: s.now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assessment := risk.Assess(in)
		resp.Risk = assessment
		resp.RuleHeuristic = risk.RuleVerdict(
			len(assessment.KeywordHits),
			len(assessment.URLFindings) > 0,
			len(in.Attachments) > 0,
			assessment.BehaviorTags,
		)
		resp.SpoofFlags = signals.SpoofFlags(in.Sender, in.DisplayName)
		resp.SuggestedActions = risk.SuggestedActions(assessment.BehaviorTags, in.Attachments)
		return nil
	})

	g.Go(func() error {
		resp.PhishingAnalysis = s.analyzer.AnalyzePhishing(gctx, in)
		return nil
	})

	if req.GenerateReply {
		mode := req.ReplyMode
		if mode == "" {
			mode = models.ReplyStructured
		}
		g.Go(func() error {
			draft := s.analyzer.GenerateReply(gctx, in, resp.Persona.Persona, mode)
			resp.GeneratedReply = &draft
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	s.log.Info().
		Str("analysis_id", resp.ID.String()).
		Int("risk_score", resp.Risk.Score).
		Str("classification", string(resp.Risk.Classification)).
		Str("persona", string(resp.Persona.Persona)).
		Bool("rule_is_phishing", resp.RuleHeuristic.IsPhishing).
		Str("verdict_source", resp.PhishingAnalysis.Source).
		Msg("analysis complete")

	s.record(ctx, resp, in)
	return resp, nil
}

func (s *Service) record(ctx context.Context, resp *models.AnalysisResponse, in models.EmailInput) {
	if s.store == nil {
		return
	}

	rec, err := store.NewRecord(resp, store.Fingerprint(in.Subject, in.Body))
	if err == nil {
		err = s.store.Save(ctx, rec)
	}
	if err != nil {
		s.log.Error().Err(err).Str("analysis_id", resp.ID.String()).Msg("failed to record analysis")
	}
}

// History returns the most recent records, newest first
func (s *Service) History(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if s.store == nil {
		return []models.AnalysisRecord{}, nil
	}
	return s.store.List(ctx, limit)
}

// Lookup returns one record by id
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (models.AnalysisRecord, error) {
	if s.store == nil {
		return models.AnalysisRecord{}, store.ErrNotFound
	}
	return s.store.Get(ctx, id)
}
