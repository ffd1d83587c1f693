// Package api provides the gRPC evaluation service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ggerhardt/ajre-rules-engine/internal/core/config"
	"github.com/ggerhardt/ajre-rules-engine/internal/log"
	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
	"github.com/ggerhardt/ajre-rules-engine/internal/ruleset"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// Recorder stores evaluation summaries. Implemented by *db.Recorder.
type Recorder interface {
	Record(ctx context.Context, id types.EvaluationID, ruleCount int, results []rules.RuleResult, duration time.Duration) error
}

// Service implements RulesEngineServer.
// Thin orchestration layer delegating to ruleset, rules and the history store.
type Service struct {
	loader   *ruleset.Loader
	recorder Recorder
	engine   config.EngineConfig
	server   config.ServerConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the service. A nil recorder disables history.
func NewService(cfg *config.Config, loader *ruleset.Loader, recorder Recorder, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		loader:   loader,
		recorder: recorder,
		engine:   cfg.Engine,
		server:   cfg.Server,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Evaluate runs one rule batch against a document.
// The request timeout bounds context generation; rules cut short by it are
// reported with the context_limit keyword rather than failing the call.
func (s *Service) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if size := proto.Size(req); size > s.server.MaxDocumentBytes {
		return nil, toStatus(fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrRequestTooLarge, size, s.server.MaxDocumentBytes))
	}

	in, err := s.parseRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}

	id := types.NewEvaluationID()
	ctx, logger := log.WithEvaluation(log.NewContext(ctx, log.FromContextOr(ctx, s.logger)), string(id))

	if s.server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.server.RequestTimeout)
		defer cancel()
	}

	start := s.now()
	results := rules.NewEngine(logger).Evaluate(ctx, in.Document, in.Rules, in.Context, in.Options)
	duration := s.now().Sub(start)

	logger.Info("evaluation complete",
		slog.Int("rules", len(in.Rules)),
		slog.Int("reported", len(results)),
		slog.Duration("duration", duration),
	)

	if s.recorder != nil {
		// Best effort; recorded even when the request deadline has passed.
		if err := s.recorder.Record(context.WithoutCancel(ctx), id, len(in.Rules), results, duration); err != nil {
			logger.Warn("failed to record evaluation", slog.Any("err", err))
		}
	}

	resp, err := encodeResults(id, results)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}
