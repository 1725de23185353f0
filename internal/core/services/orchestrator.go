package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// Ensure QueryOrchestrator implements the interface.
var _ driving.QueryService = (*QueryOrchestrator)(nil)

// DefaultUser is recorded for queries that do not name a user.
const DefaultUser = "user"

// QueryOrchestrator answers interactive queries and keeps standing
// queries up to date as the index changes.
type QueryOrchestrator struct {
	classifier *IntentClassifier
	embedder   driven.EmbeddingService
	retriever  *Retriever
	generator  *AnswerGenerator
	alerts     *AlertDeduplicator
	store      driven.StandingQueryStore
	metrics    *Metrics
	workers    int

	recomputeLocks *KeyedMutex
	now            func() time.Time
}

// OrchestratorOption configures a QueryOrchestrator.
type OrchestratorOption func(*QueryOrchestrator)

// WithRecomputeWorkers bounds concurrent standing query recomputations.
func WithRecomputeWorkers(n int) OrchestratorOption {
	return func(o *QueryOrchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueryMetrics records query metrics.
func WithQueryMetrics(m *Metrics) OrchestratorOption {
	return func(o *QueryOrchestrator) {
		o.metrics = m
	}
}

// NewQueryOrchestrator creates a new query orchestrator.
func NewQueryOrchestrator(
	classifier *IntentClassifier,
	embedder driven.EmbeddingService,
	retriever *Retriever,
	generator *AnswerGenerator,
	alerts *AlertDeduplicator,
	store driven.StandingQueryStore,
	opts ...OrchestratorOption,
) *QueryOrchestrator {
	o := &QueryOrchestrator{
		classifier:     classifier,
		embedder:       embedder,
		retriever:      retriever,
		generator:      generator,
		alerts:         alerts,
		store:          store,
		workers:        DefaultWorkers,
		recomputeLocks: NewKeyedMutex(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask answers a question. Alert requests are registered as standing
// queries. Provider failures yield DegradedAnswer with StateFailed.
func (o *QueryOrchestrator) Ask(ctx context.Context, req driving.QueryRequest) (*driving.QueryResponse, error) {
	return o.ask(ctx, req, false)
}

// Subscribe answers query and registers it as a standing query whatever
// its phrasing.
func (o *QueryOrchestrator) Subscribe(ctx context.Context, query, user string) (*driving.QueryResponse, error) {
	return o.ask(ctx, driving.QueryRequest{Query: query, User: user}, true)
}

// StandingQueries lists every standing query in creation order.
func (o *QueryOrchestrator) StandingQueries(ctx context.Context) ([]domain.StandingQuery, error) {
	queries, err := o.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list standing queries: %w", err)
	}
	return queries, nil
}

//nolint:gocyclo // State machine with sequential steps
func (o *QueryOrchestrator) ask(ctx context.Context, req driving.QueryRequest, forceAlert bool) (*driving.QueryResponse, error) {
	started := o.now()

	raw := strings.TrimSpace(req.Query)
	if raw == "" {
		return nil, fmt.Errorf("ask: empty query: %w", domain.ErrInvalidInput)
	}
	user := strings.TrimSpace(req.User)
	if user == "" {
		user = DefaultUser
	}

	resp := &driving.QueryResponse{Query: raw, State: domain.StateReceived}
	log := logger.With("user", user)

	// 1. CLASSIFY
	alertEnabled, cleaned, err := o.classifier.Classify(ctx, raw)
	if err != nil {
		return o.fail(resp, started, "classify", err), nil
	}
	if cleaned == "" {
		cleaned = raw
	}
	resp.Query = cleaned
	resp.AlertEnabled = alertEnabled || forceAlert
	resp.Identity = QueryIdentity(user, cleaned)
	resp.State = domain.StateClassified
	log.Debugw("query classified", "identity", resp.Identity, "alert", resp.AlertEnabled)

	// 2. EMBED
	vec, err := o.embedder.Embed(ctx, cleaned)
	if err != nil {
		return o.fail(resp, started, "embed", err), nil
	}
	resp.State = domain.StateEmbedded

	// 3. RETRIEVE
	hits, err := o.retriever.Retrieve(ctx, vec)
	if err != nil {
		return o.fail(resp, started, "retrieve", err), nil
	}
	resp.State = domain.StateRetrieved

	// 4. GENERATE
	answer, err := o.generator.Generate(ctx, hits, cleaned)
	if err != nil {
		return o.fail(resp, started, "generate", err), nil
	}
	resp.Answer = answer.Text
	resp.State = domain.StateGenerated

	// 5. EVALUATE ALERT
	if resp.AlertEnabled {
		resp.State = domain.StateSkipped
		candidate := domain.StandingQuery{
			Identity:    resp.Identity,
			User:        user,
			Query:       cleaned,
			Vector:      vec,
			Fingerprint: Fingerprint(hits),
			CreatedAt:   started,
		}
		n, err := o.alerts.Evaluate(ctx, candidate, answer.Text)
		switch {
		case err != nil:
			log.Warnw("alert evaluation failed", "identity", resp.Identity, "error", err)
			_, getErr := o.store.Get(ctx, resp.Identity)
			resp.Registered = getErr == nil
		case n != nil:
			resp.Registered = true
			resp.Answer = AnnotateNotified(resp.Answer, o.alerts.Channel())
			resp.Notified = true
			resp.State = domain.StateNotified
		default:
			resp.Registered = true
		}
		log.Debugw("alert evaluated", "identity", resp.Identity, "state", resp.State)
	}

	resp.State = domain.StateResponded
	o.metrics.observeQuery(resp.State, started)
	return resp, nil
}

func (o *QueryOrchestrator) fail(resp *driving.QueryResponse, started time.Time, stage string, err error) *driving.QueryResponse {
	logger.Warn("query %q failed at %s after state %s: %v", resp.Query, stage, resp.State, err)
	resp.Answer = DegradedAnswer
	resp.Registered = false
	resp.Notified = false
	resp.State = domain.StateFailed
	o.metrics.observeQuery(resp.State, started)
	return resp
}

// Run recomputes standing queries whenever an index event arrives, until
// ctx is cancelled or events is closed. Bursts of events are coalesced
// into one recomputation pass.
func (o *QueryOrchestrator) Run(ctx context.Context, events <-chan domain.IndexEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			changed := []string{ev.DocumentID}
		drain:
			for {
				select {
				case more, ok := <-events:
					if !ok {
						break drain
					}
					changed = append(changed, more.DocumentID)
				default:
					break drain
				}
			}

			logger.Debug("index changed (%s), recomputing standing queries", strings.Join(changed, ", "))
			if err := o.RecomputeAll(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("recompute standing queries: %v", err)
			}
		}
	}
}

// RecomputeAll re-evaluates every standing query on a bounded worker
// pool. A failing query does not affect the others.
func (o *QueryOrchestrator) RecomputeAll(ctx context.Context) error {
	queries, err := o.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list standing queries: %w", err)
	}
	o.metrics.standingQueries(len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, sq := range queries {
		g.Go(func() error {
			if _, err := o.Recompute(gctx, sq.Identity); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("recompute standing query %s: %v", sq.Identity, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Recompute refreshes one standing query. It returns the notification
// emitted, if any. Retrieval results identical to the last evaluation
// are not regenerated.
func (o *QueryOrchestrator) Recompute(ctx context.Context, identity string) (*domain.Notification, error) {
	unlock := o.recomputeLocks.Lock(identity)
	defer unlock()

	sq, err := o.store.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load standing query: %w", err)
	}

	hits, err := o.retriever.Retrieve(ctx, sq.Vector)
	if err != nil {
		o.metrics.recompute("failed")
		return nil, err
	}
	fingerprint := Fingerprint(hits)
	if fingerprint == sq.Fingerprint {
		o.metrics.recompute("unchanged")
		return nil, nil
	}

	answer, err := o.generator.Generate(ctx, hits, sq.Query)
	if err != nil {
		o.metrics.recompute("failed")
		return nil, err
	}

	n, err := o.alerts.Evaluate(ctx, domain.StandingQuery{
		Identity:    sq.Identity,
		User:        sq.User,
		Query:       sq.Query,
		Vector:      sq.Vector,
		Fingerprint: fingerprint,
		CreatedAt:   sq.CreatedAt,
	}, answer.Text)
	if err != nil {
		o.metrics.recompute("failed")
		return nil, err
	}

	o.metrics.recompute("evaluated")
	return n, nil
}
