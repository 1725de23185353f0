package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// diffMaxTokens bounds the semantic comparison reply.
const diffMaxTokens = 10

// AlertOptions configures an AlertDeduplicator.
type AlertOptions struct {
	// AlwaysNotify skips the semantic comparison and notifies on every
	// textual change.
	AlwaysNotify bool

	// Rate is the maximum notifications per second. Zero means unlimited.
	Rate float64

	// Retry governs delivery attempts.
	Retry RetryPolicy
}

// AlertDeduplicator decides whether a recomputed answer warrants a
// notification and delivers the ones that do.
type AlertDeduplicator struct {
	store    driven.StandingQueryStore
	llm      driven.LLMService
	notifier driven.Notifier
	opts     AlertOptions
	limiter  *rate.Limiter
	locks    *KeyedMutex
	metrics  *Metrics
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewAlertDeduplicator creates a deduplicator. metrics may be nil.
func NewAlertDeduplicator(
	store driven.StandingQueryStore,
	llm driven.LLMService,
	notifier driven.Notifier,
	opts AlertOptions,
	metrics *Metrics,
) *AlertDeduplicator {
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &AlertDeduplicator{
		store:    store,
		llm:      llm,
		notifier: notifier,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		locks:    NewKeyedMutex(),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Channel returns the notification destination, or "" without a notifier.
func (d *AlertDeduplicator) Channel() string {
	if d.notifier == nil {
		return ""
	}
	return d.notifier.Channel()
}

// Evaluate compares newAnswer with the answer last recorded for the
// candidate's identity and updates the stored standing query.
//
// The first answer for an identity is recorded silently. An identical
// answer is ignored. A changed answer is recorded, and a notification is
// returned and dispatched when the change is material. If the semantic
// comparison fails nothing is recorded and the error is returned.
func (d *AlertDeduplicator) Evaluate(ctx context.Context, candidate domain.StandingQuery, newAnswer string) (*domain.Notification, error) {
	if candidate.Identity == "" {
		return nil, fmt.Errorf("evaluate: empty identity: %w", domain.ErrInvalidInput)
	}

	unlock := d.locks.Lock(candidate.Identity)
	defer unlock()

	now := d.now()

	stored, err := d.store.Get(ctx, candidate.Identity)
	if errors.Is(err, domain.ErrNotFound) {
		sq := candidate
		sq.LastAnswer = newAnswer
		if sq.CreatedAt.IsZero() {
			sq.CreatedAt = now
		}
		sq.UpdatedAt = now
		if err := d.store.Save(ctx, &sq); err != nil {
			return nil, fmt.Errorf("save standing query: %w", err)
		}
		d.metrics.notification("registered")
		d.refreshGauge(ctx)
		logger.Debug("registered standing query %s for %s", sq.Identity, sq.User)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load standing query: %w", err)
	}

	different := false
	if newAnswer != stored.LastAnswer {
		different = d.opts.AlwaysNotify
		if !different {
			different, err = d.differs(ctx, stored.LastAnswer, newAnswer)
			if err != nil {
				d.metrics.notification("diff_failed")
				return nil, err
			}
		}
		stored.LastAnswer = newAnswer
	}

	if candidate.Fingerprint != "" {
		stored.Fingerprint = candidate.Fingerprint
	}
	if len(candidate.Vector) > 0 {
		stored.Vector = candidate.Vector
	}
	stored.UpdatedAt = now
	if err := d.store.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("save standing query: %w", err)
	}

	if !different {
		d.metrics.notification("suppressed")
		return nil, nil
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		Identity:  stored.Identity,
		User:      stored.User,
		Query:     stored.Query,
		Message:   NotificationMessage(stored.Query, newAnswer),
		CreatedAt: now,
	}
	d.dispatch(n)
	return &n, nil
}

// Wait blocks until every dispatched notification has been delivered or
// has failed.
func (d *AlertDeduplicator) Wait() {
	d.wg.Wait()
}

func (d *AlertDeduplicator) differs(ctx context.Context, oldAnswer, newAnswer string) (bool, error) {
	reply, err := d.llm.Generate(ctx, BuildDiffPrompt(oldAnswer, newAnswer), driven.GenerateOptions{
		MaxTokens:   diffMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return false, fmt.Errorf("compare answers: %w", err)
	}
	return IsDifferent(reply), nil
}

// dispatch delivers n in the background. Delivery outlives the request
// that triggered it.
func (d *AlertDeduplicator) dispatch(n domain.Notification) {
	if d.notifier == nil {
		logger.Warn("no notifier configured, dropping notification for %s", n.Identity)
		d.metrics.notification("dropped")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx := context.Background()
		if err := d.limiter.Wait(ctx); err != nil {
			logger.Warn("notification rate limiter: %v", err)
		}

		err := d.opts.Retry.Do(ctx, "notify", func(ctx context.Context) error {
			return d.notifier.Notify(ctx, n)
		})
		if err != nil {
			d.metrics.notification("failed")
			logger.Error("deliver notification %s to %s: %v", n.ID, d.notifier.Channel(), err)
			return
		}

		d.metrics.notification("sent")
		logger.Info("notification %s sent to %s for query %q", n.ID, d.notifier.Channel(), n.Query)
	}()
}

func (d *AlertDeduplicator) refreshGauge(ctx context.Context) {
	if d.metrics == nil {
		return
	}
	all, err := d.store.List(ctx)
	if err != nil {
		return
	}
	d.metrics.standingQueries(len(all))
}
