package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultReconcileInterval = 30 * time.Second
	defaultReconcileAge      = 2 * time.Minute
	defaultReconcileLimit    = 100
)

// Reconciler re-publishes pending intents whose queue message was lost, so
// the at-least-once contract holds even across broker or publish failures.
// It adds no retry policy of its own; a re-published intent goes through the
// normal dispatch path.
type Reconciler struct {
	intents   repository.IntentRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	age       time.Duration
	limit     int
	now       func() time.Time
}

func NewReconciler(
	intents repository.IntentRepository,
	publisher queue.Publisher,
	interval time.Duration,
	age time.Duration,
	limit int,
	logger *zap.Logger,
) (*Reconciler, error) {
	if intents == nil {
		return nil, fmt.Errorf("intent repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	if age <= 0 {
		age = defaultReconcileAge
	}
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		intents:   intents,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		age:       age,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (r *Reconciler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.scan(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("reconciler scan failed", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) scan(ctx context.Context) error {
	cutoff := r.now().UTC().Add(-r.age)
	stale, err := r.intents.GetStalePending(ctx, cutoff, r.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale pending intents: %w", err)
	}

	for i := range stale {
		intent := stale[i]
		msg := queue.IntentMessage{
			IntentID:      intent.ID,
			CorrelationID: intent.CorrelationID,
		}

		if err := r.publisher.Publish(ctx, queue.IntentQueue, msg); err != nil {
			r.logger.Error("failed to re-publish stale intent",
				zap.String("intentId", intent.ID),
				zap.Error(err),
			)
			continue
		}

		if err := r.intents.TouchEnqueued(ctx, intent.ID, r.now().UTC()); err != nil {
			r.logger.Error("failed to stamp re-published intent",
				zap.String("intentId", intent.ID),
				zap.Error(err),
			)
			continue
		}

		r.logger.Info("re-published stale intent", zap.String("intentId", intent.ID))
	}

	return nil
}
