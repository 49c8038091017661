package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	scheduleKey = "reconcile:schedule"
	batchSize   = 10
)

type PropertyReconciler interface {
	Reconcile(ctx context.Context, propertyID uuid.UUID) (*shared.ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error)
}

// ReconcileScheduler keeps due reconcile passes in a Redis sorted set scored
// by due time. Any instance may claim a due entry; the ZREM that removes it
// decides which one runs it. taskCtx is cancelled only after the pool has
// drained.
type ReconcileScheduler struct {
	redis         *redis.Client
	reconciler    PropertyReconciler
	pool          *pond.WorkerPool
	tick          time.Duration
	retryDelay    time.Duration
	sweepInterval time.Duration
	logger        zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	taskCtx       context.Context
	taskCancel    context.CancelFunc
	wg            sync.WaitGroup
}

var _ outbound.ReconcileScheduler = (*ReconcileScheduler)(nil)

// ReconcileSchedulerParams configures the scheduler. Tick is how often due
// entries are polled and defaults to one second. RetryDelay pushes a failed
// pass back by that much.
type ReconcileSchedulerParams struct {
	RedisClient   *redis.Client
	Reconciler    PropertyReconciler
	Workers       int
	QueueCapacity int
	Tick          time.Duration
	RetryDelay    time.Duration
	SweepInterval time.Duration
	Logger        zerolog.Logger
}

func NewReconcileScheduler(params ReconcileSchedulerParams) *ReconcileScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	taskCtx, taskCancel := context.WithCancel(context.Background())

	tick := params.Tick
	if tick <= 0 {
		tick = time.Second
	}

	logger := params.Logger.With().Str("component", "reconcile_scheduler").Logger()

	pool := pond.New(
		params.Workers,
		params.QueueCapacity,
		pond.Context(taskCtx),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(p interface{}) {
			logger.Error().Interface("panic", p).Msg("Reconcile task panicked")
		}),
	)

	return &ReconcileScheduler{
		redis:         params.RedisClient,
		reconciler:    params.Reconciler,
		pool:          pool,
		tick:          tick,
		retryDelay:    params.RetryDelay,
		sweepInterval: params.SweepInterval,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		taskCtx:       taskCtx,
		taskCancel:    taskCancel,
	}
}

// Schedule queues a reconcile pass for propertyID at the given time.
// An already queued property gets the new due time.
func (s *ReconcileScheduler) Schedule(ctx context.Context, propertyID uuid.UUID, at time.Time) error {
	err := s.redis.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: propertyID.String(),
	}).Err()
	if err != nil {
		s.logger.Error().Err(err).Str("property_id", propertyID.String()).Msg("Failed to schedule reconcile")
		return fmt.Errorf("failed to schedule reconcile: %w", err)
	}

	s.logger.Debug().
		Str("property_id", propertyID.String()).
		Time("due", at).
		Msg("Reconcile scheduled")

	return nil
}

// Start begins the polling loop and, when a sweep interval is set, the
// periodic full sweep
func (s *ReconcileScheduler) Start() {
	s.logger.Info().Msg("Starting reconcile scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()

	if s.sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop()
	}
}

// Stop ends both loops and waits for running passes to finish
func (s *ReconcileScheduler) Stop() {
	s.logger.Info().Msg("Stopping reconcile scheduler")
	s.cancel()
	s.wg.Wait()
	s.pool.StopAndWait()
	s.taskCancel()
}

func (s *ReconcileScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDue()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

func (s *ReconcileScheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pool.Submit(s.sweep)
		case <-s.ctx.Done():
			return
		}
	}
}

// runDue claims up to one batch of due entries and hands them to the pool
func (s *ReconcileScheduler) runDue() {
	now := time.Now().Unix()

	due, err := s.redis.ZRangeByScore(s.ctx, scheduleKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: batchSize,
	}).Result()
	if err != nil {
		if s.ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to read due reconciles")
		}
		return
	}

	for _, member := range due {
		propertyID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Error().Err(err).Str("property_id", member).Msg("Invalid property ID in schedule")
			s.redis.ZRem(s.ctx, scheduleKey, member)
			continue
		}

		claimed, err := s.redis.ZRem(s.ctx, scheduleKey, member).Result()
		if err != nil || claimed == 0 {
			continue
		}

		s.pool.Submit(func() {
			s.reconcile(propertyID)
		})
	}
}

func (s *ReconcileScheduler) reconcile(propertyID uuid.UUID) {
	result, err := s.reconciler.Reconcile(s.taskCtx, propertyID)
	if err != nil {
		s.logger.Error().Err(err).Str("property_id", propertyID.String()).Msg("Reconcile failed, rescheduling")

		_ = s.Schedule(s.taskCtx, propertyID, time.Now().Add(s.retryDelay))
		return
	}

	s.logger.Debug().
		Str("property_id", propertyID.String()).
		Bool("skipped", result.Skipped).
		Bool("repaired", result.Repaired()).
		Msg("Scheduled reconcile finished")
}

func (s *ReconcileScheduler) sweep() {
	results, err := s.reconciler.ReconcileAll(s.taskCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Reconcile sweep finished with errors")
	}

	repaired := 0
	for _, r := range results {
		if r.Repaired() {
			repaired++
		}
	}
	s.logger.Info().
		Int("checked", len(results)).
		Int("repaired", repaired).
		Msg("Reconcile sweep finished")
}
