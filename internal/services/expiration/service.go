package expirationservice

import (
	"context"
	"docauth/internal/metrics"
	"errors"
	"fmt"
	"log/slog"
	"time"

	uuid "github.com/satori/go.uuid"
)

const pkg = "expirationService/"

const (
	LockKey          = "lock:expiration-sweeper"
	defaultBatchSize = 100
	defaultInterval  = time.Minute
)

type Config struct {
	Interval  time.Duration
	BatchSize int
	LockTTL   time.Duration
}

type Result struct {
	Scanned int
	Expired int
	Failed  int
}

// Sweeper expires documents whose expiry date has passed. Every document goes
// through the coordinator, so a sweep races safely with user updates and a
// second sweep over the same documents changes nothing.
type Sweeper struct {
	log      *slog.Logger
	docs     OverdueLister
	expirer  Expirer
	locker   Locker
	metrics  *metrics.Metrics
	cfg      Config
	instance string
	now      func() time.Time
}

// New builds a sweeper. locker may be nil, in which case every replica
// sweeps on every tick.
func New(log *slog.Logger, cfg Config, docs OverdueLister, expirer Expirer, locker Locker, m *metrics.Metrics) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.LockTTL <= 0 || cfg.LockTTL > cfg.Interval {
		cfg.LockTTL = cfg.Interval / 2
	}

	return &Sweeper{
		log:      log,
		docs:     docs,
		expirer:  expirer,
		locker:   locker,
		metrics:  m,
		cfg:      cfg,
		instance: uuid.NewV4().String(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Sweep expires every document overdue at now.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	op := pkg + "Sweep"

	log := s.log.With(slog.String("op", op))

	log.Debug("attempting to sweep overdue documents", slog.Time("as_of", now))

	start := time.Now()
	defer s.metrics.ObserveSweep(start)

	var res Result
	seen := make(map[string]struct{})

	for {
		ids, err := s.docs.OverdueDocumentIDs(ctx, now, s.cfg.BatchSize)
		if err != nil {
			log.Error("failed to list overdue documents", slog.String("error", err.Error()))
			return res, fmt.Errorf("%s: %w", op, err)
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh++

			changed, err := s.expirer.ExpireDocument(ctx, id, now)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, fmt.Errorf("%s: %w", op, ctxErr)
				}
				log.Warn("failed to expire document", slog.String("doc_id", id), slog.String("error", err.Error()))
				res.Failed++
				continue
			}
			if changed {
				res.Expired++
			}
		}
		res.Scanned += fresh

		// A batch made only of documents that already failed in this sweep
		// would be returned forever.
		if len(ids) < s.cfg.BatchSize || fresh == 0 {
			break
		}
	}

	log.Debug("sweep finished successfully",
		slog.Int("scanned", res.Scanned),
		slog.Int("expired", res.Expired),
		slog.Int("failed", res.Failed))

	return res, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	op := pkg + "Run"

	log := s.log.With(slog.String("op", op))

	log.Info("expiration sweeper started", slog.Duration("interval", s.cfg.Interval))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx, log)

		select {
		case <-ctx.Done():
			log.Info("expiration sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) tick(ctx context.Context, log *slog.Logger) {
	ok, err := s.acquire(ctx)
	if err != nil {
		log.Error("failed to acquire sweeper lock", slog.String("error", err.Error()))
		return
	}
	if !ok {
		log.Debug("another instance holds the sweeper lock")
		return
	}

	if _, err := s.Sweep(ctx, s.now()); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("sweep failed", slog.String("error", err.Error()))
	}
}

func (s *Sweeper) acquire(ctx context.Context) (bool, error) {
	if s.locker == nil {
		return true, nil
	}
	return s.locker.SetNX(ctx, LockKey, s.instance, s.cfg.LockTTL).Result()
}
