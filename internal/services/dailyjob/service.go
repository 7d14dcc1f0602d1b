// Package dailyjob runs the two recurring jobs of the daemon on UTC cron
// schedules: binding today's puzzle shortly after midnight, and topping up
// the pool when it runs low. Assignment is idempotent, so running the job
// again (or racing a first visitor) is harmless.
package dailyjob

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"wordchain/internal/daily"
	"wordchain/internal/generator"
	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

type Config struct {
	AssignCron string // default "5 0 * * *"
	TopUpCron  string // default "30 2 * * *"
	LowWater   int    // default 14
	BatchSlots []puzzle.Difficulty
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.AssignCron) == "" {
		c.AssignCron = "5 0 * * *"
	}
	if strings.TrimSpace(c.TopUpCron) == "" {
		c.TopUpCron = "30 2 * * *"
	}
	if c.LowWater <= 0 {
		c.LowWater = 14
	}
	if len(c.BatchSlots) == 0 {
		c.BatchSlots = []puzzle.Difficulty{
			puzzle.DifficultyEasy, puzzle.DifficultyMedium, puzzle.DifficultyHard,
		}
	}
	return c
}

type Service struct {
	cfg   Config
	sched *daily.Scheduler
	pipe  *generator.Pipeline // nil when no producer is configured
	pool  daily.PoolStore
	log   logx.Logger

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, sched *daily.Scheduler, pipe *generator.Pipeline, pool daily.PoolStore, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg.withDefaults(), sched: sched, pipe: pipe, pool: pool, log: log}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.cfg.AssignCron, func() { s.assignToday(ctx) }); err != nil {
		return err
	}
	if s.pipe != nil {
		if _, err := c.AddFunc(s.cfg.TopUpCron, func() { s.topUp(ctx) }); err != nil {
			return err
		}
	}
	s.c = c
	c.Start()

	// Catch up immediately: the daemon may have been down over midnight.
	go s.assignToday(ctx)
	if s.pipe != nil {
		go s.topUp(ctx)
	}
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) assignToday(ctx context.Context) {
	key := daily.DateKey(time.Now())
	res, ok, err := s.sched.Assign(ctx, key)
	if err != nil {
		s.log.Error("daily assignment failed", logx.String("date", key), logx.Err(err))
		return
	}
	if !ok {
		s.log.Error("daily assignment skipped: pool is empty", logx.String("date", key))
		return
	}
	s.log.Info("daily assignment committed",
		logx.String("date", key),
		logx.Int64("puzzle_id", res.PuzzleID),
		logx.Int("day_number", res.DayNumber),
		logx.Bool("fallback", res.UsedFallback))
}

func (s *Service) topUp(ctx context.Context) {
	pool, err := s.pool.ListApprovedPuzzles(ctx)
	if err != nil {
		s.log.Error("pool check failed", logx.Err(err))
		return
	}
	if len(pool) >= s.cfg.LowWater {
		return
	}
	s.log.Info("pool below low water, generating",
		logx.Int("pool_size", len(pool)),
		logx.Int("low_water", s.cfg.LowWater))

	report, err := s.pipe.RunBatch(ctx, s.cfg.BatchSlots)
	if err != nil {
		s.log.Error("generation batch failed", logx.String("run", report.RunID), logx.Err(err))
		return
	}
	s.log.Info("generation batch finished",
		logx.String("run", report.RunID),
		logx.Int("approved", report.Approved()),
		logx.Int("slots", len(report.Slots)))
}
