package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

// PoolWriter is the slice of the store the pipeline needs: appending
// approved puzzles and scanning the recent window.
type PoolWriter interface {
	InsertPuzzle(ctx context.Context, p puzzle.Puzzle) (int64, error)
	ListPuzzlesCreatedSince(ctx context.Context, since time.Time) ([]puzzle.Puzzle, error)
}

// Config tunes the pipeline.
//
// Zero values fall back to: 5 attempts, reuse budget 2, 30-day window,
// 6 producer calls per minute.
type Config struct {
	Attempts       int
	ReuseBudget    int
	BlockEndpoints bool
	WindowDays     int
	RatePerMin     int
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = 5
	}
	if c.ReuseBudget < 0 {
		c.ReuseBudget = 0
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 30
	}
	if c.RatePerMin <= 0 {
		c.RatePerMin = 6
	}
	return c
}

// SlotResult records the outcome of one difficulty slot in a batch.
type SlotResult struct {
	Difficulty puzzle.Difficulty
	PuzzleID   int64
	Err        error // nil on success
}

// BatchReport summarizes one generation run.
type BatchReport struct {
	RunID string
	Slots []SlotResult
}

func (r BatchReport) Approved() int {
	n := 0
	for _, s := range r.Slots {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Pipeline drives a Producer through validation with escalating constraints.
type Pipeline struct {
	cfg      Config
	producer Producer
	store    PoolWriter
	log      logx.Logger
	limiter  *rate.Limiter

	now func() time.Time // test hook
}

func NewPipeline(cfg Config, producer Producer, store PoolWriter, log logx.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pipeline{
		cfg:      cfg,
		producer: producer,
		store:    store,
		log:      log,
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), 1),
		now:      time.Now,
	}
}

// RunBatch fills one slot per requested difficulty. Each approval extends the
// same-session banned set so a single run never approves colliding puzzles.
// A slot that exhausts its budget is logged and skipped; the batch continues.
func (p *Pipeline) RunBatch(ctx context.Context, slots []puzzle.Difficulty) (BatchReport, error) {
	report := BatchReport{RunID: uuid.NewString()[:8]}
	log := p.log.With(logx.String("run", report.RunID))

	banned, err := p.windowBanned(ctx)
	if err != nil {
		return report, err
	}
	log.Info("generation batch started",
		logx.Int("slots", len(slots)),
		logx.Int("banned_links", len(banned.Links)))

	for _, diff := range slots {
		cand, err := p.FillSlot(ctx, diff, banned)
		if err != nil {
			log.Warn("slot failed", logx.String("difficulty", string(diff)), logx.Err(err))
			report.Slots = append(report.Slots, SlotResult{Difficulty: diff, Err: err})
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			continue
		}

		id, err := p.store.InsertPuzzle(ctx, puzzle.Puzzle{
			Difficulty: cand.Difficulty,
			Chain:      cand.Chain,
			Dummy:      cand.Dummy,
			Links:      cand.Links,
			CreatedAt:  p.now(),
		})
		if err != nil {
			return report, fmt.Errorf("insert approved puzzle: %w", err)
		}
		report.Slots = append(report.Slots, SlotResult{Difficulty: diff, PuzzleID: id})
		log.Info("slot approved",
			logx.String("difficulty", string(diff)),
			logx.Int64("puzzle_id", id))

		// Same-session exclusions: the next slot must not collide with what
		// this one just approved.
		banned.AddPuzzle(puzzle.Puzzle{Chain: cand.Chain, Links: cand.Links}, puzzle.SoftAvoidWordCap)
	}
	return report, nil
}

// FillSlot runs the bounded retry loop for one difficulty. The banned set is
// cloned; escalation additions stay local to this slot.
func (p *Pipeline) FillSlot(ctx context.Context, difficulty puzzle.Difficulty, banned puzzle.BannedSet) (puzzle.Candidate, error) {
	banned = banned.Clone()
	lim := puzzle.Limits{ReuseBudget: p.cfg.ReuseBudget, BlockEndpoints: p.cfg.BlockEndpoints}

	var lastIssues []puzzle.Issue
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return puzzle.Candidate{}, err
		}

		cand, err := p.producer.Produce(ctx, difficulty, banned)
		if err != nil {
			// Producer failures burn an attempt but are retried under the
			// same constraints.
			p.log.Warn("producer failed",
				logx.String("difficulty", string(difficulty)),
				logx.Int("attempt", attempt),
				logx.Err(err))
			if ctx.Err() != nil {
				return puzzle.Candidate{}, ctx.Err()
			}
			continue
		}

		issues := puzzle.Validate(cand, difficulty, banned, lim)
		blocking := puzzle.Blocking(issues)
		if len(blocking) == 0 {
			for _, is := range issues {
				p.log.Debug("accepted with warning",
					logx.String("difficulty", string(difficulty)),
					logx.String("issue", is.String()))
			}
			return cand, nil
		}

		lastIssues = blocking
		escalated := 0
		for _, is := range blocking {
			// Collisions cite the value that clashed; hard-block it on the
			// next attempt so the producer is steered away explicitly.
			switch is.Rule {
			case puzzle.RuleBannedLink:
				banned.AddLink(is.Value)
				escalated++
			case puzzle.RuleBannedEndpoint:
				banned.AddEndpoint(is.Value)
				escalated++
			}
		}
		p.log.Debug("candidate rejected",
			logx.String("difficulty", string(difficulty)),
			logx.Int("attempt", attempt),
			logx.Int("issues", len(blocking)),
			logx.Int("escalated", escalated))
	}

	return puzzle.Candidate{}, fmt.Errorf("%s after %d attempts (last: %v): %w",
		difficulty, p.cfg.Attempts, summarize(lastIssues), ErrBudgetExhausted)
}

func (p *Pipeline) windowBanned(ctx context.Context) (puzzle.BannedSet, error) {
	since := p.now().AddDate(0, 0, -p.cfg.WindowDays)
	recent, err := p.store.ListPuzzlesCreatedSince(ctx, since)
	if err != nil {
		return puzzle.BannedSet{}, fmt.Errorf("recent pool scan: %w", err)
	}
	return puzzle.CollectBanned(recent, puzzle.SoftAvoidWordCap), nil
}

func summarize(issues []puzzle.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.String())
	}
	return out
}
