// Package app wires the daemon together: config, logging, storage, the
// generation pipeline, and the daily jobs.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wordchain/internal/config"
	"wordchain/internal/daily"
	"wordchain/internal/generator"
	"wordchain/internal/notify"
	"wordchain/internal/puzzle"
	"wordchain/internal/services/dailyjob"
	"wordchain/internal/storage"
	logx "wordchain/pkg/logx"
)

type App struct {
	mgr    *config.Manager
	logSvc *logx.Service
	log    logx.Logger
	store  storage.Store
	jobs   *dailyjob.Service

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var sender logx.AlertSender
	if cfg.Telegram != nil {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		sender = tg
	}

	logSvc, log := logx.New(logxConfig(cfg.Logging), sender)
	mgr.SetLogger(log)

	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("svc", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sched := daily.NewScheduler(daily.Config{
		WindowDays:    cfg.Daily.WindowDays,
		LaunchDateKey: cfg.Daily.LaunchDate,
	}, store, store, store, log.With(logx.String("svc", "daily")))

	var pipe *generator.Pipeline
	if cfg.Generator.APIKey != "" {
		gem, err := generator.NewGemini(context.Background(), cfg.Generator.APIKey, cfg.Generator.Model)
		if err != nil {
			_ = store.Close()
			_ = logSvc.Close()
			return nil, fmt.Errorf("gemini producer: %w", err)
		}
		pipe = generator.NewPipeline(generator.Config{
			Attempts:       cfg.Generator.Attempts,
			ReuseBudget:    cfg.Generator.ReuseBudget,
			BlockEndpoints: cfg.Generator.BlockEndpoints,
			WindowDays:     cfg.Generator.WindowDays,
			RatePerMin:     cfg.Generator.RatePerMin,
		}, gem, store, log.With(logx.String("svc", "generator")))
	} else {
		log.Warn("generator.api_key not set; pool top-up disabled")
	}

	jobs := dailyjob.New(dailyjob.Config{
		AssignCron: cfg.Daily.AssignCron,
		TopUpCron:  cfg.Daily.TopUpCron,
		LowWater:   cfg.Generator.LowWater,
		BatchSlots: slots(cfg.Generator.BatchSlots),
	}, sched, pipe, store, log.With(logx.String("svc", "dailyjob")))

	return &App{
		mgr:    mgr,
		logSvc: logSvc,
		log:    log,
		store:  store,
		jobs:   jobs,
	}, nil
}

func (a *App) Log() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		_ = a.mgr.Watch(wctx)
	}()

	// Logging is the only section applied live; everything else requires a
	// restart and says so on reload.
	sub := a.mgr.Subscribe(1)
	go func() {
		defer a.watchWG.Done()
		defer a.mgr.Unsubscribe(sub)
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logSvc.Apply(logxConfig(cfg.Logging))
				a.log.Info("logging config re-applied; other sections apply on restart")
			}
		}
	}()

	if err := a.jobs.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("start jobs: %w", err)
	}
	a.log.Info("wordchaind started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	err := a.jobs.Stop(ctx)
	a.watchWG.Wait()
	if cerr := a.store.Close(); err == nil {
		err = cerr
	}
	_ = a.logSvc.Close()
	return err
}

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Alert: logx.AlertConfig{
			Enabled:    c.Alert.Enabled,
			MinLevel:   c.Alert.MinLevel,
			RatePerMin: c.Alert.RatePerMin,
		},
	}
}

func slots(raw []string) []puzzle.Difficulty {
	out := make([]puzzle.Difficulty, 0, len(raw))
	for _, s := range raw {
		out = append(out, puzzle.Difficulty(s))
	}
	return out
}
