// Package app wires configuration, storage and services into one graph
// shared by the CLI commands and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/tutorly/internal/config"
	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/report"
	"github.com/abhisek/tutorly/internal/server"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/studentlock"
	"github.com/abhisek/tutorly/internal/tutor"
)

const redisPingTimeout = 3 * time.Second

// Options overrides parts of the graph; zero values are built from Config.
type Options struct {
	// Provider replaces the provider built from cfg.LLM.
	Provider llm.Provider
	// Locker replaces the lock picked from cfg.RedisAddr.
	Locker studentlock.Locker
}

// App holds the services. Provider is nil when no LLM is configured; the
// pipeline then answers with the fallback text.
type App struct {
	Config config.Config
	Log    *logger.Logger
	Store  *store.Store

	Provider     llm.Provider
	Interactions *interactions.Store
	Feedback     *interactions.Recorder
	Tracker      *mastery.Tracker
	Gamification *gamification.Engine
	Analyzer     *diagnosis.Analyzer
	Reports      *report.Service
	Pipeline     *tutor.Pipeline

	closers []func() error
}

// Open opens the database at dbPath and builds every service.
func Open(ctx context.Context, cfg config.Config, dbPath string, log *logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Config: cfg, Log: log, Store: st}
	a.closers = append(a.closers, st.Close)

	a.Provider = opts.Provider
	if a.Provider == nil && cfg.LLMConfigured {
		p, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("llm provider: %w", err)
		}
		a.Provider = p
	}
	if a.Provider == nil {
		log.Warn("LLM provider not configured; answers will use the fallback text")
	}

	locker := opts.Locker
	if locker == nil {
		if locker, err = a.locker(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Interactions = interactions.NewStore(st.Interactions(), log)
	a.Feedback = interactions.NewRecorder(st.Interactions(), log)
	a.Tracker = mastery.NewTracker(st.Progress())
	a.Gamification = gamification.NewEngine(st.Gamification(),
		gamification.WithLocation(cfg.Location),
		gamification.WithMilestones(gamification.DefaultMilestones()),
		gamification.WithLogger(log))
	a.Analyzer = diagnosis.NewAnalyzer(a.Interactions)
	a.Reports = report.NewService(a.Interactions, a.Analyzer, a.Gamification)

	a.Pipeline = tutor.NewPipeline(tutor.Deps{
		Engine:       tutor.NewLLMEngine(a.Provider, log),
		Interactions: a.Interactions,
		Tracker:      a.Tracker,
		Gamification: a.Gamification,
		Locker:       locker,
		Log:          log,
	})
	a.Pipeline.XPPerExchange = int64(cfg.XPPerExchange)
	a.Pipeline.ConflictRetries = cfg.ConflictRetries
	return a, nil
}

// locker returns a redis lock when TUTORLY_REDIS_ADDR is set, so several
// processes sharing a database serialize on the same students.
func (a *App) locker(ctx context.Context) (studentlock.Locker, error) {
	if a.Config.RedisAddr == "" {
		return studentlock.NewLocal(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	a.closers = append(a.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", a.Config.RedisAddr, err)
	}

	lock := studentlock.NewRedis(client, studentlock.DefaultTTL)
	lock.OnRelease = func(student string, err error) {
		if err == nil {
			return
		}
		a.Log.Warn("student lock release failed", "student", student, "error", err)
	}
	a.Log.Debug("using redis student lock", "addr", a.Config.RedisAddr)
	return lock, nil
}

// Server returns the HTTP server over the app's services.
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Pipeline:     a.Pipeline,
		Interactions: a.Interactions,
		Feedback:     a.Feedback,
		Tracker:      a.Tracker,
		Gamification: a.Gamification,
		Analyzer:     a.Analyzer,
		Reports:      a.Reports,
		Health:       a.Store.Ping,
	}, a.Log)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
