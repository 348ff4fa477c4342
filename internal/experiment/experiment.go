package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/logging"
	"github.com/san-kum/hvasim/internal/network"
	"github.com/san-kum/hvasim/internal/storage"
)

type Config struct {
	Name        string
	Settings    *config.Settings
	Description string

	// Workers bounds how many conditions run at once. Values below one
	// run the conditions one after another.
	Workers int
}

// Progress reports on one condition. Done is set exactly once per
// condition, together with Err when it failed.
type Progress struct {
	Condition config.Condition
	Fraction  float64
	Done      bool
	Err       error
}

type Experiment struct {
	cfg      Config
	settings *config.Settings
	registry *Registry
	log      *slog.Logger
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg Config, opts ...Option) (*Experiment, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("experiment: no settings")
	}
	s := cfg.Settings.Clone()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:      cfg,
		settings: s,
		registry: NewRegistry(),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := e.registry.GetIntegrator(s.Integrator); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Settings() *config.Settings     { return e.settings }
func (e *Experiment) Conditions() []config.Condition { return e.settings.Conditions() }

// Run simulates every condition and returns the bundles in condition
// order. Condition i is seeded with Seed+i. The first failure cancels the
// conditions still running and is the error returned. progress may be nil;
// otherwise it must be drained until Run returns. Run never closes it.
func (e *Experiment) Run(ctx context.Context, progress chan<- Progress) ([]*storage.Bundle, error) {
	conds := e.Conditions()
	bundles := make([]*storage.Bundle, len(conds))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	e.log.Info("experiment started",
		"name", e.cfg.Name,
		"conditions", len(conds),
		"workers", workers,
		"integrator", e.settings.Integrator,
		"dt", e.settings.Dt)
	start := time.Now()

	for i, cond := range conds {
		wg.Add(1)
		go func(idx int, cond config.Condition) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				fail(fmt.Errorf("%s: %w", cond.Label, ctx.Err()))
				e.report(ctx, progress, Progress{Condition: cond, Done: true, Err: ctx.Err()})
				return
			}
			defer func() { <-sem }()

			b, err := e.runCondition(ctx, cond, progress)
			if err != nil {
				err = fmt.Errorf("%s: %w", cond.Label, err)
				fail(err)
			}
			bundles[idx] = b
			e.report(ctx, progress, Progress{Condition: cond, Fraction: 1, Done: true, Err: err})
		}(i, cond)
	}

	wg.Wait()

	if firstErr != nil {
		e.log.Error("experiment failed", "name", e.cfg.Name, "err", firstErr)
		return nil, firstErr
	}
	e.log.Info("experiment finished", "name", e.cfg.Name, "elapsed", time.Since(start).Round(time.Millisecond))
	return bundles, nil
}

func (e *Experiment) runCondition(ctx context.Context, cond config.Condition, progress chan<- Progress) (*storage.Bundle, error) {
	integ, err := e.registry.GetIntegrator(e.settings.Integrator)
	if err != nil {
		return nil, err
	}
	seed := e.settings.Seed + int64(cond.Index)
	log := e.log.With("condition", cond.Label)

	net, err := network.New(e.settings, cond, integ, seed,
		network.WithLogger(log),
		network.WithMetrics(e.registry.DefaultMetrics(e.settings)...))
	if err != nil {
		return nil, err
	}

	log.Debug("condition started", "seed", seed, "steps", net.Steps())
	res, err := net.Run(ctx, func(f float64) {
		e.report(ctx, progress, Progress{Condition: cond, Fraction: f})
	})
	if err != nil {
		return nil, err
	}
	log.Debug("condition finished", "metrics", len(res.Metrics))

	return &storage.Bundle{
		Condition:   cond,
		Stimulus:    cond.Rate,
		Seed:        seed,
		Settings:    e.settings,
		Description: e.cfg.Description,
		Net:         res.Recording,
		Metrics:     res.Metrics,
	}, nil
}

func (e *Experiment) report(ctx context.Context, progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	if p.Done {
		progress <- p
		return
	}
	select {
	case progress <- p:
	case <-ctx.Done():
	}
}
