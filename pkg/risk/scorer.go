package risk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config describes how a Scorer generates and fits its training data.
type Config struct {
	Seed    uint64     `json:"seed" yaml:"seed"`
	Samples int        `json:"samples" yaml:"samples"`
	Fit     FitOptions `json:"fit" yaml:"fit"`
}

// DefaultConfig returns 10,000 samples seeded with DefaultSeed.
func DefaultConfig() Config {
	return Config{
		Seed:    DefaultSeed,
		Samples: DefaultSamples,
		Fit:     DefaultFitOptions(),
	}
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithConfig replaces the default generation and fit settings.
func WithConfig(cfg Config) Option {
	return func(s *Scorer) {
		s.cfg = cfg
	}
}

// WithObserver registers a callback invoked once with the report of the
// successful training run.
func WithObserver(fn func(*Report)) Option {
	return func(s *Scorer) {
		s.observer = fn
	}
}

// Scorer owns the fitted model. It starts untrained and is trained at most
// once, either explicitly or by the first Predict call. Safe for concurrent use.
type Scorer struct {
	cfg      Config
	observer func(*Report)

	mu    sync.Mutex
	model atomic.Pointer[Model]
	runs  atomic.Int64
}

// NewScorer returns an untrained scorer.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scorer settings.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Trained reports whether a model has been fitted.
func (s *Scorer) Trained() bool {
	return s.model.Load() != nil
}

// Runs returns the number of training attempts made by this scorer.
func (s *Scorer) Runs() int {
	return int(s.runs.Load())
}

// Model returns the fitted model or nil when untrained.
func (s *Scorer) Model() *Model {
	return s.model.Load()
}

// Train fits the scorer on a freshly generated dataset.
func (s *Scorer) Train() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model.Load() != nil {
		return nil, ErrAlreadyTrained
	}
	return s.fitLocked(GenerateDataset(s.cfg.Seed, s.cfg.Samples), s.cfg.Seed)
}

// Fit trains the scorer on the given dataset. A failed fit leaves the
// scorer untrained.
func (s *Scorer) Fit(ds Dataset) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model.Load() != nil {
		return nil, ErrAlreadyTrained
	}
	return s.fitLocked(ds, 0)
}

// Predict classifies the observation, training the scorer first if needed.
// Concurrent first callers wait for a single training run.
func (s *Scorer) Predict(o Observation) (Label, error) {
	m, err := s.ensure()
	if err != nil {
		return Normal, err
	}
	return m.Predict(o), nil
}

func (s *Scorer) ensure() (*Model, error) {
	if m := s.model.Load(); m != nil {
		return m, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m := s.model.Load(); m != nil {
		return m, nil
	}

	slog.Debug("training risk model on first use", "seed", s.cfg.Seed, "samples", s.cfg.Samples)
	if _, err := s.fitLocked(GenerateDataset(s.cfg.Seed, s.cfg.Samples), s.cfg.Seed); err != nil {
		return nil, err
	}
	return s.model.Load(), nil
}

func (s *Scorer) fitLocked(ds Dataset, seed uint64) (*Report, error) {
	s.runs.Add(1)

	m, rep, err := Fit(ds, s.cfg.Fit)
	if err != nil {
		var te *TrainingError
		if errors.As(err, &te) {
			slog.Error("risk model training failed", "reason", te.Reason, "rows", te.Rows)
		}
		return nil, fmt.Errorf("fitting risk model: %w", err)
	}
	rep.Seed = seed

	s.model.Store(m)

	slog.Info("risk model trained",
		"accuracy", fmt.Sprintf("%.2f", rep.Accuracy),
		"train", rep.TrainSize,
		"test", rep.TestSize,
		"duration", rep.Duration.String(),
	)

	if s.observer != nil {
		s.observer(rep)
	}
	return rep, nil
}
