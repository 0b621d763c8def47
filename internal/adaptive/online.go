package adaptive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/cli-senpei/Lerni-sub000/internal/nn"
)

const (
	// DefaultOnlineFocusThreshold is the error score a category must
	// exceed to become the online-model focus.
	DefaultOnlineFocusThreshold = 1.2

	// DefaultEpochs is the number of SGD steps per recorded sample.
	DefaultEpochs = 6

	onlineInputs = 3
)

// Regressor is the numeric backend of the online estimator. Outputs are
// in normalized difficulty units (difficulty / MaxDifficulty).
type Regressor interface {
	Fit(x []float64, target float64, epochs int) (float64, error)
	Predict(x []float64) (float64, error)
	Architecture() nn.Architecture
	Weights() [][]float64
}

// Backend builds regressors for the online estimator.
type Backend interface {
	// New returns a fresh, untrained regressor.
	New() (Regressor, error)

	// Load rebuilds a regressor from a persisted architecture and weights.
	Load(arch nn.Architecture, weights [][]float64) (Regressor, error)
}

// MLPBackend builds nn.MLP regressors. A fresh model predicts
// DefaultDifficulty for every input.
type MLPBackend struct {
	Hidden       int
	LearningRate float64
	Seed         uint64
}

func (b MLPBackend) architecture() nn.Architecture {
	return nn.Architecture{
		Inputs:       onlineInputs,
		Hidden:       b.Hidden,
		Activation:   nn.ActivationReLU,
		LearningRate: b.LearningRate,
	}
}

func (b MLPBackend) New() (Regressor, error) {
	rng := rand.New(rand.NewPCG(b.Seed, b.Seed^0x9e3779b97f4a7c15))
	return nn.New(b.architecture(), rng, DefaultDifficulty/MaxDifficulty)
}

func (b MLPBackend) Load(arch nn.Architecture, weights [][]float64) (Regressor, error) {
	if arch.Inputs != onlineInputs {
		return nil, fmt.Errorf("%w: model has %d inputs, want %d", nn.ErrShape, arch.Inputs, onlineInputs)
	}
	return nn.FromWeights(arch, weights)
}

// OnlineEstimator retrains a small regressor on every sample and predicts
// the next difficulty from it. While the regressor is unusable it falls
// back to fixed +1/-1 steps.
type OnlineEstimator struct {
	mu        sync.Mutex
	backend   Backend
	threshold float64
	epochs    int
	logger    *slog.Logger

	model      Regressor
	errors     ErrorMemory
	avgRT      float64
	difficulty float64
	trend      int
	degraded   bool
}

var _ Estimator = (*OnlineEstimator)(nil)

// NewOnlineEstimator returns a fresh online estimator using backend.
func NewOnlineEstimator(backend Backend, threshold float64, epochs int, logger *slog.Logger) *OnlineEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	e := &OnlineEstimator{
		backend:   backend,
		threshold: threshold,
		epochs:    epochs,
		logger:    logger,
	}
	e.resetLocked()
	return e
}

func (e *OnlineEstimator) Variant() string { return VariantOnline }

// trainingTarget is the difficulty the learner should move to after s,
// starting from the level from.
func trainingTarget(from float64, s Sample) float64 {
	switch {
	case s.Correct && s.ReactionMs < FastReactionMs:
		return math.Min(from+0.4, MaxDifficulty)
	case s.Correct:
		return from
	default:
		return math.Max(from-0.6, MinDifficulty)
	}
}

// trendOf is the direction s pushes the difficulty in, even when the
// target is already capped or floored.
func trendOf(s Sample) int {
	switch {
	case s.Correct && s.ReactionMs < FastReactionMs:
		return 1
	case !s.Correct:
		return -1
	}
	return 0
}

// fallbackStep is the fixed adjustment used while the model is unusable.
func fallbackStep(s Sample) float64 {
	d := float64(s.Difficulty)
	switch {
	case s.Correct && s.ReactionMs < FastReactionMs:
		d++
	case !s.Correct:
		d--
	}
	return clampDifficulty(d)
}

func (e *OnlineEstimator) Record(s Sample) {
	s = s.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors.Observe(s.Category, s.Correct)
	e.avgRT = ema(e.avgRT, s.ReactionMs)

	// A question posed at the recommended level continues from the
	// unrounded scalar, so repeated small steps are not lost to rounding.
	from := float64(s.Difficulty)
	if s.Difficulty == roundDifficulty(e.difficulty) {
		from = e.difficulty
	}
	x := []float64{
		boolToFloat(s.Correct),
		speedFeature(s.ReactionMs),
		from / MaxDifficulty,
	}
	target := trainingTarget(from, s)

	if err := e.fitLocked(x, target); err != nil {
		e.degraded = true
		e.trend = 0
		e.difficulty = fallbackStep(s)
		e.logger.Warn("online: training failed, using fixed-step fallback",
			slog.String("category", s.Category),
			slog.Float64("difficulty", e.difficulty),
			slog.Any("error", err),
		)
		return
	}
	e.degraded = false
	e.difficulty = target
	e.trend = trendOf(s)
}

func (e *OnlineEstimator) fitLocked(x []float64, target float64) error {
	if e.model == nil {
		m, err := e.backend.New()
		if err != nil {
			return fmt.Errorf("create model: %w", err)
		}
		e.model = m
	}
	loss, err := e.model.Fit(x, target/MaxDifficulty, e.epochs)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	e.logger.Debug("online: fitted sample", slog.Float64("loss", loss), slog.Float64("target", target))
	return nil
}

func (e *OnlineEstimator) Recommend(q Query) Prediction {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := Prediction{
		Difficulty: roundDifficulty(e.difficulty),
		Focus:      e.errors.Focus(e.threshold),
	}
	if e.degraded || e.model == nil {
		return p
	}

	y, err := e.model.Predict([]float64{
		boolToFloat(q.RecentCorrect),
		speedFeature(q.ReactionMs),
		e.difficulty / MaxDifficulty,
	})
	if err != nil {
		e.logger.Warn("online: inference failed, using last difficulty", slog.Any("error", err))
		return p
	}
	// The model lags its targets; it may overshoot in the direction of
	// the last answer but never pull back against it.
	d := y * MaxDifficulty
	switch {
	case e.trend > 0:
		d = math.Max(d, e.difficulty)
	case e.trend < 0:
		d = math.Min(d, e.difficulty)
	}
	p.Difficulty = roundDifficulty(d)
	return p
}

func (e *OnlineEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *OnlineEstimator) resetLocked() {
	e.errors = newErrorMemory(nil)
	e.avgRT = DefaultReactionMs
	e.difficulty = DefaultDifficulty
	e.trend = 0
	e.degraded = false

	m, err := e.backend.New()
	if err != nil {
		e.logger.Warn("online: cannot create model, starting degraded", slog.Any("error", err))
		e.model = nil
		e.degraded = true
		return
	}
	e.model = m
}

func (e *OnlineEstimator) MarshalState() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := Document{
		Version:             DocumentVersion,
		Variant:             VariantOnline,
		CategoryErrors:      e.errors.Entries(),
		AverageReactionTime: e.avgRT,
		CurrentDifficulty:   e.difficulty,
		Trend:               e.trend,
	}
	if e.model != nil {
		doc.Model = &ModelDocument{
			Architecture: e.model.Architecture(),
			Weights:      e.model.Weights(),
		}
	}
	return json.Marshal(doc)
}

func (e *OnlineEstimator) UnmarshalState(raw []byte) error {
	doc, err := DecodeDocument(raw, VariantOnline)
	if err != nil {
		return err
	}

	var model Regressor
	if doc.Model != nil {
		model, err = e.backend.Load(doc.Model.Architecture, doc.Model.Weights)
		if err != nil {
			return fmt.Errorf("restore model: %w", err)
		}
	} else {
		model, err = e.backend.New()
		if err != nil {
			return fmt.Errorf("create model: %w", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = model
	e.errors = newErrorMemory(doc.CategoryErrors)
	e.avgRT = doc.AverageReactionTime
	e.difficulty = clampDifficulty(doc.CurrentDifficulty)
	e.trend = doc.Trend
	e.degraded = false
	return nil
}

func (e *OnlineEstimator) State() StateView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StateView{
		Variant:           VariantOnline,
		Difficulty:        e.difficulty,
		AverageReactionMs: e.avgRT,
		CategoryErrors:    e.errors.Entries(),
		Degraded:          e.degraded,
	}
}
