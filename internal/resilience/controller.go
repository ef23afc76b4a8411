// Package resilience bounds every layer call and keeps per-layer circuit
// breaker state so a repeatedly failing analyzer is skipped for a
// cool-down window instead of being hammered on every session.
package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fairlens/fairlens/internal/analyzer"
	"github.com/fairlens/fairlens/internal/core/domain"
)

// Config controls the controller's timeout and breaker policy.
type Config struct {
	// LayerTimeout bounds the wait for a single layer call.
	LayerTimeout time.Duration

	// FailureThreshold is the number of consecutive failures after which
	// the layer's breaker opens.
	FailureThreshold int

	// Cooldown is how long an open breaker presumptively skips the layer
	// before allowing a half-open probe.
	Cooldown time.Duration

	// FallbackScore is substituted when a call is skipped or times out.
	FallbackScore float64
}

// Controller wraps layer calls with bounded waits and per-layer breaker
// state. It is safe for concurrent use across sessions; the counters are
// the only mutable state shared between analyses.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	states map[domain.Layer]*layerState
}

type layerState struct {
	consecutiveFailures int
	openUntil           time.Time
	probing             bool
	timeouts            uint64
	skips               uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller with the given policy. Zero config
// values fall back to conservative defaults.
func NewController(cfg Config, opts ...Option) *Controller {
	if cfg.LayerTimeout <= 0 {
		cfg.LayerTimeout = 2 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.FallbackScore <= 0 || cfg.FallbackScore > 1 {
		cfg.FallbackScore = 0.5
	}

	c := &Controller{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		states: make(map[domain.Layer]*layerState, len(domain.Layers())),
	}
	for _, l := range domain.Layers() {
		c.states[l] = &layerState{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs one layer analysis under the controller's policy. It always
// returns a usable LayerResult: a skipped or timed-out layer yields a
// degraded result carrying the fallback score.
//
// There is no mid-flight cancellation guarantee for the remote work; a
// timeout means "stop waiting". The adapter's eventual result lands in a
// buffered channel that nothing reads after the deadline, so late arrivals
// are discarded and never influence breaker state.
func (c *Controller) Call(ctx context.Context, la analyzer.LayerAnalyzer, session domain.SessionData) domain.LayerResult {
	layer := la.Layer()

	admitted, probe := c.admit(layer)
	if !admitted {
		c.logger.Debug("layer in cooldown, skipping call",
			slog.String("layer", string(layer)),
			slog.String("session_id", session.SessionID))
		return c.fallbackResult(layer)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.LayerTimeout)
	defer cancel()

	ch := make(chan domain.LayerResult, 1)
	go func() {
		ch <- la.Analyze(callCtx, session)
	}()

	select {
	case res := <-ch:
		c.observe(layer, probe, res.Succeeded)
		return res
	case <-callCtx.Done():
		c.observeTimeout(layer, probe)
		c.logger.Warn("layer call timed out, substituting fallback score",
			slog.String("layer", string(layer)),
			slog.String("session_id", session.SessionID),
			slog.Duration("timeout", c.cfg.LayerTimeout))
		return c.fallbackResult(layer)
	}
}

// admit decides whether a layer call may proceed. When the breaker is open
// and the cool-down has expired, exactly one caller is admitted as a
// half-open probe; concurrent callers keep skipping until it reports back.
func (c *Controller) admit(layer domain.Layer) (admitted, probe bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.states[layer]
	if st.openUntil.IsZero() {
		return true, false
	}

	if c.now().Before(st.openUntil) || st.probing {
		st.skips++
		return false, false
	}

	st.probing = true
	return true, true
}

func (c *Controller) observe(layer domain.Layer, probe, succeeded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.states[layer]
	if probe {
		st.probing = false
	}

	if succeeded {
		st.consecutiveFailures = 0
		st.openUntil = time.Time{}
		return
	}

	st.consecutiveFailures++
	if probe || st.consecutiveFailures >= c.cfg.FailureThreshold {
		st.openUntil = c.now().Add(c.cfg.Cooldown)
		c.logger.Warn("layer breaker opened",
			slog.String("layer", string(layer)),
			slog.Int("consecutive_failures", st.consecutiveFailures),
			slog.Duration("cooldown", c.cfg.Cooldown))
	}
}

func (c *Controller) observeTimeout(layer domain.Layer, probe bool) {
	c.mu.Lock()
	c.states[layer].timeouts++
	c.mu.Unlock()
	c.observe(layer, probe, false)
}

func (c *Controller) fallbackResult(layer domain.Layer) domain.LayerResult {
	return domain.LayerResult{
		Layer:     layer,
		BiasScore: c.cfg.FallbackScore,
		Succeeded: false,
		Degraded:  true,
	}
}

// LayerStatus is a point-in-time view of one layer's breaker state.
type LayerStatus struct {
	Layer               domain.Layer `json:"layer"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	Open                bool         `json:"open"`
	OpenUntil           time.Time    `json:"open_until,omitzero"`
	Timeouts            uint64       `json:"timeouts"`
	Skips               uint64       `json:"skips"`
}

// Snapshot reports breaker state for every layer in canonical order.
func (c *Controller) Snapshot() []LayerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]LayerStatus, 0, len(c.states))
	for _, layer := range domain.Layers() {
		st := c.states[layer]
		open := !st.openUntil.IsZero() && now.Before(st.openUntil)
		ls := LayerStatus{
			Layer:               layer,
			ConsecutiveFailures: st.consecutiveFailures,
			Open:                open,
			Timeouts:            st.timeouts,
			Skips:               st.skips,
		}
		if open {
			ls.OpenUntil = st.openUntil
		}
		out = append(out, ls)
	}
	return out
}

// OpenCount reports how many layers are currently in cooldown.
func (c *Controller) OpenCount() int {
	n := 0
	for _, st := range c.Snapshot() {
		if st.Open {
			n++
		}
	}
	return n
}
