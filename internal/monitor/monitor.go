// Package monitor watches completed analysis results for threshold
// breaches and dispatches alerts without ever blocking the analysis path.
// It also answers the dashboard's read-only summary queries over a bounded
// buffer of recent results.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// Alert is the event emitted when a result meets the alert threshold.
type Alert struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Level       domain.AlertLevel `json:"level"`
	Score       float64           `json:"score"`
	Confidence  float64           `json:"confidence"`
	TriggeredAt time.Time         `json:"triggered_at"`
}

// AlertSink consumes dispatched alerts (log line, webhook, test channel).
type AlertSink interface {
	Name() string
	Deliver(ctx context.Context, alert Alert) error
}

// Config sizes the monitor's queue and recent-results buffer.
type Config struct {
	// Threshold is the minimum alert level that triggers dispatch.
	Threshold domain.AlertLevel

	// QueueSize bounds the pending-alert queue; a full queue drops the
	// alert and increments a counter rather than blocking analyses.
	QueueSize int

	// RecentResults bounds the dashboard query buffer.
	RecentResults int
}

// Monitor is the alert dispatcher and dashboard query surface. Its
// lifecycle is an explicit stopped -> running -> stopped state machine.
type Monitor struct {
	cfg    Config
	logger *slog.Logger
	sinks  []AlertSink

	mu      sync.Mutex
	running bool
	queue   chan Alert
	wg      sync.WaitGroup

	recent *lru.Cache[uint64, entry]
	seq    atomic.Uint64

	dispatched atomic.Uint64
	dropped    atomic.Uint64
}

// entry pairs a result with the demographics it was analyzed under so the
// dashboard can filter on them.
type entry struct {
	result       domain.BiasAnalysisResult
	demographics domain.Demographics
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithSink registers an additional alert sink.
func WithSink(sink AlertSink) Option {
	return func(m *Monitor) {
		m.sinks = append(m.sinks, sink)
	}
}

// New creates a stopped monitor.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	if cfg.Threshold.Rank() < 0 {
		cfg.Threshold = domain.AlertHigh
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.RecentResults <= 0 {
		cfg.RecentResults = 512
	}

	recent, err := lru.New[uint64, entry](cfg.RecentResults)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		cfg:    cfg,
		logger: slog.Default(),
		recent: recent,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start transitions stopped -> running and spins the dispatch worker.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return domain.ErrMonitorRunning
	}

	m.queue = make(chan Alert, m.cfg.QueueSize)
	m.running = true
	m.wg.Add(1)
	go m.worker(m.queue)

	m.logger.Info("monitor started",
		slog.String("threshold", string(m.cfg.Threshold)),
		slog.Int("queue_size", m.cfg.QueueSize))
	return nil
}

// Stop transitions running -> stopped, draining queued alerts until ctx
// expires.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return domain.ErrMonitorStopped
	}
	m.running = false
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	m.logger.Info("monitor stopped")
	return nil
}

// Observe records a completed result for dashboard queries and, while
// running, enqueues an alert when the result meets the threshold. It never
// blocks: a full queue drops the alert and counts the drop.
func (m *Monitor) Observe(result domain.BiasAnalysisResult, demographics domain.Demographics) {
	m.recent.Add(m.seq.Add(1), entry{result: result, demographics: demographics.Clone()})

	if !result.AlertLevel.AtLeast(m.cfg.Threshold) {
		return
	}

	alert := Alert{
		ID:          "alert_" + uuid.New().String(),
		SessionID:   result.SessionID,
		Level:       result.AlertLevel,
		Score:       result.OverallBiasScore,
		Confidence:  result.Confidence,
		TriggeredAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		m.dropped.Add(1)
		return
	}

	select {
	case m.queue <- alert:
		m.dispatched.Add(1)
	default:
		m.dropped.Add(1)
	}
}

func (m *Monitor) worker(queue <-chan Alert) {
	defer m.wg.Done()
	for alert := range queue {
		for _, sink := range m.sinks {
			if err := sink.Deliver(context.Background(), alert); err != nil {
				m.logger.Error("alert sink delivery failed",
					slog.String("sink", sink.Name()),
					slog.String("alert_id", alert.ID),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Status is the monitor's observable state, polled by the dashboard.
type Status struct {
	Running          bool              `json:"running"`
	Threshold        domain.AlertLevel `json:"threshold"`
	AlertsDispatched uint64            `json:"alerts_dispatched"`
	AlertsDropped    uint64            `json:"alerts_dropped"`
	RecentResults    int               `json:"recent_results"`
}

// Status reports the current monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return Status{
		Running:          running,
		Threshold:        m.cfg.Threshold,
		AlertsDispatched: m.dispatched.Load(),
		AlertsDropped:    m.dropped.Load(),
		RecentResults:    m.recent.Len(),
	}
}
