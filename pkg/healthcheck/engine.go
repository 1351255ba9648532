package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine runs registered checkers concurrently and caches nothing: every
// CheckAll call reflects the current state of each component.
type Engine struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	logger   *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	running  bool
}

// NewEngine creates a health check engine. A zero interval defaults to 15s.
func NewEngine(logger *zap.Logger, interval time.Duration) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &Engine{
		checkers: make(map[string]Checker),
		logger:   logger.With(zap.String("component", "healthcheck")),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a checker, replacing any previous checker with the same name.
func (e *Engine) Register(c Checker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkers[c.Name()] = c
	e.logger.Info("Registered health checker", zap.String("checker", c.Name()))
}

// Unregister removes a checker by name.
func (e *Engine) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.checkers, name)
}

// CheckAll runs every registered checker concurrently and returns a summary.
func (e *Engine) CheckAll(ctx context.Context) *Summary {
	e.mu.RLock()
	checkers := make(map[string]Checker, len(e.checkers))
	for name, c := range e.checkers {
		checkers[name] = c
	}
	e.mu.RUnlock()

	var (
		wg        sync.WaitGroup
		resultsMu sync.Mutex
	)
	results := make(map[string]*Result, len(checkers))

	for name, c := range checkers {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)

			resultsMu.Lock()
			results[name] = result
			resultsMu.Unlock()
		}(name, c)
	}
	wg.Wait()

	return &Summary{
		OverallStatus: Summarize(results),
		Components:    results,
		Timestamp:     time.Now(),
	}
}

// Start runs checks periodically until the context is cancelled or Stop is
// called. Intended to be run in its own goroutine.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.logger.Info("Health check engine started", zap.Duration("interval", e.interval))

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.setStopped()
			return
		case <-e.stopCh:
			e.setStopped()
			return
		case <-ticker.C:
			summary := e.CheckAll(ctx)
			e.logger.Debug("Health check completed",
				zap.String("status", string(summary.OverallStatus)),
				zap.Int("components", len(summary.Components)))
		}
	}
}

// Stop halts periodic checking.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	close(e.stopCh)
	e.stopCh = make(chan struct{})
}

func (e *Engine) setStopped() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	e.logger.Info("Health check engine stopped")
}

// IsRunning reports whether periodic checking is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}
