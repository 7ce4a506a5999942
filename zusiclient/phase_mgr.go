package zusiclient

import (
	"sync"

	"github.com/arloliu/go-zusi/logger"
)

// PhaseChangeHandler is invoked on every phase change, in the order the changes happen.
//
// Note: the handler is invoked synchronously by the goroutine performing the change while
// transitions are serialized. It must not call Stop and should return quickly.
type PhaseChangeHandler func(c *Client, prev Phase, cur Phase)

// phaseMgr serializes phase transitions and the notification of their handlers.
// Reads of the current phase never block.
type phaseMgr struct {
	mu       sync.Mutex
	phase    AtomicPhase
	client   *Client
	logger   logger.Logger
	metrics  *ConnectionMetrics
	handlers []PhaseChangeHandler
}

func newPhaseMgr(c *Client, l logger.Logger, metrics *ConnectionMetrics, handlers []PhaseChangeHandler) *phaseMgr {
	return &phaseMgr{
		client:   c,
		logger:   l,
		metrics:  metrics,
		handlers: handlers,
	}
}

// Load returns the current phase.
func (m *phaseMgr) Load() Phase {
	return m.phase.Load()
}

// advance moves the phase from `from` to its successor `to`. Driver only.
func (m *phaseMgr) advance(from Phase, to Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.Advance(from, to) {
		m.logger.Debug("phase advance skipped", "method", "advance", "from", from.String(), "to", to.String(), "cur", m.phase.Load().String())
		return false
	}
	m.notify(from, to)

	return true
}

// dispose tears down the phase `from`. Driver only.
func (m *phaseMgr) dispose(from Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.Dispose(from) {
		return false
	}
	m.notify(from, PhaseDispose)

	return true
}

// requestDispose is the single transition allowed to the reader goroutine.
func (m *phaseMgr) requestDispose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.phase.RequestDispose()
	if ok {
		m.notify(prev, PhaseDispose)
	}

	return ok
}

// forceDispose sets Dispose from any phase. Used by Stop and the final shutdown.
func (m *phaseMgr) forceDispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.phase.ForceDispose(); prev != PhaseDispose {
		m.notify(prev, PhaseDispose)
	}
}

// reset moves Dispose back to Closed.
func (m *phaseMgr) reset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.Reset() {
		return false
	}
	m.notify(PhaseDispose, PhaseClosed)

	return true
}

func (m *phaseMgr) notify(prev Phase, cur Phase) {
	m.metrics.incPhaseChangeCount()
	if cur == PhaseDispose {
		m.metrics.incDisposeCount()
	}
	if cur == PhaseOperation {
		m.metrics.incOnlineCount()
	}

	m.logger.Debug("phase changed", "prev", prev.String(), "cur", cur.String())

	for _, handler := range m.handlers {
		if handler != nil {
			handler(m.client, prev, cur)
		}
	}
}
