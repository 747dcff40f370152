// Package session owns the shared HTTP client used for all backend calls.
package session

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
)

// DefaultTimeout bounds a whole request, generous enough for slow list pages.
const DefaultTimeout = 2 * time.Minute

// Manager hands out a single lazily created *http.Client. Create-if-absent and
// Close share one critical section so concurrent callers cannot race a second
// client into existence.
type Manager struct {
	timeout time.Duration

	mu     sync.Mutex
	client *http.Client
}

// NewManager creates a session manager. A zero timeout uses DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Manager{timeout: timeout}
}

// Acquire returns the shared client, creating it if absent or previously
// closed. Creation is synchronous and performs no network I/O.
func (m *Manager) Acquire() *http.Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		logging.Debug("creating shared HTTP session")
		m.client = &http.Client{
			Timeout: m.timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return m.client
}

// Close tears down the shared client. Closing an already-closed or
// never-created session is a no-op; a later Acquire creates a fresh client.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return
	}
	m.client.CloseIdleConnections()
	m.client = nil
	logging.Debug("shared HTTP session closed")
}

// Live reports whether a client currently exists.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}
