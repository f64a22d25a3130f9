package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/didagoals/internal/logging"
)

// DefaultSessionTimeout expires sessions idle for longer.
const DefaultSessionTimeout = 24 * time.Hour

// ErrUnknownSession is returned for session IDs this server never issued or
// has already expired.
var ErrUnknownSession = errors.New("unknown session id")

type sessionInfo struct {
	lastAccess time.Time
	terminated bool
}

// SessionIDManager issues MCP session IDs for the streamable-HTTP transport
// and forgets sessions that stay idle past the timeout.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.Mutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	logger         logging.Logger
	now            func() time.Time
}

// NewSessionIDManager creates a manager with the default timeout.
func NewSessionIDManager(logger logging.Logger) *SessionIDManager {
	return NewSessionIDManagerWithTimeout(DefaultSessionTimeout, logger)
}

// NewSessionIDManagerWithTimeout creates a manager expiring sessions idle
// for longer than timeout.
func NewSessionIDManagerWithTimeout(timeout time.Duration, logger logging.Logger) *SessionIDManager {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	interval := 10 * time.Minute
	if timeout < interval {
		interval = timeout
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(interval),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		logger:         logger,
		now:            time.Now,
	}

	go m.cleanupLoop()

	return m
}

// Generate issues a new session ID.
func (m *SessionIDManager) Generate() string {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &sessionInfo{lastAccess: m.now()}
	return id
}

// Validate reports whether sessionID was terminated, and fails for IDs the
// manager does not know.
func (m *SessionIDManager) Validate(sessionID string) (isTerminated bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[sessionID]
	if !ok {
		return false, ErrUnknownSession
	}
	if info.terminated {
		return true, nil
	}
	info.lastAccess = m.now()
	return false, nil
}

// Terminate ends a session at the client's request.
func (m *SessionIDManager) Terminate(sessionID string) (isNotAllowed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[sessionID]
	if !ok {
		return false, ErrUnknownSession
	}
	info.terminated = true
	info.lastAccess = m.now()
	return false, nil
}

// ActiveSessions returns the number of live sessions.
func (m *SessionIDManager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, info := range m.sessions {
		if !info.terminated {
			n++
		}
	}
	return n
}

// expire removes sessions idle past the timeout and returns how many.
func (m *SessionIDManager) expire() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for id, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.sessionTimeout {
			delete(m.sessions, id)
			expired++
		}
	}
	return expired
}

func (m *SessionIDManager) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.expire(); n > 0 {
				m.logger.Info("cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (m *SessionIDManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
