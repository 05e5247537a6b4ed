package decision

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

// Manager owns one session per connected client. Sessions never share
// state; the manager lock only guards the index.
type Manager struct {
	reg      *catalog.Registry
	notifier Notifier
	bus      *EventBus
	opts     Options
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// OutstandingDecision summarizes a request awaiting a client.
type OutstandingDecision struct {
	Client    string `json:"client"`
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Requestor string `json:"requestor"`
	Status    string `json:"status"`
}

// NewManager creates a manager publishing snapshots through notifier.
func NewManager(reg *catalog.Registry, notifier Notifier, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Manager{
		reg:      reg,
		notifier: notifier,
		bus:      NewEventBus(),
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Events returns the lifecycle bus shared by every session.
func (m *Manager) Events() *EventBus {
	return m.bus
}

// Open returns the session of client, creating it on first use.
func (m *Manager) Open(client string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[client]; ok {
		return s
	}
	s := NewSession(client, m.reg, m.notifier, m.bus, m.opts, m.logger)
	m.sessions[client] = s
	m.logger.Debug("session opened", zap.String("client", client))
	return s
}

// Session looks up the session of client.
func (m *Manager) Session(client string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[client]
	return s, ok
}

// Clients lists clients with a session, sorted.
func (m *Manager) Clients() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clients := make([]string, 0, len(m.sessions))
	for c := range m.sessions {
		clients = append(clients, c)
	}
	sort.Strings(clients)
	return clients
}

// Dispatch hands a client event to its session.
func (m *Manager) Dispatch(client string, ev Event) error {
	s, ok := m.Session(client)
	if !ok {
		return fmt.Errorf("%w: no session for %s", ErrNoRequest, client)
	}
	return s.Handle(ev)
}

// Close cancels the outstanding request of client and forgets the session.
func (m *Manager) Close(client string) {
	m.mu.Lock()
	s, ok := m.sessions[client]
	delete(m.sessions, client)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Cancel()
	m.logger.Debug("session closed", zap.String("client", client))
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	for _, client := range m.Clients() {
		m.Close(client)
	}
}

// Outstanding lists the requests currently awaiting clients.
func (m *Manager) Outstanding() []OutstandingDecision {
	var out []OutstandingDecision
	for _, client := range m.Clients() {
		s, ok := m.Session(client)
		if !ok {
			continue
		}
		req, ok := s.Outstanding()
		if !ok {
			continue
		}
		out = append(out, OutstandingDecision{
			Client:    client,
			RequestID: req.ID,
			Kind:      req.Kind.String(),
			Requestor: req.Requestor,
			Status:    s.Status().String(),
		})
	}
	return out
}
