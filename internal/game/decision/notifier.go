package decision

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier delivers snapshots to the client owning a session. Notify is
// called with the session lock held; implementations must not block.
type Notifier interface {
	Notify(client string, snap Snapshot)
}

// LogNotifier is a stand-in transport that logs every snapshot and keeps
// the most recent ones per client for inspection.
type LogNotifier struct {
	logger *zap.Logger

	mu     sync.RWMutex
	snaps  map[string][]Snapshot
	counts map[string]int
}

const logNotifierHistory = 64

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{
		logger: logger,
		snaps:  make(map[string][]Snapshot),
		counts: make(map[string]int),
	}
}

// Notify records the snapshot.
func (n *LogNotifier) Notify(client string, snap Snapshot) {
	n.mu.Lock()
	history := append(n.snaps[client], snap)
	if len(history) > logNotifierHistory {
		history = history[len(history)-logNotifierHistory:]
	}
	n.snaps[client] = history
	n.counts[client]++
	n.mu.Unlock()

	n.logger.Debug("snapshot published",
		zap.String("client", client),
		zap.String("request_id", snap.RequestID),
		zap.String("kind", snap.Kind),
		zap.Bool("initial", snap.IsInitial),
		zap.Bool("ok_enabled", snap.OKEnabled),
	)
}

// Last returns the most recent snapshot sent to client.
func (n *LogNotifier) Last(client string) (Snapshot, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	history := n.snaps[client]
	if len(history) == 0 {
		return Snapshot{}, false
	}
	return history[len(history)-1], true
}

// Count returns how many snapshots client has received.
func (n *LogNotifier) Count(client string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.counts[client]
}
