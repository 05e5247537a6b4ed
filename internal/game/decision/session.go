package decision

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

// Status is the state of a session's state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingSelection
	// StatusResolving means a view-as skill is pending.
	StatusResolving
	StatusCommitted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusIdle:              "idle",
	StatusAwaitingSelection: "awaiting_selection",
	StatusResolving:         "resolving",
	StatusCommitted:         "committed",
	StatusCancelled:         "cancelled",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Options tune a session.
type Options struct {
	// AutoTarget selects the only legal target of a card automatically.
	AutoTarget bool
	// IntelSelect preselects the first legal card of a response.
	IntelSelect bool
	// Timeout bounds Request; zero waits for the context alone.
	Timeout time.Duration
}

// Session negotiates the decisions of one client connection. At most one
// request is outstanding at a time. Begin and Handle may be called from
// different goroutines; the session serializes them.
type Session struct {
	client   string
	reg      *catalog.Registry
	notifier Notifier
	bus      *EventBus
	opts     Options
	logger   *zap.Logger

	mu         sync.Mutex
	status     Status
	req        *Request
	room       catalog.Room
	st         *SelectionState
	pattern    *catalog.Pattern
	beginning  bool
	autoCommit bool
	results    chan Result
	fallback   *Result
	lastID     string

	discard  *discardSkill
	exchange *exchangeSkill
	yiji     *yijiSkill
}

// NewSession creates an idle session for client.
func NewSession(client string, reg *catalog.Registry, notifier Notifier, bus *EventBus, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if bus == nil {
		bus = NewEventBus()
	}
	return &Session{
		client:   client,
		reg:      reg,
		notifier: notifier,
		bus:      bus,
		opts:     opts,
		logger:   logger.With(zap.String("client", client)),
	}
}

// Client returns the owner of the session.
func (s *Session) Client() string {
	return s.client
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Outstanding returns a copy of the outstanding request.
func (s *Session) Outstanding() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return Request{}, false
	}
	return *s.req, true
}

// Begin starts a decision and publishes its initial snapshot. The returned
// channel receives exactly one Result when the decision terminates.
func (s *Session) Begin(room catalog.Room, req Request) (<-chan Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.req != nil {
		return nil, ErrRequestInFlight
	}
	if room == nil {
		return nil, fmt.Errorf("%w: nil room", ErrInvalidRequest)
	}
	req.applyDefaults()
	if err := req.validate(s.reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	var pattern *catalog.Pattern
	if req.Pattern != "" {
		p, err := catalog.ParsePattern(req.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		pattern = &p
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	s.req = &req
	s.room = room
	s.pattern = pattern
	s.st = newSelectionState()
	s.results = make(chan Result, 1)
	s.fallback = nil
	s.autoCommit = false
	s.lastID = req.ID
	s.status = StatusAwaitingSelection

	s.beginning = true
	err := s.setup()
	s.beginning = false
	if err != nil {
		s.req, s.room, s.st, s.results = nil, nil, nil, nil
		s.status = StatusIdle
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	s.syncStatus()

	results := s.results
	s.bus.Publish(newLifecycle(LifecycleOpened, s.client, req.ID, req.Kind))
	s.logger.Info("decision opened",
		zap.String("request_id", req.ID),
		zap.String("kind", req.Kind.String()),
		zap.Strings("requestors", s.st.Requestors),
		zap.Bool("cancelable", s.st.Cancelable),
	)
	s.publish(true)
	return results, nil
}

// Request starts a decision and blocks until it terminates or ctx is done.
// When the configured timeout or ctx expires, the decision is cancelled and
// the cancel answer (the step-wise fallback, if any) is returned together
// with the context error.
func (s *Session) Request(ctx context.Context, room catalog.Room, req Request) (Result, error) {
	results, err := s.Begin(room, req)
	if err != nil {
		return Result{}, err
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	select {
	case res := <-results:
		return res, nil
	case <-ctx.Done():
		s.abandon(results, ctx.Err())
		// The result is either ours or one that raced the expiry.
		res := <-results
		if res.Committed {
			return res, nil
		}
		return res, ctx.Err()
	}
}

// abandon cancels the request owning results if it is still outstanding.
func (s *Session) abandon(results <-chan Result, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil || s.results == nil || (<-chan Result)(s.results) != results {
		return
	}
	s.logger.Warn("decision abandoned",
		zap.String("request_id", s.req.ID),
		zap.String("kind", s.req.Kind.String()),
		zap.Error(cause),
	)
	s.reply(false)
}

// Cancel terminates the outstanding request with its cancel answer,
// regardless of cancelability. The transport calls it on disconnect.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return
	}
	s.reply(false)
}

// Snapshot returns the current snapshot without publishing it.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return Snapshot{}, false
	}
	return s.buildSnapshot(false), true
}

// Resend publishes the current snapshot again, for a reconnecting client.
func (s *Session) Resend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return false
	}
	s.publish(false)
	return true
}

// Handle applies one client event. A rejected event leaves the state
// unchanged, republishes the current snapshot and returns a *RejectError.
// Events for a finished request are dropped with ErrStaleRequest.
func (s *Session) Handle(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.req == nil {
		if ev.RequestID != "" && ev.RequestID == s.lastID {
			return ErrStaleRequest
		}
		return ErrNoRequest
	}
	if ev.RequestID != "" && ev.RequestID != s.req.ID {
		s.logger.Debug("stale event dropped",
			zap.String("request_id", ev.RequestID),
			zap.String("event", ev.Kind.String()),
		)
		return ErrStaleRequest
	}

	if err := ev.checkArity(); err != nil {
		return s.rejected(reject(ev.Kind, ErrProtocol, "%v", err))
	}

	saved := s.st.Clone()
	var reserved int
	if s.discard != nil {
		reserved = len(s.discard.reserved)
	}
	if err := s.dispatch(ev); err != nil {
		s.st = saved
		if s.discard != nil {
			s.discard.reserved = s.discard.reserved[:reserved]
		}
		s.autoCommit = false
		var rej *RejectError
		if !errors.As(err, &rej) {
			rej = reject(ev.Kind, ErrProtocol, "%v", err)
		}
		return s.rejected(rej)
	}

	if s.req == nil {
		return nil
	}
	if s.autoCommit {
		s.autoCommit = false
		s.reply(true)
		return nil
	}
	s.syncStatus()
	s.logger.Debug("event accepted",
		zap.String("request_id", s.req.ID),
		zap.String("event", ev.Kind.String()),
		zap.Strings("args", ev.Args),
	)
	s.publish(false)
	return nil
}

func (s *Session) rejected(rej *RejectError) error {
	s.logger.Warn("event rejected",
		zap.String("request_id", s.req.ID),
		zap.String("kind", s.req.Kind.String()),
		zap.String("event", rej.Event.String()),
		zap.String("reason", rej.Reason),
		zap.Error(rej.Err),
	)
	ev := newLifecycle(LifecycleRejected, s.client, s.req.ID, s.req.Kind)
	ev.Reason = rej.Reason
	s.bus.Publish(ev)
	s.publish(false)
	return rej
}

func (s *Session) publish(initial bool) {
	s.notifier.Notify(s.client, s.buildSnapshot(initial))
}

func (s *Session) syncStatus() {
	if s.st.PendingSkill != nil && !s.st.SkillInvoke {
		s.status = StatusResolving
		return
	}
	s.status = StatusAwaitingSelection
}

func (s *Session) env() catalog.Env {
	return catalog.Env{
		Room:    s.room,
		Reason:  s.req.Reason,
		Pattern: s.req.Pattern,
		Method:  s.req.Method,
	}
}

// actor is the player whose selection the decision currently tracks.
func (s *Session) actor() string {
	st := s.st
	if st.PendingSkill != nil && st.SkillOwner != "" {
		return st.SkillOwner
	}
	for _, p := range st.Requestors {
		if len(st.SelectedCards[p]) > 0 {
			return p
		}
	}
	if s.req.Requestor != "" {
		return s.req.Requestor
	}
	if len(st.Requestors) > 0 {
		return st.Requestors[0]
	}
	return ""
}

func (s *Session) isRequestor(player string) bool {
	return slices.Contains(s.st.Requestors, player)
}
