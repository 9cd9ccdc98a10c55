package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/dialog"
	"github.com/voxmenu/voxmenu/internal/observe"
)

// SessionInfo holds metadata about an active caller session.
type SessionInfo struct {
	// SessionID is the unique identifier for this session.
	SessionID string

	// CallerID identifies the caller (phone number or connection ID).
	CallerID string

	// StartedAt is when the session was opened.
	StartedAt time.Time
}

// SessionManager owns the per-caller conversation sessions. Each caller has
// at most one session; utterances within a session are serialized by a
// per-session mutex so the ledger never sees concurrent mutation.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	catalog *catalog.Catalog
	manager *dialog.Manager
	metrics *observe.Metrics

	mu       sync.Mutex
	sessions map[string]*callerSession
	counter  uint64
}

// callerSession pairs session state with its turn lock.
type callerSession struct {
	mu   sync.Mutex
	info SessionInfo
	sess *dialog.Session
}

// NewSessionManager returns a manager with no active sessions.
func NewSessionManager(cat *catalog.Catalog, mgr *dialog.Manager, metrics *observe.Metrics) *SessionManager {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &SessionManager{
		catalog:  cat,
		manager:  mgr,
		metrics:  metrics,
		sessions: make(map[string]*callerSession),
	}
}

// StartSession opens a session for callerID. Returns an error when the
// caller already has one.
func (sm *SessionManager) StartSession(ctx context.Context, callerID string) (SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[callerID]; ok {
		return SessionInfo{}, fmt.Errorf("app: caller %q already has an active session", callerID)
	}

	sm.counter++
	info := SessionInfo{
		SessionID: fmt.Sprintf("call-%d-%d", time.Now().Unix(), sm.counter),
		CallerID:  callerID,
		StartedAt: time.Now(),
	}
	sm.sessions[callerID] = &callerSession{
		info: info,
		sess: dialog.NewSession(info.SessionID, sm.catalog),
	}
	sm.metrics.ActiveSessions.Add(ctx, 1)
	observe.Logger(ctx).Info("session started",
		"session", info.SessionID, "caller", callerID)
	return info, nil
}

// EndSession closes the caller's session. Unknown callers are a no-op.
func (sm *SessionManager) EndSession(ctx context.Context, callerID string) {
	sm.mu.Lock()
	cs, ok := sm.sessions[callerID]
	delete(sm.sessions, callerID)
	sm.mu.Unlock()

	if !ok {
		return
	}
	sm.metrics.ActiveSessions.Add(ctx, -1)
	observe.Logger(ctx).Info("session ended",
		"session", cs.info.SessionID, "caller", callerID)
}

// HandleUtterance runs one turn for the caller, opening a session on first
// contact. Turns for the same caller are serialized; different callers
// proceed concurrently.
func (sm *SessionManager) HandleUtterance(ctx context.Context, callerID, utterance string) (dialog.Directive, error) {
	cs, err := sm.session(ctx, callerID)
	if err != nil {
		return dialog.Directive{}, err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	return sm.manager.Turn(ctx, cs.sess, utterance), nil
}

// Session returns the dialog session for callerID, mainly for tests.
func (sm *SessionManager) Session(callerID string) (*dialog.Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cs, ok := sm.sessions[callerID]
	if !ok {
		return nil, false
	}
	return cs.sess, true
}

// Active returns the info of every open session.
func (sm *SessionManager) Active() []SessionInfo {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]SessionInfo, 0, len(sm.sessions))
	for _, cs := range sm.sessions {
		out = append(out, cs.info)
	}
	return out
}

// session fetches or lazily opens the caller's session.
func (sm *SessionManager) session(ctx context.Context, callerID string) (*callerSession, error) {
	sm.mu.Lock()
	if cs, ok := sm.sessions[callerID]; ok {
		sm.mu.Unlock()
		return cs, nil
	}
	sm.mu.Unlock()

	if _, err := sm.StartSession(ctx, callerID); err != nil {
		return nil, err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions[callerID], nil
}
