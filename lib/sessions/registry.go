// Package sessions tracks ephemeral command-execution sessions. It is
// deliberately decoupled from the instance lifecycle: a session is a
// transport concern, not durable state, and lives only as long as the
// process.
package sessions

import (
	"sync"
	"time"

	"github.com/nrednav/cuid2"
	"golang.org/x/time/rate"
)

// Session is one open command channel to an instance.
type Session struct {
	Id               string    `json:"id"`
	InstanceId       string    `json:"instance_id"`
	CreatedAt        time.Time `json:"created_at"`
	CommandsExecuted int       `json:"commands_executed"`
}

// Registry issues and validates opaque session ids. Ids are never
// reused; a discarded id stays invalid forever.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	rules    []Rule
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewRegistry creates an empty registry. Session creation is rate
// limited process-wide to bound registry growth under misbehaving
// callers.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rules:    DefaultRules,
		limiter:  rate.NewLimiter(rate.Limit(10), 30),
		now:      time.Now,
	}
}

// Connect opens a session attached to the instance and returns it.
func (r *Registry) Connect(instanceId string) (*Session, error) {
	if !r.limiter.Allow() {
		return nil, ErrTooManySessions
	}

	sess := &Session{
		Id:         cuid2.Generate(),
		InstanceId: instanceId,
		CreatedAt:  r.now(),
	}

	r.mu.Lock()
	r.sessions[sess.Id] = sess
	r.mu.Unlock()

	out := *sess
	return &out, nil
}

// Exec runs a command in the session and returns its simulated output.
func (r *Registry) Exec(sessionId, command string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionId]
	if !ok {
		return "", ErrSessionNotFound
	}
	sess.CommandsExecuted++

	return respond(r.rules, command), nil
}

// Discard closes a session. Discarding an unknown id is an error so
// callers learn about double-closes.
func (r *Registry) Discard(sessionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionId]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, sessionId)
	return nil
}

// Get returns a session by id.
func (r *Registry) Get(sessionId string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionId]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := *sess
	return &out, nil
}
