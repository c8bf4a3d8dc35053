// Package orchestrator sequences capture, speech, AI requests and session
// state for each screen of the assistant.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/session"
)

// Controller is the lifecycle shared by every screen.
type Controller interface {
	Mode() model.AppMode
	// Enter prepares the screen. Failures are reported through the
	// controller's state; the returned error is for the host's logs.
	Enter(ctx context.Context) error
	// Exit releases resources and abandons in-flight requests.
	Exit()
}

// Router keeps exactly one screen active.
type Router struct {
	state *session.State
	log   *slog.Logger

	mu     sync.Mutex
	table  map[model.AppMode]Controller
	active Controller
}

func NewRouter(state *session.State, log *slog.Logger, controllers ...Controller) *Router {
	r := &Router{
		state: state,
		log:   logging.OrDiscard(log).With("component", "router"),
		table: make(map[model.AppMode]Controller, len(controllers)),
	}
	for _, c := range controllers {
		r.table[c.Mode()] = c
	}
	return r
}

// Switch exits the active controller and enters the one registered for m.
// Modes without a controller (onboarding, auth, selector) only update the
// session.
func (r *Router) Switch(ctx context.Context, m model.AppMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		r.active.Exit()
		r.active = nil
	}
	r.state.SetMode(m)
	next, ok := r.table[m]
	if !ok {
		return nil
	}
	r.active = next
	r.log.Debug("enter", "mode", m)
	if err := next.Enter(ctx); err != nil {
		return fmt.Errorf("enter %s: %w", m, err)
	}
	return nil
}

// Controller returns the controller registered for m.
func (r *Router) Controller(m model.AppMode) (Controller, bool) {
	c, ok := r.table[m]
	return c, ok
}

func (r *Router) Active() Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Close exits the active controller.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.Exit()
		r.active = nil
	}
}

// liveness tags work with the screen visit that started it. Exit bumps the
// epoch so late results from an abandoned visit are dropped.
type liveness struct {
	epoch atomic.Uint64
}

func (l *liveness) current() uint64 { return l.epoch.Load() }

func (l *liveness) bump() { l.epoch.Add(1) }

func (l *liveness) alive(e uint64) bool { return l.epoch.Load() == e }

// publisher delivers state snapshots to an optional listener.
type publisher[T any] struct {
	mu sync.RWMutex
	fn func(T)
}

func (p *publisher[T]) set(fn func(T)) {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
}

func (p *publisher[T]) publish(v T) {
	p.mu.RLock()
	fn := p.fn
	p.mu.RUnlock()
	if fn != nil {
		fn(v)
	}
}
