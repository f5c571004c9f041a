// Package ruleset holds the process-wide, immutable-after-startup table of
// action handlers. The shape follows the teacher's MarketRegistry: a
// sync.RWMutex-guarded map with register/get/list, except entries here are
// never removed or swapped once the process is running.
package ruleset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// Context is what a validator or applier gets to work with. It exposes the
// session (for ledger/market calls), the tick the action is being applied
// at, the actor who submitted it, and the broadcaster for emitting events.
type Context struct {
	Sess    *store.Session
	Bcast   events.Broadcaster
	Tick    uint32
	ActorID string
}

// Validator rejects a malformed or rule-violating action payload.
type Validator func(ctx Context, payload map[string]any) error

// Applier performs the action's effect and returns a result blob recorded
// into the applied-action log.
type Applier func(ctx Context, payload map[string]any) (map[string]any, error)

// Handler pairs an action type's validator and applier.
type Handler struct {
	Validator Validator
	Applier   Applier
}

// Registry is a thread-safe action-type lookup table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for an action type. Returns an error if the type
// is already registered -- ruleset wiring is meant to happen once at
// startup, not at request time.
func (r *Registry) Register(actionType string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[actionType]; exists {
		return fmt.Errorf("action type %q already registered", actionType)
	}
	r.handlers[actionType] = h
	return nil
}

// Get looks up the handler for an action type.
func (r *Registry) Get(actionType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[actionType]
	return h, ok
}

// Types returns every registered action type, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
