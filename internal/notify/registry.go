package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live connections and which budget each one watches. A
// connection watches at most one budget at a time.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*registration
}

type registration struct {
	push     Handler
	budgetID int64 // 0 when not watching
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*registration)}
}

// Register adds a connection. push is invoked for every fanned-out event the
// connection should receive.
func (r *Registry) Register(connID uuid.UUID, push Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &registration{push: push}
}

// Unregister removes a connection and its watch.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// SetWatch points the connection at a budget, replacing any previous watch.
// budgetID 0 clears the watch.
func (r *Registry) SetWatch(connID uuid.UUID, budgetID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.conns[connID]; ok {
		reg.budgetID = budgetID
	}
}

// Fanout pushes the event to every connection watching its budget, except
// the origin connection, which already applied the action locally.
func (r *Registry) Fanout(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID, reg := range r.conns {
		if reg.budgetID != ev.BudgetID || connID == ev.Origin {
			continue
		}
		reg.push(ev)
	}
}

// Watching reports how many connections currently watch the budget.
func (r *Registry) Watching(budgetID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, reg := range r.conns {
		if reg.budgetID == budgetID {
			n++
		}
	}
	return n
}
