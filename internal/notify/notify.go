// Package notify carries accepted budget actions from the service that
// committed them to every connection watching the same budget, across server
// processes. The production broker rides on Postgres LISTEN/NOTIFY; an
// in-memory bus serves single-process setups and tests.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Channel is the notification channel shared by all server processes.
const Channel = "budget_actions"

// Event is one accepted action, tagged with the budget it belongs to and the
// connection that submitted it. Origin lets the fanout skip the submitter,
// which already applied the action locally.
type Event struct {
	BudgetID int64           `json:"budgetId"`
	Origin   uuid.UUID       `json:"origin"`
	Action   json.RawMessage `json:"action"`
}

// Publisher broadcasts an event to all subscribers, including ones in other
// processes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler consumes one event. Handlers must not block; slow consumers stall
// the whole subscription.
type Handler func(ev Event)
