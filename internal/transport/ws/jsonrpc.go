// Package ws implements the budget synchronization RPC surface: JSON-RPC
// 2.0 over a websocket at /budget-rpc, plus server-push notifications for
// accepted actions. The wire types are shared with the client package.
package ws

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version tag.
const Version = "2.0"

// RPC method names served by the handler.
const (
	MethodCreateBudget = "create_budget"
	MethodGetBudget    = "get_budget"
	MethodUpdateBudget = "update_budget"
	MethodWatchBudget  = "watch_budget"
)

// Server-push notification names.
const (
	NotifyConnectionReady = "connection_ready"
	NotifyBudgetAction    = "budget_action"
)

// Error codes returned by the RPC surface. The 504xx range is
// application-defined; the -32xxx codes come from the JSON-RPC 2.0 spec.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeBudgetNotAuthorized = 50403
	CodeBudgetNotFound      = 50404
)

// Request is a JSON-RPC call or notification. ID is kept raw so numeric and
// string ids echo back unchanged; a missing ID marks a notification, which
// gets no response.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC reply.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Notification is a server-initiated JSON-RPC message without an id.
type Notification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func errMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
}

// errInvalidParams names the offending parameter in the error data, which
// clients use to distinguish which argument was rejected.
func errInvalidParams(param string) *Error {
	return &Error{Code: CodeInvalidParams, Message: "invalid parameters", Data: param}
}

// CreateParams are the arguments of create_budget. BudgetJSON optionally
// seeds the new budget from a template document.
type CreateParams struct {
	Name       string         `json:"name,omitempty"`
	BudgetJSON map[string]any `json:"budgetJson,omitempty"`
}

// CreateResult is the reply of create_budget.
type CreateResult struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GetParams are the arguments of get_budget.
type GetParams struct {
	BudgetID    *int64 `json:"budgetId"`
	WatchBudget bool   `json:"watchBudget,omitempty"`
}

// GetResult is the reply of get_budget: the document snapshot, its version,
// and the ID block reserved for this open.
type GetResult struct {
	Data         json.RawMessage `json:"data"`
	Version      int64           `json:"version"`
	SafeIDPrefix int64           `json:"safeIdPrefix"`
}

// UpdateParams are the arguments of update_budget.
type UpdateParams struct {
	Action json.RawMessage `json:"action"`
}

// UpdateResult is the reply of update_budget.
type UpdateResult struct {
	ChangeID int64 `json:"changeId"`
}

// WatchParams are the arguments of watch_budget. BudgetID stays raw to
// distinguish an explicit null (stop watching) from a missing parameter
// (invalid).
type WatchParams struct {
	BudgetID json.RawMessage `json:"budgetId"`
}

// ActionParams is the payload of the budget_action push notification.
type ActionParams struct {
	Action json.RawMessage `json:"action"`
}
