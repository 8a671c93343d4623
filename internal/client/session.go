package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/bradenmacdonald/ratio/internal/action"
	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/internal/idgen"
	"github.com/bradenmacdonald/ratio/internal/transport/ws"
)

var (
	// ErrNoBudget is returned by operations that need an open budget.
	ErrNoBudget = errors.New("client: no budget open")
	// ErrNothingToUndo is returned by Undo on an empty undo stack.
	ErrNothingToUndo = errors.New("client: nothing to undo")
	// ErrNothingToRedo is returned by Redo on an empty redo stack.
	ErrNothingToRedo = errors.New("client: nothing to redo")
)

// rpcClient is the slice of Client the session needs; tests substitute a
// fake.
type rpcClient interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Session tracks one open budget: a local replica of the document, the
// session's reserved ID block, and per-session undo/redo stacks. Every local
// edit is confirmed by the server before it is applied to the replica, so
// the replica never diverges from the accepted change history.
type Session struct {
	log          *slog.Logger
	rpc          rpcClient
	rewatchDelay time.Duration

	mu          sync.Mutex
	budgetID    int64
	doc         domain.Budget
	version     int64
	prefix      int64
	currentDate domain.Date
	undo        []action.Action // inverse actions, newest last
	redo        []action.Action
}

// NewSession creates a session speaking through rpc. Use Bind to hook a
// Session up to a Client's notifications and reconnect events.
func NewSession(rpc rpcClient, logger *slog.Logger) *Session {
	return &Session{
		log:          logger.With("component", "session"),
		rpc:          rpc,
		rewatchDelay: 100 * time.Millisecond,
	}
}

// Bind subscribes the session to the client's pushed actions and reconnect
// events.
func (s *Session) Bind(c *Client) {
	s.rewatchDelay = c.RewatchDelay()
	c.OnNotification(s.HandleNotification)
	c.OnConnect(func(ctx context.Context) {
		go s.reestablish(ctx)
	})
}

// Open loads and watches a budget, replacing any previously open one. The
// undo and redo stacks are reset.
func (s *Session) Open(ctx context.Context, budgetID int64) error {
	var result ws.GetResult
	err := s.rpc.Call(ctx, ws.MethodGetBudget, ws.GetParams{BudgetID: &budgetID, WatchBudget: true}, &result)
	if err != nil {
		return fmt.Errorf("open budget %d: %w", budgetID, err)
	}

	doc, err := decodeDocument(result.Data)
	if err != nil {
		return fmt.Errorf("open budget %d: %w", budgetID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgetID = budgetID
	s.doc = doc
	s.version = result.Version
	s.prefix = result.SafeIDPrefix
	s.currentDate = domain.Today().Clamp(doc.StartDate, doc.EndDate)
	s.undo = nil
	s.redo = nil
	return nil
}

// Close stops watching the current budget and clears the session state.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	open := s.budgetID != 0
	s.budgetID = 0
	s.doc = domain.Budget{}
	s.undo = nil
	s.redo = nil
	s.mu.Unlock()

	if !open {
		return nil
	}
	return s.rpc.Call(ctx, ws.MethodWatchBudget, ws.WatchParams{BudgetID: json.RawMessage("null")}, nil)
}

// Budget returns the current replica.
func (s *Session) Budget() (domain.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.budgetID != 0
}

// Version returns the last change id confirmed by the server.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// SafeIDPrefix returns the ID block reserved for this session.
func (s *Session) SafeIDPrefix() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefix
}

// CurrentDate is today's date clamped into the budget's range.
func (s *Session) CurrentDate() domain.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDate
}

// NewID allocates an id for a new entity in the named collection
// ("accounts", "categories", "categoryGroups", "transactions") that cannot
// collide with ids minted by concurrent sessions.
func (s *Session) NewID(collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgetID == 0 {
		return 0, ErrNoBudget
	}
	return idgen.NextID(s.doc, collection, s.prefix), nil
}

// CanUndo reports whether the undo stack is non-empty.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Dispatch submits a local edit: the server confirms and orders it, then the
// replica applies it. The action's inverse is pushed on the undo stack and
// the redo stack is cleared, since a new edit forks history.
func (s *Session) Dispatch(ctx context.Context, act action.Action) error {
	s.mu.Lock()
	if s.budgetID == 0 {
		s.mu.Unlock()
		return ErrNoBudget
	}
	if act.BudgetID != s.budgetID {
		s.mu.Unlock()
		return fmt.Errorf("%w: action for budget %d, session has %d",
			domain.ErrMalformedAction, act.BudgetID, s.budgetID)
	}
	inverse, err := action.Invert(s.doc, act)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	changeID, err := s.send(ctx, act)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(act); err != nil {
		return err
	}
	s.version = changeID
	s.undo = append(s.undo, inverse)
	s.redo = nil
	return nil
}

// Undo submits the most recent inverse action. Its own inverse goes on the
// redo stack.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	inv := s.undo[len(s.undo)-1]
	redoAct, err := action.Invert(s.doc, inv)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	changeID, err := s.send(ctx, inv)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(inv); err != nil {
		return err
	}
	s.version = changeID
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, redoAct)
	return nil
}

// Redo replays the most recently undone action. Unlike a fresh Dispatch it
// pops the redo stack instead of clearing it, so a chain of redos works.
func (s *Session) Redo(ctx context.Context) error {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	act := s.redo[len(s.redo)-1]
	inverse, err := action.Invert(s.doc, act)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	changeID, err := s.send(ctx, act)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(act); err != nil {
		return err
	}
	s.version = changeID
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, inverse)
	return nil
}

// HandleNotification processes server pushes. Remote actions apply to the
// replica only: they are never sent back to the server and never touch the
// undo/redo stacks.
func (s *Session) HandleNotification(method string, params json.RawMessage) {
	if method != ws.NotifyBudgetAction {
		s.log.Debug("ignoring notification", slog.String("method", method))
		return
	}

	var p ws.ActionParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Warn("malformed budget_action payload", slog.Any("error", err))
		return
	}
	act, err := action.Parse(p.Action)
	if err != nil {
		s.log.Warn("malformed pushed action", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgetID == 0 || act.BudgetID != s.budgetID {
		s.log.Debug("ignoring action for inactive budget",
			slog.Int64("budget_id", act.BudgetID))
		return
	}
	if err := s.applyLocked(act); err != nil {
		s.log.Error("failed to apply pushed action", slog.Any("error", err))
	}
}

// reestablish re-subscribes after a reconnect and re-fetches the document,
// since pushes were lost while the connection was down. The short delay
// before the watch call mirrors the flakiness of sending immediately after
// the socket opens.
func (s *Session) reestablish(ctx context.Context) {
	s.mu.Lock()
	budgetID := s.budgetID
	s.mu.Unlock()
	if budgetID == 0 {
		return
	}

	time.Sleep(s.rewatchDelay)

	watchID := json.RawMessage(strconv.FormatInt(budgetID, 10))
	if err := s.rpc.Call(ctx, ws.MethodWatchBudget, ws.WatchParams{BudgetID: watchID}, nil); err != nil {
		s.log.Error("unable to re-subscribe to budget", slog.Any("error", err))
		return
	}

	var result ws.GetResult
	if err := s.rpc.Call(ctx, ws.MethodGetBudget, ws.GetParams{BudgetID: &budgetID}, &result); err != nil {
		s.log.Error("unable to re-fetch budget", slog.Any("error", err))
		return
	}
	doc, err := decodeDocument(result.Data)
	if err != nil {
		s.log.Error("unable to decode re-fetched budget", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgetID != budgetID {
		return // switched budgets while re-fetching
	}
	s.doc = doc
	s.version = result.Version
	s.prefix = result.SafeIDPrefix
	s.currentDate = domain.Today().Clamp(doc.StartDate, doc.EndDate)
	s.log.Info("re-synchronized budget",
		slog.Int64("budget_id", budgetID),
		slog.Int64("version", result.Version))
}

// send submits one action over update_budget and returns the assigned
// change id.
func (s *Session) send(ctx context.Context, act action.Action) (int64, error) {
	raw, err := json.Marshal(act)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrMalformedAction, err)
	}
	var result ws.UpdateResult
	if err := s.rpc.Call(ctx, ws.MethodUpdateBudget, ws.UpdateParams{Action: raw}, &result); err != nil {
		return 0, err
	}
	return result.ChangeID, nil
}

// applyLocked runs the action against the replica. A date-range change
// reclamps the session's current date into the new range.
func (s *Session) applyLocked(act action.Action) error {
	next, err := action.Apply(s.doc, act)
	if err != nil {
		return err
	}
	s.doc = next
	if act.Kind == action.KindSetDate {
		s.currentDate = domain.Today().Clamp(next.StartDate, next.EndDate)
	}
	return nil
}

func decodeDocument(data json.RawMessage) (domain.Budget, error) {
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return domain.Budget{}, fmt.Errorf("decode document: %w", err)
	}
	doc, err := domain.FromPlain(plain)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("restore document: %w", err)
	}
	return doc, nil
}
