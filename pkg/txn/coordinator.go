package txn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
)

type Option func(c *Coordinator)

func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithIsolation sets the isolation level requested for new physical transactions.
func WithIsolation(lvl IsolationLevel) Option {
	return func(c *Coordinator) {
		c.isolation = lvl
	}
}

// WithPolicy sets the default policy used by Run.
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

func NewCoordinator(log logger.Logger, sessions SessionFactory, opts ...Option) *Coordinator {
	if sessions == nil {
		panic("txn: session factory must not be nil")
	}

	c := &Coordinator{
		log:      log.With("txn"),
		sessions: sessions,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Coordinator decides whether a unit of work starts a physical
// transaction or joins the active one, and resolves the outcome
// at the outermost boundary. It has no state of its own besides
// configuration; transactional state lives in the context.
type Coordinator struct {
	log       logger.Logger
	sessions  SessionFactory
	observer  Observer
	isolation IsolationLevel
	policy    Policy
}

// Begin starts or joins a transaction according to def.Propagation.
// The returned context must be used by the unit of work and by
// everything it calls; the handle must be resolved exactly once.
func (c *Coordinator) Begin(ctx context.Context, def Definition) (context.Context, *Handle, error) {
	sc := scopeFrom(ctx)
	if sc == nil {
		sc = &scope{}
		ctx = context.WithValue(ctx, scopeKey{}, sc)
	}

	if err := sc.enter(); err != nil {
		return ctx, nil, err
	}
	defer sc.leave()

	st := sc.state
	if st == nil {
		if def.Propagation == PropagationMandatory {
			return ctx, nil, errors.Wrapf(ErrNoActiveTransaction, "existing transaction required by %q", def.Name)
		}
		h, err := c.start(ctx, sc, def)
		return ctx, h, err
	}

	if st.owner != c {
		return ctx, nil, invalidState("active transaction belongs to another coordinator")
	}

	var (
		h   *Handle
		err error
	)
	switch def.Propagation {
	case PropagationRequired, PropagationMandatory:
		h = c.join(st, sc, def)
	case PropagationNested:
		h, err = c.savepoint(ctx, st, sc, def)
	default:
		err = invalidState(fmt.Sprintf("unsupported propagation %d", def.Propagation))
	}
	return ctx, h, err
}

func (c *Coordinator) start(ctx context.Context, sc *scope, def Definition) (*Handle, error) {
	session, err := c.sessions.Begin(ctx, Options{
		ReadOnly:  def.ReadOnly,
		Isolation: c.isolation,
	})
	if err != nil {
		return nil, resourceErr(errors.WrapFail(err, "open session"), ErrResourceUnavailable)
	}

	st := &state{
		id:       uuid.NewString(),
		owner:    c,
		session:  session,
		readOnly: def.ReadOnly,
		depth:    1,
	}
	sc.state = st

	c.log.Debugf("Creating new transaction %s with name [%s] (%s, readOnly=%t)", st.id, def.Name, def.Propagation, def.ReadOnly)
	c.observer.OnBegin(st.id, true)

	return &Handle{scope: sc, state: st, name: def.Name, newTx: true}, nil
}

func (c *Coordinator) join(st *state, sc *scope, def Definition) *Handle {
	st.depth++

	c.log.Debugf("Participating in existing transaction %s with name [%s]", st.id, def.Name)
	if def.ReadOnly != st.readOnly {
		c.log.Debugf("Ignoring readOnly=%t of [%s]: outer transaction %s has readOnly=%t", def.ReadOnly, def.Name, st.id, st.readOnly)
	}
	c.observer.OnBegin(st.id, false)

	return &Handle{scope: sc, state: st, name: def.Name}
}

func (c *Coordinator) savepoint(ctx context.Context, st *state, sc *scope, def Definition) (*Handle, error) {
	sp, ok := st.session.(SavepointSession)
	if !ok {
		return nil, errors.Wrapf(ErrNestedUnsupported, "nested transaction [%s]", def.Name)
	}

	name := fmt.Sprintf("txprop_sp_%d", st.created+1)
	err := sp.CreateSavepoint(ctx, name)
	if err != nil {
		return nil, resourceErr(errors.WrapFail(err, "create savepoint"), ErrResourceUnavailable)
	}

	frame := &savepoint{name: name}
	st.created++
	st.savepoints = append(st.savepoints, frame)
	st.depth++

	c.log.Debugf("Creating nested transaction %s with name [%s] at savepoint %s", st.id, def.Name, name)
	c.observer.OnBegin(st.id, false)

	return &Handle{scope: sc, state: st, name: def.Name, savepoint: frame}, nil
}

// Resolve completes the logical transaction of h with the requested outcome.
//
// Participants never touch the physical resource: a rollback only marks
// the transaction rollback-only. The outermost handle commits or rolls
// back the session; a commit of a rollback-only transaction rolls back
// and fails with ErrUnexpectedRollback.
func (c *Coordinator) Resolve(ctx context.Context, h *Handle, outcome Outcome) error {
	if h == nil {
		return invalidState("nil transaction handle")
	}

	sc := h.scope
	if scopeFrom(ctx) != sc {
		return invalidState("transaction handle belongs to another logical thread")
	}

	if err := sc.enter(); err != nil {
		return err
	}
	defer sc.leave()

	if h.completed {
		return invalidState(fmt.Sprintf("transaction [%s] is already completed", h.name))
	}
	if sc.state != h.state {
		return invalidState(fmt.Sprintf("no matching active transaction for [%s]", h.name))
	}
	if h.state.owner != c {
		return invalidState("transaction belongs to another coordinator")
	}

	h.completed = true
	st := h.state

	if !h.newTx {
		st.depth--
		if h.savepoint != nil {
			return c.resolveSavepoint(ctx, st, h, outcome)
		}
		if outcome == Rollback {
			c.markRollbackOnly(st, h.name)
		} else {
			c.log.Debugf("Participating transaction [%s] requested commit, deferring to outer transaction %s", h.name, st.id)
		}
		return nil
	}

	defer func() { sc.state = nil }()

	if st.depth > 1 {
		err := invalidState(fmt.Sprintf("%d participants of transaction %s are not completed", st.depth-1, st.id))
		return errors.Collapse(err, c.rollback(ctx, st, ReasonUnresolved))
	}

	if outcome == Rollback {
		return c.rollback(ctx, st, ReasonRequested)
	}

	if st.rollbackOnly {
		c.log.Debugf("Global transaction %s is marked as rollback-only but transactional code requested commit", st.id)
		return errors.Collapse(ErrUnexpectedRollback, c.rollback(ctx, st, ReasonRollbackOnly))
	}

	return c.commit(ctx, st)
}

// Commit is a shorthand for Resolve(ctx, h, Commit).
func (c *Coordinator) Commit(ctx context.Context, h *Handle) error {
	return c.Resolve(ctx, h, Commit)
}

// Rollback is a shorthand for Resolve(ctx, h, Rollback).
func (c *Coordinator) Rollback(ctx context.Context, h *Handle) error {
	return c.Resolve(ctx, h, Rollback)
}

// SetRollbackOnly dooms the active transaction without failing the unit of work.
func (c *Coordinator) SetRollbackOnly(ctx context.Context) error {
	sc := scopeFrom(ctx)
	if sc == nil {
		return errors.Wrap(ErrNoActiveTransaction, "set rollback-only")
	}

	if err := sc.enter(); err != nil {
		return err
	}
	defer sc.leave()

	if sc.state == nil {
		return errors.Wrap(ErrNoActiveTransaction, "set rollback-only")
	}
	c.markRollbackOnly(sc.state, "")
	return nil
}

func (c *Coordinator) markRollbackOnly(st *state, name string) {
	if !st.markRollbackOnly() {
		return
	}
	c.log.Warnf("Participating transaction [%s] failed - marking existing transaction %s as rollback-only", name, st.id)
	c.observer.OnMarkRollbackOnly(st.id)
}

// resolveSavepoint completes a nested transaction. Marks made inside
// the savepoint are discarded together with it; a failure to roll back
// or release the savepoint dooms the enclosing level. Savepoints must be
// resolved innermost first: resolving an outer one dooms the transaction
// and drops that savepoint with every one opened after it.
func (c *Coordinator) resolveSavepoint(ctx context.Context, st *state, h *Handle, outcome Outcome) error {
	sp := st.session.(SavepointSession)
	frame := h.savepoint

	if st.innermost() != frame {
		st.discard(frame)
		if !st.rollbackOnly {
			st.rollbackOnly = true
			c.observer.OnMarkRollbackOnly(st.id)
		}
		return invalidState(fmt.Sprintf("savepoint %s of [%s] is not the innermost one", frame.name, h.name))
	}
	st.pop()

	if outcome == Commit && !frame.rollbackOnly {
		c.log.Debugf("Releasing savepoint %s of transaction %s", frame.name, st.id)
		err := sp.ReleaseSavepoint(ctx, frame.name)
		if err != nil {
			c.markRollbackOnly(st, h.name)
			return resourceErr(errors.WrapFail(err, "release savepoint "+frame.name), ErrCommitFailed)
		}
		return nil
	}

	c.log.Debugf("Rolling back transaction %s to savepoint %s", st.id, frame.name)
	err := sp.RollbackToSavepoint(ctx, frame.name)
	if err != nil {
		c.markRollbackOnly(st, h.name)
		err = resourceErr(errors.WrapFail(err, "rollback to savepoint "+frame.name), ErrRollbackFailed)
		c.log.Error(err)
	}

	if outcome == Commit {
		return errors.Collapse(ErrUnexpectedRollback, err)
	}
	return err
}

func (c *Coordinator) commit(ctx context.Context, st *state) error {
	c.log.Debugf("Initiating transaction commit %s", st.id)

	err := st.session.Commit(ctx)
	if err != nil {
		err = resourceErr(errors.WrapFail(err, "commit transaction "+st.id), ErrCommitFailed)
	}

	c.observer.OnCommit(st.id, err)
	return err
}

func (c *Coordinator) rollback(ctx context.Context, st *state, reason RollbackReason) error {
	c.log.Debugf("Initiating transaction rollback %s (%s)", st.id, reason)

	err := st.session.Rollback(ctx)
	if err != nil {
		err = resourceErr(errors.WrapFail(err, "rollback transaction "+st.id), ErrRollbackFailed)
		c.log.Error(err)
	}

	c.observer.OnRollback(st.id, reason, err)
	return err
}
