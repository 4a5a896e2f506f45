package txn

import (
	"context"
	"sync/atomic"
)

type scopeKey struct{}

// scope is the transactional state of one logical thread, i.e. of one
// context lineage. It holds at most one active physical transaction.
type scope struct {
	busy  atomic.Bool
	state *state
}

// state backs one physical transaction and every logical
// transaction that joined it.
type state struct {
	id      string
	owner   *Coordinator
	session Session

	readOnly bool

	// rollbackOnly of the physical transaction, never reset
	rollbackOnly bool

	// open savepoints, innermost last
	savepoints []*savepoint
	created    int

	// unresolved handles, the outermost one included
	depth int
}

// savepoint scopes rollback-only marks of the participants
// that run inside a nested transaction.
type savepoint struct {
	name         string
	rollbackOnly bool
}

// markRollbackOnly marks the innermost level: the open
// savepoint if there is one, the physical transaction otherwise.
func (s *state) markRollbackOnly() bool {
	flag := &s.rollbackOnly
	if n := len(s.savepoints); n > 0 {
		flag = &s.savepoints[n-1].rollbackOnly
	}
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (s *state) isRollbackOnly() bool {
	if n := len(s.savepoints); n > 0 {
		return s.savepoints[n-1].rollbackOnly
	}
	return s.rollbackOnly
}

func (s *state) innermost() *savepoint {
	if n := len(s.savepoints); n > 0 {
		return s.savepoints[n-1]
	}
	return nil
}

func (s *state) pop() {
	s.savepoints = s.savepoints[:len(s.savepoints)-1]
}

// discard drops sp and every savepoint opened after it.
func (s *state) discard(sp *savepoint) {
	for i, open := range s.savepoints {
		if open == sp {
			s.savepoints = s.savepoints[:i]
			return
		}
	}
}

// enter guards the scope against use from a second goroutine.
func (s *scope) enter() error {
	if !s.busy.CompareAndSwap(false, true) {
		return invalidState("transaction context is used concurrently by another goroutine")
	}
	return nil
}

func (s *scope) leave() {
	s.busy.Store(false)
}

func scopeFrom(ctx context.Context) *scope {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}

// view runs fn on the active state of ctx under the scope guard. A
// scope held by another goroutine shows no transaction, so a context
// that leaked to a second goroutine never races with Begin or Resolve.
func view(ctx context.Context, fn func(st *state)) bool {
	sc := scopeFrom(ctx)
	if sc == nil || sc.enter() != nil {
		return false
	}
	defer sc.leave()

	if sc.state == nil {
		return false
	}
	fn(sc.state)
	return true
}

// Detach returns a context that does not see the transaction of ctx.
// Goroutines started by a unit of work must run on a detached context:
// a transaction never crosses logical threads.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, (*scope)(nil))
}

// The accessors below see no transaction while another goroutine is
// inside Begin or Resolve on the same scope.

func IsTransactionActive(ctx context.Context) bool {
	return view(ctx, func(*state) {})
}

// IsReadOnly reports the read-only flag set by the outermost participant.
func IsReadOnly(ctx context.Context) bool {
	var readOnly bool
	view(ctx, func(st *state) { readOnly = st.readOnly })
	return readOnly
}

// IsRollbackOnly reports whether the innermost level of the active
// transaction is doomed: the open savepoint or the whole transaction.
func IsRollbackOnly(ctx context.Context) bool {
	var doomed bool
	view(ctx, func(st *state) { doomed = st.isRollbackOnly() })
	return doomed
}

// CurrentID returns the id of the active physical transaction, or "".
func CurrentID(ctx context.Context) string {
	var id string
	view(ctx, func(st *state) { id = st.id })
	return id
}

// CurrentSession returns the physical session of the active transaction.
// Storage adapters use it to run statements inside that transaction.
func CurrentSession(ctx context.Context) (Session, bool) {
	var session Session
	ok := view(ctx, func(st *state) { session = st.session })
	return session, ok
}
