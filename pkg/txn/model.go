package txn

import "context"

//go:generate mockgen -source model.go -destination model_mock_test.go -package txn

// SessionFactory opens physical transactions on the underlying resource.
// Begin fails with ErrResourceUnavailable or ErrResourceTimeout.
type SessionFactory interface {
	Begin(ctx context.Context, opts Options) (Session, error)
}

// Session is one physical transaction. The coordinator calls
// at most one of Commit and Rollback on it.
type Session interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SavepointSession is implemented by sessions that can
// host PropagationNested participants.
type SavepointSession interface {
	Session

	CreateSavepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
}

type Options struct {
	ReadOnly  bool
	Isolation IsolationLevel
}

type IsolationLevel int

const (
	// LevelDefault leaves the choice to the resource.
	LevelDefault IsolationLevel = iota
	ReadUncommitted
	ReadCommitted
	SnapshotIsolation
	Serializable
)

type Propagation int

const (
	// PropagationRequired joins the active transaction
	// or starts a new one if there is none.
	PropagationRequired Propagation = iota

	// PropagationMandatory joins the active transaction
	// and fails with ErrNoActiveTransaction otherwise.
	PropagationMandatory

	// PropagationNested runs inside a savepoint of the
	// active transaction, so its rollback does not doom
	// the outer one. Starts a new transaction if there
	// is none.
	PropagationNested
)

func (p Propagation) String() string {
	switch p {
	case PropagationRequired:
		return "REQUIRED"
	case PropagationMandatory:
		return "MANDATORY"
	case PropagationNested:
		return "NESTED"
	default:
		return "UNKNOWN"
	}
}

// Definition is what a unit of work declares about itself.
type Definition struct {
	Propagation Propagation
	ReadOnly    bool
	Name        string
}

func Required(name string) Definition {
	return Definition{Propagation: PropagationRequired, Name: name}
}

func ReadOnly(name string) Definition {
	return Definition{Propagation: PropagationRequired, ReadOnly: true, Name: name}
}

type Outcome int

const (
	Commit Outcome = iota
	Rollback
)

func (o Outcome) String() string {
	if o == Rollback {
		return "rollback"
	}
	return "commit"
}
