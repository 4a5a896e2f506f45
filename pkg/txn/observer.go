package txn

//go:generate mockgen -source observer.go -destination observer_mock_test.go -package txn

type RollbackReason string

const (
	ReasonRequested    RollbackReason = "requested"
	ReasonRollbackOnly RollbackReason = "rollback_only"
	ReasonUnresolved   RollbackReason = "unresolved_participants"
)

// Observer is notified about physical and logical transaction events.
// Calls happen synchronously on the caller's goroutine. OnCommit and
// OnRollback fire after every physical attempt, err is its result.
type Observer interface {
	OnBegin(id string, newTx bool)
	OnCommit(id string, err error)
	OnRollback(id string, reason RollbackReason, err error)
	OnMarkRollbackOnly(id string)
}

type nopObserver struct{}

func (nopObserver) OnBegin(string, bool) {}
func (nopObserver) OnCommit(string, error) {}
func (nopObserver) OnRollback(string, RollbackReason, error) {}
func (nopObserver) OnMarkRollbackOnly(string) {}
