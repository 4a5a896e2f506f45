package txn

import (
	"context"

	"github.com/nikmy/txprop/pkg/errors"
)

var (
	ErrResourceUnavailable = errors.Error("resource unavailable")
	ErrResourceTimeout     = errors.Error("resource timeout")
	ErrCommitFailed        = errors.Error("commit failed")
	ErrRollbackFailed      = errors.Error("rollback failed")

	// ErrUnexpectedRollback is returned to the outermost caller that asked
	// for commit while some participant had marked the transaction rollback-only.
	ErrUnexpectedRollback = errors.Error("transaction rolled back because it has been marked as rollback-only")

	// ErrInvalidTransactionState means the caller broke the begin/resolve protocol.
	ErrInvalidTransactionState = errors.Error("invalid transaction state")

	ErrNoActiveTransaction = errors.Error("no active transaction")
	ErrNestedUnsupported   = errors.Error("session does not support savepoints")
)

// resourceErr marks err with kind and, if the resource gave up
// because of a deadline, with ErrResourceTimeout as well.
func resourceErr(err error, kind error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrResourceTimeout) {
		err = errors.Mark(err, ErrResourceTimeout)
	}
	if errors.Is(err, kind) {
		return err
	}
	return errors.Mark(err, kind)
}

func invalidState(what string) error {
	return errors.Mark(errors.Error(what), ErrInvalidTransactionState)
}
