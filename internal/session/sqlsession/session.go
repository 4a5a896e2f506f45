package sqlsession

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

func NewFactory(db *sqlx.DB, log logger.Logger) *Factory {
	return &Factory{db: db, log: log.With("sql_session")}
}

// Factory opens one *sqlx.Tx per physical transaction.
type Factory struct {
	db  *sqlx.DB
	log logger.Logger
}

func (f *Factory) Begin(ctx context.Context, opts txn.Options) (txn.Session, error) {
	tx, err := f.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation(opts.Isolation),
		ReadOnly:  opts.ReadOnly,
	})
	if err != nil {
		return nil, classify(errors.WrapFail(err, "begin sql transaction"))
	}

	return &Session{tx: tx, log: f.log}, nil
}

// Session wraps a *sqlx.Tx. It supports savepoints.
type Session struct {
	tx  *sqlx.Tx
	log logger.Logger
}

func (s *Session) Tx() *sqlx.Tx {
	return s.tx
}

func (s *Session) Commit(context.Context) error {
	return classify(s.tx.Commit())
}

func (s *Session) Rollback(context.Context) error {
	return classify(s.tx.Rollback())
}

func (s *Session) CreateSavepoint(ctx context.Context, name string) error {
	return s.exec(ctx, "SAVEPOINT "+pq.QuoteIdentifier(name))
}

func (s *Session) RollbackToSavepoint(ctx context.Context, name string) error {
	return s.exec(ctx, "ROLLBACK TO SAVEPOINT "+pq.QuoteIdentifier(name))
}

func (s *Session) ReleaseSavepoint(ctx context.Context, name string) error {
	return s.exec(ctx, "RELEASE SAVEPOINT "+pq.QuoteIdentifier(name))
}

func (s *Session) exec(ctx context.Context, stmt string) error {
	s.log.Debugf("%s", stmt)
	_, err := s.tx.ExecContext(ctx, stmt)
	return classify(err)
}

// Querier returns the transaction bound to ctx, or db if there is none.
func Querier(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if s, ok := txn.CurrentSession(ctx); ok {
		if sqlSession, ok := s.(*Session); ok {
			return sqlSession.tx
		}
	}
	return db
}

func isolation(lvl txn.IsolationLevel) sql.IsolationLevel {
	switch lvl {
	case txn.ReadUncommitted:
		return sql.LevelReadUncommitted
	case txn.ReadCommitted:
		return sql.LevelReadCommitted
	case txn.SnapshotIsolation:
		return sql.LevelRepeatableRead
	case txn.Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// postgres error classes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	classConnectionException  = "08"
	classInsufficientResource = "53"
	codeQueryCanceled         = "57014"
	codeLockNotAvailable      = "55P03"
)

func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(err, txn.ErrResourceTimeout)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return errors.Mark(err, txn.ErrResourceUnavailable)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch {
	case pqErr.Code == codeQueryCanceled, pqErr.Code == codeLockNotAvailable:
		return errors.Mark(err, txn.ErrResourceTimeout)
	case pqErr.Code.Class() == classConnectionException, pqErr.Code.Class() == classInsufficientResource:
		return errors.Mark(err, txn.ErrResourceUnavailable)
	}
	return err
}
