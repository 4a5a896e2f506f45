package members

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nikmy/txprop/internal/session/sqlsession"
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

func NewMemberRepo(log logger.Logger, c *txn.Coordinator, db *sqlx.DB) *MemberRepo {
	return &MemberRepo{log: log.With("member_repo"), coord: c, db: db}
}

// MemberRepo saves members, joining the caller's transaction if there is one.
type MemberRepo struct {
	log   logger.Logger
	coord *txn.Coordinator
	db    *sqlx.DB
}

func (r *MemberRepo) Save(ctx context.Context, m *Member) error {
	return txn.Run(ctx, r.coord, txn.Required("members.MemberRepo.Save"), func(ctx context.Context) error {
		r.log.Infof("saving member %s, tx id = %s", m.Username, txn.CurrentID(ctx))
		row := sqlsession.Querier(ctx, r.db).QueryRowxContext(ctx,
			`INSERT INTO member (username) VALUES ($1) RETURNING id`,
			m.Username,
		)
		return errors.WrapFailf(row.Scan(&m.ID), "insert member %s", m.Username)
	})
}

func (r *MemberRepo) Find(ctx context.Context, username string) ([]Member, error) {
	var found []Member
	err := txn.Run(ctx, r.coord, txn.ReadOnly("members.MemberRepo.Find"), func(ctx context.Context) error {
		return sqlx.SelectContext(ctx, sqlsession.Querier(ctx, r.db), &found,
			`SELECT id, username FROM member WHERE username = $1`,
			username,
		)
	})
	return found, errors.WrapFailf(err, "find member %s", username)
}

func NewLogRepo(log logger.Logger, c *txn.Coordinator, db *sqlx.DB) *LogRepo {
	return &LogRepo{log: log.With("log_repo"), coord: c, db: db}
}

// LogRepo saves audit entries. Messages containing LogFailMarker
// are inserted and then fail with ErrLogFailed.
type LogRepo struct {
	log   logger.Logger
	coord *txn.Coordinator
	db    *sqlx.DB
}

func (r *LogRepo) Save(ctx context.Context, l *Log) error {
	return txn.Run(ctx, r.coord, txn.Required("members.LogRepo.Save"), func(ctx context.Context) error {
		r.log.Infof("saving log %q, tx id = %s", l.Message, txn.CurrentID(ctx))
		row := sqlsession.Querier(ctx, r.db).QueryRowxContext(ctx,
			`INSERT INTO log (message) VALUES ($1) RETURNING id`,
			l.Message,
		)
		if err := row.Scan(&l.ID); err != nil {
			return errors.WrapFail(err, "insert log")
		}

		if strings.Contains(l.Message, LogFailMarker) {
			r.log.Infof("log %d is going to fail", l.ID)
			return ErrLogFailed
		}
		return nil
	})
}
