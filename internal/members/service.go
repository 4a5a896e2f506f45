package members

import (
	"context"

	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

func NewService(log logger.Logger, c *txn.Coordinator, members *MemberRepo, logs *LogRepo) *Service {
	return &Service{
		log:     log.With("members"),
		coord:   c,
		members: members,
		logs:    logs,
	}
}

// Service joins members and writes an audit log entry for each join.
// Its methods differ only in how the two writes share transactions.
type Service struct {
	log     logger.Logger
	coord   *txn.Coordinator
	members *MemberRepo
	logs    *LogRepo
}

// JoinSeparately runs both writes in their own transactions, so a log
// failure leaves the member in place.
func (s *Service) JoinSeparately(ctx context.Context, username string) error {
	err := s.members.Save(ctx, &Member{Username: username})
	if err != nil {
		return err
	}
	return s.logs.Save(ctx, joinLog(username))
}

// JoinV1 makes both writes atomic: a log failure rolls the member back.
func (s *Service) JoinV1(ctx context.Context, username string) error {
	return txn.Run(ctx, s.coord, txn.Required("members.JoinV1"), func(ctx context.Context) error {
		err := s.members.Save(ctx, &Member{Username: username})
		if err != nil {
			return err
		}
		return s.logs.Save(ctx, joinLog(username))
	})
}

// JoinV2 swallows the log failure. The log participant has already
// doomed the shared transaction, so nothing is written and the caller
// gets txn.ErrUnexpectedRollback.
func (s *Service) JoinV2(ctx context.Context, username string) error {
	return txn.Run(ctx, s.coord, txn.Required("members.JoinV2"), func(ctx context.Context) error {
		err := s.members.Save(ctx, &Member{Username: username})
		if err != nil {
			return err
		}

		err = s.logs.Save(ctx, joinLog(username))
		if err != nil {
			s.log.Warn(errors.WrapFail(err, "save join log, going on"))
		}
		return nil
	})
}

// JoinV3 writes the log under a savepoint: a log failure undoes only
// the log and the member is committed.
func (s *Service) JoinV3(ctx context.Context, username string) error {
	return txn.Run(ctx, s.coord, txn.Required("members.JoinV3"), func(ctx context.Context) error {
		err := s.members.Save(ctx, &Member{Username: username})
		if err != nil {
			return err
		}

		nested := txn.Definition{Propagation: txn.PropagationNested, Name: "members.JoinV3.log"}
		err = txn.Run(ctx, s.coord, nested, func(ctx context.Context) error {
			return s.logs.Save(ctx, joinLog(username))
		})
		if err != nil {
			s.log.Warn(errors.WrapFail(err, "save join log, rolled back to savepoint"))
		}
		return nil
	})
}

func joinLog(username string) *Log {
	return &Log{Message: username}
}
