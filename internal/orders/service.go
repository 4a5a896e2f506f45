package orders

import (
	"context"

	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

// Journal records what happened to an order. It runs after the order
// transaction is resolved and never affects its outcome.
type Journal interface {
	Record(ctx context.Context, o Order, result string) error
}

type Option func(s *Service)

func WithJournal(j Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

func NewService(log logger.Logger, c *txn.Coordinator, repo Repo, opts ...Option) *Service {
	s := &Service{
		log:   log.With("orders"),
		coord: c,
		repo:  repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Service struct {
	log     logger.Logger
	coord   *txn.Coordinator
	repo    Repo
	journal Journal
}

// Order saves o and runs the payment.
//
// A payment system failure rolls everything back. Not enough money
// is an expected outcome: unless the policy rolls payment errors back,
// the order is kept as pending and ErrNotEnoughMoney is returned after
// the commit. If the order transaction is rolled back, o.ID is reset.
func (s *Service) Order(ctx context.Context, o *Order) error {
	joined := txn.IsTransactionActive(ctx)

	var outcome txn.Outcome
	err := s.order(ctx, o, &outcome)
	s.record(ctx, *o, joined, outcome)

	if !joined && outcome == txn.Rollback {
		o.ID = 0
	}
	return err
}

func (s *Service) order(ctx context.Context, o *Order, outcome *txn.Outcome) error {
	return txn.Run(ctx, s.coord, txn.Required("orders.Order"), func(ctx context.Context) error {
		s.log.Infof("saving order of %s", o.Username)
		err := s.repo.Save(ctx, o)
		if err != nil {
			return err
		}

		switch o.Username {
		case UserSystemError:
			s.log.Infof("payment system failure for order %d", o.ID)
			return errors.WrapFailf(ErrPaymentSystem, "pay order %d", o.ID)
		case UserNotEnoughMoney:
			s.log.Infof("not enough money for order %d, leaving it pending", o.ID)
			if err := s.setStatus(ctx, o, StatusPending); err != nil {
				return err
			}
			return ErrNotEnoughMoney
		default:
			return s.setStatus(ctx, o, StatusCompleted)
		}
	}, txn.ReportOutcome(outcome))
}

func (s *Service) Get(ctx context.Context, id int64) (Order, bool, error) {
	var (
		o     Order
		found bool
	)
	err := txn.Run(ctx, s.coord, txn.ReadOnly("orders.Get"), func(ctx context.Context) error {
		var err error
		o, found, err = s.repo.Find(ctx, id)
		return err
	})
	return o, found, err
}

func (s *Service) setStatus(ctx context.Context, o *Order, status PayStatus) error {
	err := s.repo.UpdatePayStatus(ctx, o.ID, status)
	if err != nil {
		return err
	}
	o.PayStatus = status
	return nil
}

func (s *Service) record(ctx context.Context, o Order, joined bool, outcome txn.Outcome) {
	if s.journal == nil {
		return
	}

	var result string
	switch {
	case joined:
		result = "participated"
	case outcome == txn.Commit:
		result = "committed"
	default:
		result = "rolled_back"
	}

	recordErr := s.journal.Record(ctx, o, result)
	if recordErr != nil {
		s.log.Warn(errors.WrapFailf(recordErr, "record order %d", o.ID))
	}
}
