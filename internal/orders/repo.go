package orders

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/nikmy/txprop/internal/session/sqlsession"
	"github.com/nikmy/txprop/pkg/errors"
)

type Repo interface {
	Save(ctx context.Context, o *Order) error
	UpdatePayStatus(ctx context.Context, id int64, status PayStatus) error
	Find(ctx context.Context, id int64) (Order, bool, error)
}

func NewRepo(db *sqlx.DB) Repo {
	return &sqlRepo{db: db}
}

type sqlRepo struct {
	db *sqlx.DB
}

func (r *sqlRepo) Save(ctx context.Context, o *Order) error {
	if o.PayStatus == "" {
		o.PayStatus = StatusNew
	}

	row := sqlsession.Querier(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO orders (username, pay_status) VALUES ($1, $2) RETURNING id`,
		o.Username, o.PayStatus,
	)
	return errors.WrapFail(row.Scan(&o.ID), "insert order")
}

func (r *sqlRepo) UpdatePayStatus(ctx context.Context, id int64, status PayStatus) error {
	_, err := sqlsession.Querier(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET pay_status = $1 WHERE id = $2`,
		status, id,
	)
	return errors.WrapFailf(err, "update pay status of order %d", id)
}

func (r *sqlRepo) Find(ctx context.Context, id int64) (Order, bool, error) {
	var o Order
	err := sqlx.GetContext(ctx, sqlsession.Querier(ctx, r.db), &o,
		`SELECT id, username, pay_status FROM orders WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, errors.WrapFailf(err, "find order %d", id)
	}
	return o, true, nil
}
