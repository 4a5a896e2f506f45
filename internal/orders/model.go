package orders

import (
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/txn"
)

type PayStatus string

const (
	StatusNew       PayStatus = "new"
	StatusPending   PayStatus = "pending"
	StatusCompleted PayStatus = "completed"
)

// CategoryPayment covers payment outcomes the customer can fix,
// the order stays and waits for money.
const CategoryPayment txn.Category = "payment"

var (
	ErrNotEnoughMoney = txn.Business(errors.Error("not enough money"), CategoryPayment)
	ErrPaymentSystem  = errors.Error("payment system failure")
)

// Usernames that drive the payment outcome.
const (
	UserSystemError    = "system-error"
	UserNotEnoughMoney = "not-enough-money"
)

type Order struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	PayStatus PayStatus `db:"pay_status" json:"pay_status"`
}
