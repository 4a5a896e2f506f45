package api

import (
	"context"

	"github.com/nikmy/txprop/internal/orders"
)

//go:generate mockgen -source interfaces.go -destination interfaces_mock_test.go -package api

type Server interface {
	Serve(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type OrderService interface {
	Order(ctx context.Context, o *orders.Order) error
	Get(ctx context.Context, id int64) (orders.Order, bool, error)
}

type MemberService interface {
	JoinSeparately(ctx context.Context, username string) error
	JoinV1(ctx context.Context, username string) error
	JoinV2(ctx context.Context, username string) error
	JoinV3(ctx context.Context, username string) error
}
