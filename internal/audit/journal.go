package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikmy/txprop/internal/orders"
	"github.com/nikmy/txprop/internal/session/mongosession"
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

const collection = "order_events"

type Event struct {
	TxID      string           `bson:"tx_id"`
	OrderID   int64            `bson:"order_id"`
	Username  string           `bson:"username"`
	PayStatus orders.PayStatus `bson:"pay_status"`
	Result    string           `bson:"result"`
	At        time.Time        `bson:"at"`
}

type inserter interface {
	InsertOne(ctx context.Context, doc any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

func New(log logger.Logger, c *txn.Coordinator, db *mongo.Database) *Journal {
	return newJournal(log, c, db.Collection(collection))
}

func newJournal(log logger.Logger, c *txn.Coordinator, coll inserter) *Journal {
	return &Journal{
		log:   log.With("audit"),
		coord: c,
		coll:  coll,
		now:   time.Now,
	}
}

// Journal writes order events to mongo. Every record is a transaction
// of its own, detached from whatever the caller is running.
type Journal struct {
	log   logger.Logger
	coord *txn.Coordinator
	coll  inserter
	now   func() time.Time
}

func (j *Journal) Record(ctx context.Context, o orders.Order, result string) error {
	ctx = txn.Detach(ctx)
	return txn.Run(ctx, j.coord, txn.Required("audit.Record"), func(ctx context.Context) error {
		ev := Event{
			TxID:      txn.CurrentID(ctx),
			OrderID:   o.ID,
			Username:  o.Username,
			PayStatus: o.PayStatus,
			Result:    result,
			At:        j.now().UTC(),
		}

		_, err := j.coll.InsertOne(mongosession.Bind(ctx), ev)
		if err != nil {
			return errors.WrapFailf(err, "insert event of order %d", o.ID)
		}

		j.log.Debugf("order %d recorded as %s in tx %s", o.ID, result, ev.TxID)
		return nil
	})
}
