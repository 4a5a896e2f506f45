package mongosession

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

type Config struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`

	Database string `yaml:"database"`

	Auth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`

	Pool struct {
		MinSize uint64 `yaml:"minSize"`
		MaxSize uint64 `yaml:"maxSize"`
	} `yaml:"pool"`
}

func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetMinPoolSize(cfg.Pool.MinSize)

	if cfg.Pool.MaxSize != 0 {
		opts.SetMaxPoolSize(cfg.Pool.MaxSize)
	}
	if cfg.Auth.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, classify(errors.WrapFail(err, "connect to mongo db"))
	}
	return client, nil
}

func NewFactory(client *mongo.Client, log logger.Logger) *Factory {
	return &Factory{client: client, log: log.With("mongo_session")}
}

// Factory opens a mongo session with a running transaction per
// physical transaction. Mongo has no savepoints, so nested
// propagation is not available on top of it.
type Factory struct {
	client *mongo.Client
	log    logger.Logger
}

func (f *Factory) Begin(ctx context.Context, opts txn.Options) (txn.Session, error) {
	s, err := f.client.StartSession(options.Session())
	if err != nil {
		return nil, classify(errors.WrapFail(err, "start mongo session"))
	}

	err = s.StartTransaction(transactionOptions(opts))
	if err != nil {
		s.EndSession(ctx)
		return nil, classify(errors.WrapFail(err, "start mongo transaction"))
	}

	return &Session{s: s, log: f.log}, nil
}

type Session struct {
	s   mongo.Session
	log logger.Logger
}

// BindContext returns ctx usable for collection calls inside the transaction.
func (s *Session) BindContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.s)
}

func (s *Session) Commit(ctx context.Context) error {
	defer s.s.EndSession(ctx)
	return classify(s.s.CommitTransaction(ctx))
}

func (s *Session) Rollback(ctx context.Context) error {
	defer s.s.EndSession(ctx)
	return classify(s.s.AbortTransaction(ctx))
}

// Bind attaches the mongo session of the active transaction to ctx.
// Outside a mongo-backed transaction ctx is returned as is.
func Bind(ctx context.Context) context.Context {
	if s, ok := txn.CurrentSession(ctx); ok {
		if ms, ok := s.(*Session); ok {
			return ms.BindContext(ctx)
		}
	}
	return ctx
}

func transactionOptions(opts txn.Options) *options.TransactionOptions {
	var rc *readconcern.ReadConcern
	switch opts.Isolation {
	case txn.ReadUncommitted:
		rc = readconcern.Local()
	case txn.SnapshotIsolation, txn.Serializable:
		rc = readconcern.Snapshot()
	default:
		rc = readconcern.Majority()
	}

	return options.Transaction().
		SetReadConcern(rc).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsTimeout(err):
		return errors.Mark(err, txn.ErrResourceTimeout)
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return errors.Mark(err, txn.ErrResourceUnavailable)
	default:
		return err
	}
}
