package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nikmy/txprop/internal/api"
	"github.com/nikmy/txprop/internal/audit"
	"github.com/nikmy/txprop/internal/members"
	"github.com/nikmy/txprop/internal/metrics"
	"github.com/nikmy/txprop/internal/orders"
	"github.com/nikmy/txprop/internal/session/mongosession"
	"github.com/nikmy/txprop/internal/session/sqlsession"
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "load config"))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "init logger"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	defer cancel()

	db, err := sqlsession.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Panic(errors.WrapFail(err, "open postgres"))
	}
	defer db.Close()

	observer := metrics.New()
	coord := txn.NewCoordinator(
		log,
		sqlsession.NewFactory(db, log),
		txn.WithObserver(observer),
		txn.WithIsolation(cfg.Txn.Isolation),
		txn.WithPolicy(cfg.Txn.Policy),
	)

	var orderOpts []orders.Option
	if cfg.Mongo.URL != "" {
		client, err := mongosession.Connect(ctx, cfg.Mongo)
		if err != nil {
			log.Panic(errors.WrapFail(err, "connect to mongo"))
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		auditCoord := txn.NewCoordinator(log, mongosession.NewFactory(client, log), txn.WithObserver(observer))
		orderOpts = append(orderOpts, orders.WithJournal(audit.New(log, auditCoord, client.Database(cfg.Mongo.Database))))
		log.Infof("order events go to mongo database %q", cfg.Mongo.Database)
	}

	orderService := orders.NewService(log, coord, orders.NewRepo(db), orderOpts...)
	memberService := members.NewService(
		log,
		coord,
		members.NewMemberRepo(log, coord, db),
		members.NewLogRepo(log, coord, db),
	)

	server := api.NewServer(cfg.HTTP, log, orderService, memberService, prometheus.DefaultGatherer)

	stopped := make(chan struct{})
	context.AfterFunc(ctx, func() {
		defer close(stopped)
		stdlog.Println("Graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Error(err)
		}
	})

	stdlog.Println("Server is starting")
	err = server.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		log.Panic(errors.WrapFail(err, "serve http"))
	}

	<-stopped
	stdlog.Println("Shutdown complete")
}
