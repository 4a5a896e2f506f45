package api

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikmy/txprop/internal/orders"
	"github.com/nikmy/txprop/pkg/errors"
	"github.com/nikmy/txprop/pkg/logger"
	"github.com/nikmy/txprop/pkg/txn"
)

func NewServer(
	cfg Config,
	log logger.Logger,
	orderService OrderService,
	memberService MemberService,
	gatherer prometheus.Gatherer,
) Server {
	serveLog := log.With("api_http_server")

	fiberCfg := fiber.Config{
		ReadTimeout:             cfg.HTTP.ReadTimeout,
		WriteTimeout:            cfg.HTTP.WriteTimeout,
		IdleTimeout:             cfg.HTTP.IdleTimeout,
		DisableStartupMessage:   true,
		EnableTrustedProxyCheck: len(cfg.Proxy.Trusted) > 0,
		ProxyHeader:             cfg.Proxy.Header,
		TrustedProxies:          cfg.Proxy.Trusted,
		RequestMethods:          []string{fiber.MethodGet, fiber.MethodPost},
	}

	fiberCfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return sendError(c, fiberErr.Code, fiberErr.Message)
		}

		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			serveLog.Error(errors.WrapFail(err, "handle http request"))
		} else {
			serveLog.Warn(errors.WrapFail(err, "handle http request"))
		}
		return sendError(c, status, err.Error())
	}

	s := &server{
		orders:   orderService,
		members:  memberService,
		gatherer: gatherer,
		http:     fiber.New(fiberCfg),
		addr:     cfg.addr(),
		log:      serveLog,
	}

	s.setupRoutes()

	return s
}

type server struct {
	orders   OrderService
	members  MemberService
	gatherer prometheus.Gatherer
	http     *fiber.App
	addr     string
	log      logger.Logger
}

func (s *server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Listen(s.addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return errors.Error("serve context done")
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return errors.WrapFail(s.http.ShutdownWithContext(ctx), "shutdown http server")
}

func (s *server) setupRoutes() {
	s.http.Get("/healthz", s.handleHealth)
	s.http.Post("/orders", s.handleNewOrder)
	s.http.Get("/orders/:id", s.handleGetOrder)
	s.http.Post("/members", s.handleJoin)

	if s.gatherer != nil {
		s.http.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *server) handleHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(map[string]string{"status": "OK"})
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (s *server) handleNewOrder(c *fiber.Ctx) error {
	req, err := s.parseUsername(c)
	if err != nil {
		return err
	}

	o := &orders.Order{Username: req.Username}
	err = s.orders.Order(c.UserContext(), o)
	if txn.IsBusiness(err) {
		payload := map[string]any{
			"status":  "ERROR",
			"message": err.Error(),
		}
		if o.ID != 0 {
			payload["order"] = o
		}
		return c.Status(statusOf(err)).JSON(payload)
	}
	if err != nil {
		return errors.WrapFailf(err, "create order for %s", req.Username)
	}

	return c.Status(http.StatusCreated).JSON(o)
}

func (s *server) handleGetOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "malformed order id")
	}

	o, found, err := s.orders.Get(c.UserContext(), int64(id))
	if err != nil {
		return errors.WrapFailf(err, "get order %d", id)
	}
	if !found {
		return fiber.NewError(http.StatusNotFound, "order not found")
	}

	return c.Status(http.StatusOK).JSON(o)
}

func (s *server) handleJoin(c *fiber.Ctx) error {
	var join func(ctx context.Context, username string) error
	switch c.Query("version", "1") {
	case "separate":
		join = s.members.JoinSeparately
	case "1":
		join = s.members.JoinV1
	case "2":
		join = s.members.JoinV2
	case "3":
		join = s.members.JoinV3
	default:
		return fiber.NewError(http.StatusBadRequest, "unknown join version")
	}

	req, err := s.parseUsername(c)
	if err != nil {
		return err
	}

	err = join(c.UserContext(), req.Username)
	if err != nil {
		return errors.WrapFailf(err, "join %s", req.Username)
	}

	return c.Status(http.StatusCreated).JSON(req)
}

func (s *server) parseUsername(c *fiber.Ctx) (usernameRequest, error) {
	var req usernameRequest
	err := c.BodyParser(&req)
	if err != nil {
		s.log.Warn(errors.WrapFail(err, "unmarshal payload"))
		return req, fiber.NewError(http.StatusBadRequest, "bad json")
	}
	if req.Username == "" {
		return req, fiber.NewError(http.StatusBadRequest, "missing required field \"username\"")
	}
	return req, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, txn.ErrUnexpectedRollback):
		return http.StatusConflict
	case txn.IsBusiness(err):
		return http.StatusPaymentRequired
	case errors.Is(err, txn.ErrResourceUnavailable), errors.Is(err, txn.ErrResourceTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(map[string]string{"status": "ERROR", "message": msg})
}
