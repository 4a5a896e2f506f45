package txn

import (
	"context"

	"github.com/nikmy/txprop/pkg/errors"
)

type RunOption func(cfg *runConfig)

type runConfig struct {
	policy   Policy
	reported *Outcome
}

// RunPolicy overrides the coordinator's policy for one call site.
func RunPolicy(p Policy) RunOption {
	return func(cfg *runConfig) {
		cfg.policy = p
	}
}

// ReportOutcome makes Run store into dst what happened to the
// transaction. Commit means the resolution succeeded; anything that
// ended without a successful commit, including a failed begin, is
// reported as Rollback. For a participant the outcome is the one it
// requested, the physical result is decided by the outermost caller.
func ReportOutcome(dst *Outcome) RunOption {
	return func(cfg *runConfig) {
		cfg.reported = dst
	}
}

// Run executes fn inside a transaction declared by def.
//
// The outcome is picked by the policy from fn's error. fn's error is
// returned as is; errors of the resolution are joined to it. A panic in
// fn rolls the logical transaction back and is re-raised.
func Run(ctx context.Context, c *Coordinator, def Definition, fn func(ctx context.Context) error, opts ...RunOption) error {
	if fn == nil {
		panic("txn: transaction body must not be nil")
	}

	cfg := runConfig{policy: c.policy}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.report(Rollback)

	txCtx, h, err := c.Begin(ctx, def)
	if err != nil {
		return errors.WrapFailf(err, "begin transaction [%s]", def.Name)
	}

	panicked := true
	defer func() {
		if !panicked {
			return
		}
		err := c.Resolve(context.WithoutCancel(txCtx), h, Rollback)
		c.log.Error(errors.WrapFailf(err, "roll back [%s] after panic", def.Name))
	}()

	fnErr := fn(txCtx)
	panicked = false

	outcome := cfg.policy.Outcome(fnErr)
	resolveCtx := txCtx
	if outcome == Rollback {
		resolveCtx = context.WithoutCancel(txCtx)
	}

	if fnErr != nil {
		c.log.Debugf("Unit of work [%s] returned %q, resolving as %s", def.Name, fnErr, outcome)
	}

	resolveErr := c.Resolve(resolveCtx, h, outcome)
	if resolveErr == nil {
		cfg.report(outcome)
	}

	switch {
	case resolveErr == nil:
		return fnErr
	case fnErr == nil:
		return resolveErr
	default:
		return errors.Join(fnErr, resolveErr)
	}
}

func (cfg *runConfig) report(o Outcome) {
	if cfg.reported != nil {
		*cfg.reported = o
	}
}
