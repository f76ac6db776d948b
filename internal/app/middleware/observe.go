package middleware

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
)

// Observer receives the outcome of every bus message.
type Observer interface {
	Observe(kind, key string, elapsed time.Duration, err error)
}

// Observe logs and reports commands passing through the bus.
func Observe(logger *slog.Logger, obs Observer) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			report(ctx, logger, obs, "command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func ObserveQueries(logger *slog.Logger, obs Observer) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			report(ctx, logger, obs, "query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func report(ctx context.Context, logger *slog.Logger, obs Observer, kind, key string, elapsed time.Duration, err error) {
	if obs != nil {
		obs.Observe(kind, key, elapsed, err)
	}
	if logger == nil {
		return
	}
	if err != nil {
		logger.WarnContext(ctx, kind+" failed", "key", key, "duration", elapsed, "error", err)
		return
	}
	logger.DebugContext(ctx, kind+" handled", "key", key, "duration", elapsed)
}
