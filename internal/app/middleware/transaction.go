package middleware

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
)

// TxOptionsProvider picks transaction options per command.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs every command inside a unit of work and commits only when the
// handler succeeds. Handlers find the unit through uow.FromContext; callbacks
// registered with uow.AfterCommit or uow.AfterRollback run once it is settled.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := ctx
			if injector, ok := unit.(interface {
				InjectContext(context.Context) context.Context
			}); ok {
				execCtx = injector.InjectContext(ctx)
			}
			execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
			execCtx, hooks := uow.ContextWithHooks(execCtx)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
				hooks.Settle(execCtx, committed)
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
