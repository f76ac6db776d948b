package support

import (
	"context"

	"staybook/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit of work already in ctx or opens a read-only
// one. The returned cleanup is nil when the unit was borrowed.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, managed, err := begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil || !managed {
		return unit, execCtx, nil, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// BeginWriteUnit reuses the ambient unit of work or opens a new one. finish
// commits a unit opened here when the handler succeeded, rolls it back
// otherwise and settles its hooks; for a borrowed unit it only passes the
// error through.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(error) error, error) {
	unit, execCtx, managed, err := begin(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	if !managed {
		return unit, execCtx, func(handlerErr error) error { return handlerErr }, nil
	}
	execCtx, hooks := uow.ContextWithHooks(execCtx)
	finish := func(handlerErr error) error {
		if handlerErr != nil {
			_ = unit.Rollback(execCtx)
			hooks.Settle(execCtx, false)
			return handlerErr
		}
		if err := unit.Commit(execCtx); err != nil {
			_ = unit.Rollback(execCtx)
			hooks.Settle(execCtx, false)
			return err
		}
		hooks.Settle(execCtx, true)
		return nil
	}
	return unit, execCtx, finish, nil
}

func begin(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, false, nil
	}
	if factory == nil {
		return nil, ctx, false, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, false, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, uow.ContextWithUnitOfWork(execCtx, unit), true, nil
}
