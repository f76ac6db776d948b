package uow

import (
	"context"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() inventory.Repository
	SpecialRates() specialrates.Repository
	Bookings() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
