package memory

import (
	"context"
	"errors"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

var (
	// ErrFactoryMisconfigured indicates a factory without a store.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrReadOnlyUnit         = errors.New("memory: write in read-only unit of work")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
)

// Factory opens units of work over a Store. Write units are serialized, which
// gives them the isolation a Mongo transaction gives in production.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	if !opts.ReadOnly {
		f.Store.writer.Lock()
	}
	return &Unit{
		store:        f.Store,
		readOnly:     opts.ReadOnly,
		properties:   make(map[inventory.PropertyID]*inventory.Property),
		rates:        make(map[specialrates.ID]*specialrates.SpecialRate),
		deletedRates: make(map[specialrates.ID]struct{}),
		bookings:     make(map[domainbooking.BookingID]*domainbooking.Booking),
	}, nil
}

// Unit stages writes until Commit. It is not safe for concurrent use.
type Unit struct {
	store        *Store
	readOnly     bool
	done         bool
	properties   map[inventory.PropertyID]*inventory.Property
	rates        map[specialrates.ID]*specialrates.SpecialRate
	deletedRates map[specialrates.ID]struct{}
	bookings     map[domainbooking.BookingID]*domainbooking.Booking
}

func (u *Unit) Properties() inventory.Repository {
	return PropertyRepository{unit: u}
}

func (u *Unit) SpecialRates() specialrates.Repository {
	return SpecialRateRepository{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return BookingRepository{unit: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	defer u.store.writer.Unlock()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range u.properties {
		s.properties[id] = p
	}
	for id, r := range u.rates {
		s.rates[id] = r
	}
	for id := range u.deletedRates {
		delete(s.rates, id)
	}
	for id, b := range u.bookings {
		s.bookings[id] = b
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if !u.readOnly {
		u.store.writer.Unlock()
	}
	return nil
}

func (u *Unit) writable() error {
	switch {
	case u.done:
		return ErrUnitClosed
	case u.readOnly:
		return ErrReadOnlyUnit
	}
	return nil
}

var _ uow.UoWFactory = Factory{}
