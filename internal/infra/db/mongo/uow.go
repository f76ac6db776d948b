package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	PropertiesRepo   inventory.Repository
	SpecialRatesRepo specialrates.Repository
	BookingsRepo     domainbooking.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds the repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		PropertiesRepo:   NewPropertyRepository(db),
		SpecialRatesRepo: NewSpecialRateRepository(db),
		BookingsRepo:     NewBookingRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units read from the
// primary with snapshot isolation.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadPreference(readpref.Primary())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		properties:   f.PropertiesRepo,
		specialRates: f.SpecialRatesRepo,
		bookings:     f.BookingsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	properties   inventory.Repository
	specialRates specialrates.Repository
	bookings     domainbooking.Repository
}

func (u *Unit) Properties() inventory.Repository {
	return u.properties
}

func (u *Unit) SpecialRates() specialrates.Repository {
	return u.specialRates
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
