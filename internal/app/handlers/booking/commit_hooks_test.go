package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/availability"
	"staybook/internal/app/middleware"
	"staybook/internal/app/uow"
	"staybook/internal/infra/storage/memory"
)

var errCommitConflict = errors.New("commit conflict")

// hookedFactory opens memory units whose Commit first runs beforeCommit and
// then fails with commitErr when it is set.
type hookedFactory struct {
	memory.Factory
	beforeCommit func()
	commitErr    error
}

func (f hookedFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.Factory.Begin(ctx, opts)
	if err != nil || opts.ReadOnly {
		return unit, err
	}
	return &hookedUnit{UnitOfWork: unit, factory: f}, nil
}

type hookedUnit struct {
	uow.UnitOfWork
	factory hookedFactory
}

func (u *hookedUnit) Commit(ctx context.Context) error {
	if u.factory.beforeCommit != nil {
		u.factory.beforeCommit()
	}
	if u.factory.commitErr != nil {
		return u.factory.commitErr
	}
	return u.UnitOfWork.Commit(ctx)
}

func TestRequestBookingReleasesHoldWhenCommitFails(t *testing.T) {
	e := newEnv(t)
	h := e.requestHandler()
	h.UoWFactory = hookedFactory{Factory: e.factory, commitErr: errCommitConflict}

	_, err := h.Handle(context.Background(), RequestBookingCommand{GuestID: "guest-1", Stay: twoNights(1)})
	assert.ErrorIs(t, err, errCommitConflict)
	assert.Equal(t, 0, e.payments.ActiveHolds())

	rt, _ := e.property(t).RoomType("std")
	require.Len(t, rt.Rooms, 2)
	assert.Empty(t, rt.Rooms[0].Availability)
}

func TestRequestBookingReleasesHoldWhenTransactionCommitFails(t *testing.T) {
	e := newEnv(t)
	h := e.requestHandler()
	h.UoWFactory = nil
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[RequestBookingCommand, *RequestBookingResult](bus, h)
	chain := middleware.ChainCommands(bus, middleware.Transaction(hookedFactory{Factory: e.factory, commitErr: errCommitConflict}, nil))

	_, err := commands.Dispatch[RequestBookingCommand, *RequestBookingResult](context.Background(), chain, RequestBookingCommand{GuestID: "guest-1", Stay: twoNights(1)})
	assert.ErrorIs(t, err, errCommitConflict)
	assert.Equal(t, 0, e.payments.ActiveHolds())
}

func TestRequestBookingKeepsHoldAfterCommit(t *testing.T) {
	e := newEnv(t)
	_, err := e.requestHandler().Handle(context.Background(), RequestBookingCommand{GuestID: "guest-1", Stay: twoNights(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, e.payments.ActiveHolds())
}

func TestCalendarReadDuringCommitIsNotServedAfterwards(t *testing.T) {
	e := newEnv(t)
	calendar := &availability.GetPricedCalendarHandler{UoWFactory: e.factory, Cache: e.cache}
	q := availability.GetPricedCalendarQuery{PropertyID: "prop-1", From: "2026-11-01", To: "2026-11-02"}

	h := e.requestHandler()
	h.UoWFactory = hookedFactory{Factory: e.factory, beforeCommit: func() {
		cal, err := calendar.Handle(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 2, cal.Days[0].RoomType[0].AvailableRooms)
	}}
	_, err := h.Handle(context.Background(), RequestBookingCommand{GuestID: "guest-1", Stay: twoNights(1)})
	require.NoError(t, err)

	cal, err := calendar.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, cal.Days[0].RoomType[0].AvailableRooms)
	assert.Equal(t, 1, cal.Days[1].RoomType[0].AvailableRooms)
}

func TestQuoteStayRepeatedRoomType(t *testing.T) {
	e := newEnv(t)
	h := &QuoteStayHandler{UoWFactory: e.factory}
	stay := twoNights(1)
	stay.Party.Adults = 4
	stay.Rooms = []RoomRequest{{RoomTypeID: "std", Count: 1}, {RoomTypeID: "std", Count: 1}}

	quote, err := h.Handle(context.Background(), QuoteStayQuery{Stay: stay})
	require.NoError(t, err)
	assert.True(t, quote.OK, quote.Errors)
	assert.Equal(t, "7200.00", quote.Totals.GrandTotalWithMeals.String())
	assert.Len(t, quote.SpecialRates, 2)

	stay.Rooms[1].Count = 2
	quote, err = h.Handle(context.Background(), QuoteStayQuery{Stay: stay})
	require.NoError(t, err)
	assert.False(t, quote.OK)
	var codes []string
	for _, issue := range quote.Errors {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, "rooms_unavailable")
}

func TestRequestBookingRepeatedRoomTypeBooksDistinctRooms(t *testing.T) {
	e := newEnv(t)
	stay := twoNights(1)
	stay.Rooms = []RoomRequest{{RoomTypeID: "std", Count: 1}, {RoomTypeID: "std", Count: 1}}

	res, err := e.requestHandler().Handle(context.Background(), RequestBookingCommand{GuestID: "guest-1", Stay: stay})
	require.NoError(t, err)
	require.Len(t, res.Booking.Rooms, 2)
	assert.NotEqual(t, res.Booking.Rooms[0].RoomIDs, res.Booking.Rooms[1].RoomIDs)
}
