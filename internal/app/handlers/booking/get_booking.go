package booking

import (
	"context"
	"sort"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
)

const (
	getBookingKey           = "booking.get"
	listPropertyBookingsKey = "booking.list_by_property"
)

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingSummary, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingSummary{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingSummary{}, err
	}
	return dto.MapBookingSummary(b), nil
}

type ListPropertyBookingsQuery struct {
	PropertyID string
}

func (q ListPropertyBookingsQuery) Key() string { return listPropertyBookingsKey }

type BookingCollection struct {
	Items []dto.BookingSummary `json:"items"`
}

type ListPropertyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle lists a property's bookings by check-in, newest stays last.
func (h *ListPropertyBookingsHandler) Handle(ctx context.Context, q ListPropertyBookingsQuery) (BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	propertyID := inventory.PropertyID(q.PropertyID)
	if _, err := unit.Properties().Property(ctx, propertyID); err != nil {
		return BookingCollection{}, err
	}
	bookings, err := unit.Bookings().ListByProperty(ctx, propertyID)
	if err != nil {
		return BookingCollection{}, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].Range.CheckIn.Before(bookings[j].Range.CheckIn)
	})
	out := BookingCollection{Items: make([]dto.BookingSummary, 0, len(bookings))}
	for _, b := range bookings {
		out.Items = append(out.Items, dto.MapBookingSummary(b))
	}
	return out, nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingSummary] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListPropertyBookingsQuery, BookingCollection] = (*ListPropertyBookingsHandler)(nil)
