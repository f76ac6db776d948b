package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrPaymentHoldRequired = errors.New("booking: payment hold required before confirmation")
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrQuoteRejected       = errors.New("booking: stay cannot be booked with the selected rooms")
	ErrGuestRequired       = errors.New("booking: guest id required")
	ErrRoomsRequired       = errors.New("booking: at least one room must be reserved")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateConfirmed BookingState = "CONFIRMED"
	StateCancelled BookingState = "CANCELLED"
)

// ReservedRooms are the physical rooms of one room type held by a booking.
type ReservedRooms struct {
	RoomTypeID inventory.RoomTypeID
	RoomIDs    []inventory.RoomID
	MealPlanID string
}

type Booking struct {
	ID             BookingID
	PropertyID     inventory.PropertyID
	GuestID        string
	Range          daterange.DateRange
	Party          Party
	Rooms          []ReservedRooms
	Totals         Totals
	SpecialRateIDs []string
	State          BookingState
	PaymentHold    string
	Policy         CancellationPolicySnapshot
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*Booking, error)
}

type CreateParams struct {
	ID             BookingID
	PropertyID     inventory.PropertyID
	GuestID        string
	Range          daterange.DateRange
	Party          Party
	Rooms          []ReservedRooms
	Quote          Quote
	SpecialRateIDs []string
	Policy         CancellationPolicySnapshot
	CreatedAt      time.Time
}

// NewBooking turns an accepted quote into a pending booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if err := params.Party.Validate(); err != nil {
		return nil, err
	}
	if len(params.Rooms) == 0 {
		return nil, ErrRoomsRequired
	}
	if !params.Quote.OK {
		return nil, ErrQuoteRejected
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:             params.ID,
		PropertyID:     params.PropertyID,
		GuestID:        params.GuestID,
		Range:          params.Range,
		Party:          params.Party,
		Rooms:          cloneRooms(params.Rooms),
		Totals:         params.Quote.Totals,
		SpecialRateIDs: append([]string(nil), params.SpecialRateIDs...),
		Policy:         params.Policy,
		State:          StatePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Record(BookingRequested{
		BookingID:      b.ID,
		PropertyID:     b.PropertyID,
		GuestID:        b.GuestID,
		Range:          b.Range,
		Guests:         b.Party.Headcount(),
		Total:          b.Total(),
		SpecialRateIDs: b.SpecialRateIDs,
		At:             now,
	})
	return b, nil
}

// Total is the amount charged for the stay including meals.
func (b *Booking) Total() money.Money {
	return b.Totals.GrandTotalWithMeals
}

// Confirm attaches the payment hold and confirms a pending booking.
func (b *Booking) Confirm(paymentHoldID string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	if b.Total().Amount > 0 && paymentHoldID == "" {
		return ErrPaymentHoldRequired
	}
	b.PaymentHold = paymentHoldID
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, Total: b.Total(), At: b.UpdatedAt})
	return nil
}

// Cancel applies the cancellation policy and returns refund and penalty.
func (b *Booking) Cancel(reason string, now time.Time) (money.Money, money.Money, error) {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return money.Money{}, money.Money{}, ErrInvalidState
	}
	refund, penalty, err := b.Policy.CalculateRefund(b.Total(), now, b.Range.CheckIn)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{
		BookingID:      b.ID,
		PropertyID:     b.PropertyID,
		Range:          b.Range,
		SpecialRateIDs: b.SpecialRateIDs,
		Refund:         refund,
		Penalty:        penalty,
		Reason:         reason,
		At:             b.UpdatedAt,
	})
	return refund, penalty, nil
}

func cloneRooms(in []ReservedRooms) []ReservedRooms {
	out := make([]ReservedRooms, 0, len(in))
	for _, r := range in {
		r.RoomIDs = append([]inventory.RoomID(nil), r.RoomIDs...)
		out = append(out, r)
	}
	return out
}
