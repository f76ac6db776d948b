package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	BookingID       string
	GuestID         string
	Stay            StayRequest
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

func (c RequestBookingCommand) Fingerprint() string {
	return c.GuestID + "|" + c.Stay.fingerprint()
}

func (c RequestBookingCommand) Validate() error {
	if c.GuestID == "" {
		return domainbooking.ErrGuestRequired
	}
	return c.Stay.validate()
}

type RequestBookingResult struct {
	Booking dto.BookingSummary `json:"booking"`
	Quote   dto.StayQuote      `json:"quote"`
}

// QuoteRejectedError carries the failed quote so callers can show why the stay
// cannot be booked.
type QuoteRejectedError struct {
	Quote dto.StayQuote
}

func (e *QuoteRejectedError) Error() string {
	if len(e.Quote.Errors) > 0 {
		return fmt.Sprintf("%s: %s", domainbooking.ErrQuoteRejected, e.Quote.Errors[0].Message)
	}
	return domainbooking.ErrQuoteRejected.Error()
}

func (e *QuoteRejectedError) Unwrap() error { return domainbooking.ErrQuoteRejected }

// CancellationTerms configure the policy snapshot attached to new bookings.
type CancellationTerms struct {
	FreeDays       int
	PenaltyPercent int
}

type RequestBookingHandler struct {
	UoWFactory   uow.UoWFactory
	Quoter       Quoter
	Payments     policies.PaymentsPort
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Cache        policies.CalendarCache
	Metrics      policies.PricingMetrics
	Logger       *slog.Logger
	Cancellation CancellationTerms
	Now          func() time.Time
}

// Handle re-quotes the stay inside the write unit, books concrete rooms, bumps
// usage of the applied special rates and confirms the booking against a
// payment hold.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (_ *RequestBookingResult, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	now := h.now()
	dr, err := cmd.Stay.dateRange()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
	}
	if err := domainbooking.ValidateStayDates(dr, now); err != nil {
		return nil, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
	}

	quote, err := h.Quoter.Quote(ctx, unit, cmd.Stay)
	if err != nil {
		return nil, err
	}
	observeQuote(h.Metrics, quote)
	if !quote.Quote.OK {
		return nil, &QuoteRejectedError{Quote: quote.DTO()}
	}

	property := quote.Property
	reserved := make([]domainbooking.ReservedRooms, 0, len(cmd.Stay.Rooms))
	for _, sel := range cmd.Stay.Rooms {
		id := inventory.RoomTypeID(sel.RoomTypeID)
		rooms, ok := property.MarkBooked(id, sel.Count, quote.Nights, now)
		if !ok {
			return nil, fmt.Errorf("%w: rooms of %s are no longer free", domainbooking.ErrQuoteRejected, id)
		}
		reserved = append(reserved, domainbooking.ReservedRooms{RoomTypeID: id, RoomIDs: rooms, MealPlanID: sel.MealPlanID})
	}

	rates := make([]*specialrates.SpecialRate, 0, len(quote.SpecialRateIDs))
	for _, id := range quote.SpecialRateIDs {
		rate, err := unit.SpecialRates().ByID(ctx, specialrates.ID(id))
		if err != nil {
			return nil, err
		}
		rate.MarkUsed(now)
		rates = append(rates, rate)
	}

	bookingID := cmd.BookingID
	if bookingID == "" {
		bookingID = uuid.NewString()
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             domainbooking.BookingID(bookingID),
		PropertyID:     property.ID,
		GuestID:        cmd.GuestID,
		Range:          dr,
		Party:          cmd.Stay.Party.Domain(),
		Rooms:          reserved,
		Quote:          quote.Quote,
		SpecialRateIDs: quote.SpecialRateIDs,
		Policy:         domainbooking.DefaultCancellationPolicy(dr.CheckIn, h.Cancellation.FreeDays, h.Cancellation.PenaltyPercent),
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	hold, err := h.placeHold(ctx, b)
	if err != nil {
		return nil, err
	}
	if hold != "" {
		release := func(ctx context.Context) { h.releaseHold(ctx, hold) }
		if !uow.AfterRollback(ctx, release) {
			defer func() {
				if err != nil {
					release(ctx)
				}
			}()
		}
	}
	if hold != "" || b.Total().IsZero() {
		if err := b.Confirm(hold, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Properties().Save(ctx, property); err != nil {
		return nil, err
	}
	sources := []outbox.EventSource{property}
	for _, rate := range rates {
		if err := unit.SpecialRates().Save(ctx, rate); err != nil {
			return nil, err
		}
		sources = append(sources, rate)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	sources = append(sources, b)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, outbox.Drain(sources...)); err != nil {
		return nil, err
	}
	invalidateCalendar(ctx, h.Cache, h.Logger, property.ID)

	h.logger().InfoContext(ctx, "booking confirmed",
		"booking_id", b.ID, "property_id", property.ID, "nights", dr.Nights(), "total", b.Total().String())
	return &RequestBookingResult{Booking: dto.MapBookingSummary(b), Quote: quote.DTO()}, nil
}

func (h *RequestBookingHandler) placeHold(ctx context.Context, b *domainbooking.Booking) (string, error) {
	if h.Payments == nil || b.Total().IsZero() {
		return "", nil
	}
	return h.Payments.PlaceHold(ctx, string(b.ID), b.Total())
}

func (h *RequestBookingHandler) releaseHold(ctx context.Context, hold string) {
	if err := h.Payments.ReleaseHold(ctx, hold); err != nil {
		h.logger().ErrorContext(ctx, "payment hold release failed", "hold_id", hold, "error", err)
	}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *RequestBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// invalidateCalendar drops the property's cached calendars once the unit in
// ctx commits.
func invalidateCalendar(ctx context.Context, cache policies.CalendarCache, logger *slog.Logger, propertyID inventory.PropertyID) {
	if cache == nil {
		return
	}
	uow.AfterCommit(ctx, func(ctx context.Context) {
		if err := cache.InvalidateProperty(ctx, string(propertyID)); err != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.WarnContext(ctx, "calendar cache invalidation failed", "property_id", propertyID, "error", err)
		}
	})
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
