package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/specialrates"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Cache      policies.CalendarCache
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle cancels the booking, frees its rooms, releases usage of the special
// rates it was priced with and drops the payment hold once the cancellation
// is committed.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (_ *dto.CancellationResult, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	refund, penalty, err := b.Cancel(cmd.Reason, now)
	if err != nil {
		return nil, err
	}

	property, err := unit.Properties().Property(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	nights := b.Range.NightSpan()
	for _, r := range b.Rooms {
		property.Release(r.RoomTypeID, r.RoomIDs, nights, now)
	}
	if err := unit.Properties().Save(ctx, property); err != nil {
		return nil, err
	}
	sources := []outbox.EventSource{property}
	for _, id := range b.SpecialRateIDs {
		rate, err := unit.SpecialRates().ByID(ctx, specialrates.ID(id))
		if err != nil {
			h.logger().WarnContext(ctx, "special rate of cancelled booking not found", "booking_id", b.ID, "special_rate_id", id, "error", err)
			continue
		}
		rate.MarkReleased(now)
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
	if hold := b.PaymentHold; hold != "" && h.Payments != nil {
		uow.AfterCommit(ctx, func(ctx context.Context) {
			if err := h.Payments.ReleaseHold(ctx, hold); err != nil {
				h.logger().ErrorContext(ctx, "payment hold release failed", "booking_id", b.ID, "hold_id", hold, "error", err)
			}
		})
	}
	invalidateCalendar(ctx, h.Cache, h.Logger, property.ID)

	return &dto.CancellationResult{
		BookingID: string(b.ID),
		Status:    string(b.State),
		Refund:    dto.Decimal(refund),
		Penalty:   dto.Decimal(penalty),
	}, nil
}

func (h *CancelBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[CancelBookingCommand, *dto.CancellationResult] = (*CancelBookingHandler)(nil)
