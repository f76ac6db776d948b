package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
)

const getPricedCalendarKey = "availability.priced_calendar"

var ErrPropertyRequired = errors.New("availability: property id is required")

type GetPricedCalendarQuery struct {
	PropertyID string
	From       string
	To         string
}

func (q GetPricedCalendarQuery) Key() string { return getPricedCalendarKey }

// Validate checks the window before any repository access.
func (q GetPricedCalendarQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return ErrPropertyRequired
	}
	_, err := q.window()
	return err
}

func (q GetPricedCalendarQuery) window() (daterange.Span, error) {
	from, err := daterange.ParseDay(q.From)
	if err != nil {
		return daterange.Span{}, fmt.Errorf("from: %w", err)
	}
	to, err := daterange.ParseDay(q.To)
	if err != nil {
		return daterange.Span{}, fmt.Errorf("to: %w", err)
	}
	span, err := daterange.NewSpan(from, to)
	if err != nil {
		return daterange.Span{}, err
	}
	if span.Len() > pricing.MaxWindowDays {
		return daterange.Span{}, pricing.ErrWindowTooLong
	}
	return span, nil
}

type GetPricedCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.CalendarCache
	Metrics    policies.PricingMetrics
	Logger     *slog.Logger
}

func (h *GetPricedCalendarHandler) Handle(ctx context.Context, q GetPricedCalendarQuery) (dto.PricedCalendar, error) {
	window, err := q.window()
	if err != nil {
		return dto.PricedCalendar{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PricedCalendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	property, err := unit.Properties().Property(ctx, inventory.PropertyID(q.PropertyID))
	if err != nil {
		return dto.PricedCalendar{}, err
	}
	key := policies.CalendarKey{PropertyID: q.PropertyID, Version: property.Version, From: window.From.String(), To: window.To.String()}
	if h.Cache != nil {
		cached, ok, err := h.Cache.Get(ctx, key)
		if err != nil {
			h.logger().WarnContext(ctx, "calendar cache read failed", "key", key.String(), "error", err)
		}
		h.metrics().CacheLookup(ok)
		if ok {
			return cached, nil
		}
	}
	rules, err := unit.SpecialRates().ByProperty(ctx, property.ID)
	if err != nil {
		return dto.PricedCalendar{}, err
	}

	start := time.Now()
	cal, err := pricing.Resolve(property.RoomTypes, rules, window, pricing.Options{})
	if err != nil {
		return dto.PricedCalendar{}, err
	}
	h.metrics().CalendarResolved(len(cal.Days), time.Since(start))
	for _, skipped := range cal.Skipped {
		h.metrics().RuleSkipped(skipped.Reason)
		h.logger().WarnContext(ctx, "special rate skipped", "property_id", q.PropertyID, "special_rate_id", skipped.ID, "reason", skipped.Reason)
	}

	out := dto.MapPricedCalendar(q.PropertyID, cal)
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, key, out); err != nil {
			h.logger().WarnContext(ctx, "calendar cache write failed", "key", key.String(), "error", err)
		}
	}
	return out, nil
}

func (h *GetPricedCalendarHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *GetPricedCalendarHandler) metrics() policies.PricingMetrics {
	if h.Metrics != nil {
		return h.Metrics
	}
	return policies.NopMetrics{}
}

var _ queries.Handler[GetPricedCalendarQuery, dto.PricedCalendar] = (*GetPricedCalendarHandler)(nil)
