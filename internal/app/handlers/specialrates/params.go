package specialrates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	domainrates "staybook/internal/domain/specialrates"
)

// toParams converts the request payload into domain params priced in the
// property's currency. Malformed amounts are reported as validation errors.
func toParams(in dto.SpecialRateInput, id domainrates.ID, property *inventory.Property, now time.Time) (domainrates.Params, error) {
	flat, err := dto.ParseDecimal(in.FlatPrice, property.Currency)
	if err != nil {
		return domainrates.Params{}, fmt.Errorf("%w: flatPrice: %w", middleware.ErrValidation, err)
	}
	links := make([]domainrates.RoomTypeLink, 0, len(in.RoomTypeLinks))
	for _, l := range in.RoomTypeLinks {
		link := domainrates.RoomTypeLink{RoomTypeID: inventory.RoomTypeID(l.RoomTypeID)}
		if l.PricingMode != "" {
			overrideFlat, err := dto.ParseDecimal(l.FlatPrice, property.Currency)
			if err != nil {
				return domainrates.Params{}, fmt.Errorf("%w: roomTypeLinks[%s].flatPrice: %w", middleware.ErrValidation, l.RoomTypeID, err)
			}
			link.Override = &domainrates.Adjustment{
				Mode:       domainrates.Mode(l.PricingMode),
				FlatPrice:  overrideFlat,
				PercentAdj: l.PercentAdj,
			}
		}
		links = append(links, link)
	}
	return domainrates.Params{
		ID:             id,
		PropertyID:     property.ID,
		Name:           in.Name,
		Kind:           domainrates.Kind(in.Kind),
		Mode:           domainrates.Mode(in.PricingMode),
		FlatPrice:      flat,
		PercentAdj:     in.PercentAdj,
		DateFrom:       in.DateFrom,
		DateTo:         in.DateTo,
		Links:          links,
		Priority:       in.Priority,
		ConflictPolicy: domainrates.ConflictPolicy(in.ConflictPolicy),
		Active:         in.Active,
		Metadata:       in.Metadata,
		Now:            now,
	}, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", middleware.ErrValidation, err)
}

// Dependencies are shared by the special rate write handlers.
type Dependencies struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Cache   policies.CalendarCache
	Logger  *slog.Logger
}

func (m Dependencies) record(ctx context.Context, src outbox.EventSource) error {
	return outbox.RecordDomainEvents(ctx, m.Outbox, m.Encoder, outbox.Drain(src))
}

// invalidate drops cached calendars of the property after the unit in ctx
// commits. Failures are logged; entries still expire by TTL.
func (m Dependencies) invalidate(ctx context.Context, propertyID inventory.PropertyID) {
	if m.Cache == nil {
		return
	}
	uow.AfterCommit(ctx, func(ctx context.Context) {
		if err := m.Cache.InvalidateProperty(ctx, string(propertyID)); err != nil {
			logger := m.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.WarnContext(ctx, "calendar cache invalidation failed", "property_id", propertyID, "error", err)
		}
	})
}
