package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domaininventory "staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const setRoomRatesKey = "inventory.set_room_rates"

var ErrRatesRequired = errors.New("inventory: at least one rate is required")

// DateRateInput sets the standard price of one day. IsOpen defaults to true.
type DateRateInput struct {
	Date   string      `json:"date"`
	Price  json.Number `json:"price"`
	IsOpen *bool       `json:"isOpen,omitempty"`
}

type SetRoomRatesCommand struct {
	PropertyID string
	RoomTypeID string
	Rates      []DateRateInput
}

func (c SetRoomRatesCommand) Key() string { return setRoomRatesKey }

func (c SetRoomRatesCommand) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PropertyID) == "" {
		errs = append(errs, errors.New("inventory: property id is required"))
	}
	if strings.TrimSpace(c.RoomTypeID) == "" {
		errs = append(errs, errors.New("inventory: room type id is required"))
	}
	if len(c.Rates) == 0 {
		errs = append(errs, ErrRatesRequired)
	}
	for _, r := range c.Rates {
		if _, err := daterange.ParseDay(r.Date); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type SetRoomRatesResult struct {
	PropertyID string `json:"propertyId"`
	RoomTypeID string `json:"roomTypeId"`
	Updated    int    `json:"updated"`
}

type SetRoomRatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Cache      policies.CalendarCache
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SetRoomRatesHandler) Handle(ctx context.Context, cmd SetRoomRatesCommand) (_ *SetRoomRatesResult, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	property, err := unit.Properties().Property(ctx, domaininventory.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	rates := make([]domaininventory.DateRate, 0, len(cmd.Rates))
	seen := make(map[daterange.Day]struct{}, len(cmd.Rates))
	for _, in := range cmd.Rates {
		day, err := daterange.ParseDay(in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
		}
		if _, dup := seen[day]; dup {
			return nil, fmt.Errorf("%w: %w: %s", middleware.ErrValidation, domaininventory.ErrDuplicateRate, day)
		}
		seen[day] = struct{}{}
		price, err := money.FromDecimalString(in.Price.String(), property.Currency)
		if err != nil {
			return nil, fmt.Errorf("%w: price on %s: %w", middleware.ErrValidation, day, err)
		}
		open := true
		if in.IsOpen != nil {
			open = *in.IsOpen
		}
		rates = append(rates, domaininventory.DateRate{Date: day, Price: price, IsOpen: open})
	}

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	if err := property.SetRates(domaininventory.RoomTypeID(cmd.RoomTypeID), rates, now); err != nil {
		if errors.Is(err, domaininventory.ErrNegativePrice) {
			return nil, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
		}
		return nil, err
	}
	if err := unit.Properties().Save(ctx, property); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, outbox.Drain(property)); err != nil {
		return nil, err
	}
	if h.Cache != nil {
		uow.AfterCommit(ctx, func(ctx context.Context) {
			if err := h.Cache.InvalidateProperty(ctx, cmd.PropertyID); err != nil {
				logger := h.Logger
				if logger == nil {
					logger = slog.Default()
				}
				logger.WarnContext(ctx, "calendar cache invalidation failed", "property_id", cmd.PropertyID, "error", err)
			}
		})
	}
	return &SetRoomRatesResult{PropertyID: cmd.PropertyID, RoomTypeID: cmd.RoomTypeID, Updated: len(rates)}, nil
}

var _ commands.Handler[SetRoomRatesCommand, *SetRoomRatesResult] = (*SetRoomRatesHandler)(nil)
