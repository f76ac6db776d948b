package specialrates

import (
	"context"
	"sort"
	"strings"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	domainrates "staybook/internal/domain/specialrates"
)

const listKey = "specialrates.list"

type ListSpecialRatesQuery struct {
	PropertyID string
}

func (q ListSpecialRatesQuery) Key() string { return listKey }

func (q ListSpecialRatesQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return domainrates.ErrPropertyRequired
	}
	return nil
}

type ListSpecialRatesHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle lists the property's rates, highest priority first.
func (h *ListSpecialRatesHandler) Handle(ctx context.Context, q ListSpecialRatesQuery) (dto.SpecialRateCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SpecialRateCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	propertyID := inventory.PropertyID(q.PropertyID)
	if _, err := unit.Properties().Property(ctx, propertyID); err != nil {
		return dto.SpecialRateCollection{}, err
	}
	rates, err := unit.SpecialRates().ByProperty(ctx, propertyID)
	if err != nil {
		return dto.SpecialRateCollection{}, err
	}
	sort.SliceStable(rates, func(i, j int) bool {
		if rates[i].Priority != rates[j].Priority {
			return rates[i].Priority > rates[j].Priority
		}
		return rates[i].ID < rates[j].ID
	})
	return dto.MapSpecialRates(rates), nil
}

var _ queries.Handler[ListSpecialRatesQuery, dto.SpecialRateCollection] = (*ListSpecialRatesHandler)(nil)
