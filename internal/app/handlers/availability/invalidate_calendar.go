package availability

import (
	"context"
	"strings"

	"staybook/internal/app/commands"
	"staybook/internal/app/policies"
)

const invalidateCalendarKey = "availability.invalidate_calendar"

// InvalidateCalendarCommand drops every cached calendar of a property. It is
// dispatched by the event consumer when another instance changed the property.
type InvalidateCalendarCommand struct {
	PropertyID string
	Reason     string
}

func (c InvalidateCalendarCommand) Key() string { return invalidateCalendarKey }

func (c InvalidateCalendarCommand) Validate() error {
	if strings.TrimSpace(c.PropertyID) == "" {
		return ErrPropertyRequired
	}
	return nil
}

type InvalidateCalendarResult struct {
	PropertyID string `json:"propertyId"`
}

type InvalidateCalendarHandler struct {
	Cache policies.CalendarCache
}

func (h *InvalidateCalendarHandler) Handle(ctx context.Context, cmd InvalidateCalendarCommand) (*InvalidateCalendarResult, error) {
	if h.Cache != nil {
		if err := h.Cache.InvalidateProperty(ctx, cmd.PropertyID); err != nil {
			return nil, err
		}
	}
	return &InvalidateCalendarResult{PropertyID: cmd.PropertyID}, nil
}

var _ commands.Handler[InvalidateCalendarCommand, *InvalidateCalendarResult] = (*InvalidateCalendarHandler)(nil)
