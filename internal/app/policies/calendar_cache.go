package policies

import (
	"context"
	"fmt"

	"staybook/internal/app/dto"
)

// CalendarKey identifies one cached priced calendar. Version is the property
// version the calendar was resolved from, so entries written from a snapshot
// older than the latest commit are never read back.
type CalendarKey struct {
	PropertyID string
	Version    int64
	From       string
	To         string
}

func (k CalendarKey) String() string {
	return fmt.Sprintf("%s:v%d:%s:%s", k.PropertyID, k.Version, k.From, k.To)
}

// CalendarCache stores resolved calendars. Every write touching a property's
// rates, rooms or special rates must call InvalidateProperty.
type CalendarCache interface {
	Get(ctx context.Context, key CalendarKey) (dto.PricedCalendar, bool, error)
	Set(ctx context.Context, key CalendarKey, cal dto.PricedCalendar) error
	InvalidateProperty(ctx context.Context, propertyID string) error
}
