package memory

import (
	"context"
	"sync"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
)

type cachedCalendar struct {
	cal     dto.PricedCalendar
	expires time.Time
}

// CalendarCache is a per-process policies.CalendarCache with a fixed TTL.
type CalendarCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[policies.CalendarKey]cachedCalendar
}

func NewCalendarCache(ttl time.Duration) *CalendarCache {
	return &CalendarCache{ttl: ttl, now: time.Now, entries: make(map[string]map[policies.CalendarKey]cachedCalendar)}
}

func (c *CalendarCache) Get(ctx context.Context, key policies.CalendarKey) (dto.PricedCalendar, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key.PropertyID][key]
	if !ok {
		return dto.PricedCalendar{}, false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expires) {
		delete(c.entries[key.PropertyID], key)
		return dto.PricedCalendar{}, false, nil
	}
	return entry.cal, true, nil
}

func (c *CalendarCache) Set(ctx context.Context, key policies.CalendarKey, cal dto.PricedCalendar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	byKey, ok := c.entries[key.PropertyID]
	if !ok {
		byKey = make(map[policies.CalendarKey]cachedCalendar)
		c.entries[key.PropertyID] = byKey
	}
	byKey[key] = cachedCalendar{cal: cal, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *CalendarCache) InvalidateProperty(ctx context.Context, propertyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, propertyID)
	return nil
}

var _ policies.CalendarCache = (*CalendarCache)(nil)
