package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
)

const defaultPrefix = "staybook:calendar:"

// CalendarCache keeps priced calendars in Redis so every instance shares them.
// Each property has a set of its cached keys so one write can drop them all.
type CalendarCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewCalendarCache(client goredis.Cmdable, ttl time.Duration) *CalendarCache {
	return &CalendarCache{client: client, ttl: ttl, prefix: defaultPrefix}
}

func (c *CalendarCache) Get(ctx context.Context, key policies.CalendarKey) (dto.PricedCalendar, bool, error) {
	raw, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return dto.PricedCalendar{}, false, nil
	}
	if err != nil {
		return dto.PricedCalendar{}, false, err
	}
	var cal dto.PricedCalendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		// A stale layout is treated as a miss and overwritten by the next Set.
		return dto.PricedCalendar{}, false, nil
	}
	return cal, true, nil
}

func (c *CalendarCache) Set(ctx context.Context, key policies.CalendarKey, cal dto.PricedCalendar) error {
	payload, err := json.Marshal(cal)
	if err != nil {
		return err
	}
	entry := c.entryKey(key)
	index := c.indexKey(key.PropertyID)
	if err := c.client.Set(ctx, entry, payload, c.ttl).Err(); err != nil {
		return err
	}
	if err := c.client.SAdd(ctx, index, entry).Err(); err != nil {
		return err
	}
	if c.ttl > 0 {
		return c.client.Expire(ctx, index, c.ttl).Err()
	}
	return nil
}

func (c *CalendarCache) InvalidateProperty(ctx context.Context, propertyID string) error {
	index := c.indexKey(propertyID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, index)...).Err()
}

func (c *CalendarCache) entryKey(key policies.CalendarKey) string {
	return c.prefix + key.String()
}

func (c *CalendarCache) indexKey(propertyID string) string {
	return c.prefix + "index:" + propertyID
}

var _ policies.CalendarCache = (*CalendarCache)(nil)
