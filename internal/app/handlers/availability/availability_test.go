package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/specialrates"
	"staybook/internal/infra/storage/memory"
)

type countingMetrics struct {
	policies.NopMetrics
	hits, misses, resolved int
	skipped                []string
}

func (m *countingMetrics) CacheLookup(hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

func (m *countingMetrics) CalendarResolved(days int, elapsed time.Duration) { m.resolved++ }

func (m *countingMetrics) RuleSkipped(reason string) { m.skipped = append(m.skipped, reason) }

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	rt := inventory.RoomType{
		ID:        "std",
		Name:      "Standard",
		BasePrice: money.Must(300000, "INR"),
		Occupancy: 2,
		Rooms: []inventory.Room{
			{ID: "std-1", Number: "1"},
			{ID: "std-2", Number: "2", Availability: []inventory.RoomDayStatus{{Date: daterange.MustParseDay("2026-11-02"), Status: inventory.RoomMaintenance}}},
		},
	}
	for _, d := range []string{"2026-11-01", "2026-11-02"} {
		day := daterange.MustParseDay(d)
		rt.Rates = append(rt.Rates, inventory.DateRate{ID: "std:" + d, Date: day, Price: money.Must(300000, "INR"), IsOpen: true})
	}
	require.NoError(t, store.SeedProperty(&inventory.Property{ID: "prop-1", Name: "Lakeside", Currency: "INR", RoomTypes: []inventory.RoomType{rt}}))
	pct := 20.0
	store.SeedSpecialRate(&specialrates.SpecialRate{
		ID:         "peak",
		PropertyID: "prop-1",
		Name:       "Peak",
		Kind:       specialrates.KindPeak,
		Adjustment: specialrates.Adjustment{Mode: specialrates.ModePercent, PercentAdj: &pct},
		Span:       daterange.Span{From: daterange.MustParseDay("2026-11-02"), To: daterange.MustParseDay("2026-11-05")},
		Active:     true,
	})
	store.SeedSpecialRate(&specialrates.SpecialRate{
		ID:         "broken",
		PropertyID: "prop-1",
		Name:       "Broken",
		Kind:       specialrates.KindOffer,
		Adjustment: specialrates.Adjustment{Mode: specialrates.ModeFlat},
		Span:       daterange.Span{From: daterange.MustParseDay("2026-11-01"), To: daterange.MustParseDay("2026-11-05")},
		Active:     true,
	})
	return store
}

func TestGetPricedCalendar(t *testing.T) {
	metrics := &countingMetrics{}
	h := &GetPricedCalendarHandler{
		UoWFactory: memory.Factory{Store: seededStore(t)},
		Cache:      memory.NewCalendarCache(time.Minute),
		Metrics:    metrics,
	}
	q := GetPricedCalendarQuery{PropertyID: "prop-1", From: "2026-11-01", To: "2026-11-03"}

	cal, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, cal.Days, 3)

	first := cal.Days[0].RoomType[0]
	assert.Equal(t, 2, first.AvailableRooms)
	require.Len(t, first.Rate, 1)
	assert.False(t, first.Rate[0].HasSpecialRate)

	second := cal.Days[1].RoomType[0]
	assert.Equal(t, 1, second.UnderMaintenance)
	require.Len(t, second.Rate, 1)
	assert.Equal(t, "3600.00", second.Rate[0].FinalPrice.String())
	assert.Equal(t, "peak", second.Rate[0].SpecialRateID)

	assert.Empty(t, cal.Days[2].RoomType[0].Rate)
	require.Len(t, cal.Skipped, 1)
	assert.Equal(t, "broken", cal.Skipped[0].ID)
	assert.Len(t, metrics.skipped, 1)

	_, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.resolved)
}

func TestGetPricedCalendarValidatesWindow(t *testing.T) {
	cases := []GetPricedCalendarQuery{
		{From: "2026-11-01", To: "2026-11-03"},
		{PropertyID: "p", From: "01/11/2026", To: "2026-11-03"},
		{PropertyID: "p", From: "2026-11-05", To: "2026-11-03"},
	}
	for _, q := range cases {
		assert.Error(t, q.Validate(), q)
	}
	long := GetPricedCalendarQuery{PropertyID: "p", From: "2026-01-01", To: "2027-06-01"}
	assert.ErrorIs(t, long.Validate(), pricing.ErrWindowTooLong)
}

func TestGetPricedCalendarUnknownProperty(t *testing.T) {
	h := &GetPricedCalendarHandler{UoWFactory: memory.Factory{Store: memory.NewStore()}}
	_, err := h.Handle(context.Background(), GetPricedCalendarQuery{PropertyID: "nope", From: "2026-11-01", To: "2026-11-02"})
	assert.ErrorIs(t, err, inventory.ErrPropertyNotFound)
}

type failingCache struct{ policies.CalendarCache }

func (failingCache) InvalidateProperty(ctx context.Context, propertyID string) error {
	return errors.New("redis down")
}

func TestInvalidateCalendar(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCalendarCache(time.Minute)
	key := policies.CalendarKey{PropertyID: "prop-1", From: "2026-11-01", To: "2026-11-02"}
	require.NoError(t, cache.Set(ctx, key, dto.PricedCalendar{PropertyID: "prop-1"}))

	res, err := (&InvalidateCalendarHandler{Cache: cache}).Handle(ctx, InvalidateCalendarCommand{PropertyID: "prop-1"})
	require.NoError(t, err)
	assert.Equal(t, "prop-1", res.PropertyID)
	_, ok, _ := cache.Get(ctx, key)
	assert.False(t, ok)

	_, err = (&InvalidateCalendarHandler{Cache: failingCache{}}).Handle(ctx, InvalidateCalendarCommand{PropertyID: "prop-1"})
	assert.Error(t, err)
	assert.ErrorIs(t, InvalidateCalendarCommand{}.Validate(), ErrPropertyRequired)
}
