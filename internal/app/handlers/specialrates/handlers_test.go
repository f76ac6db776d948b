package specialrates

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/dto"
	"staybook/internal/app/middleware"
	"staybook/internal/app/policies"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/money"
	domainrates "staybook/internal/domain/specialrates"
	"staybook/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	outbox  *memory.Outbox
	cache   *memory.CalendarCache
	deps    Dependencies
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SeedProperty(&inventory.Property{
		ID:       "prop-1",
		Name:     "Lakeside",
		Currency: "INR",
		RoomTypes: []inventory.RoomType{
			{ID: "std", Name: "Standard", BasePrice: money.Must(200000, "INR"), Occupancy: 2},
			{ID: "suite", Name: "Suite", BasePrice: money.Must(500000, "INR"), Occupancy: 4},
		},
	}))
	f := fixture{store: store, factory: memory.Factory{Store: store}, outbox: memory.NewOutbox(), cache: memory.NewCalendarCache(time.Minute)}
	f.deps = Dependencies{Outbox: f.outbox, Cache: f.cache}
	return f
}

func percent(v float64) *float64 { return &v }

func offerInput() dto.SpecialRateInput {
	return dto.SpecialRateInput{
		Name:          "Monsoon offer",
		Kind:          "offer",
		PricingMode:   "percent",
		PercentAdj:    percent(20),
		DateFrom:      "2026-11-01",
		DateTo:        "2026-11-30",
		RoomTypeLinks: []dto.RoomTypeLink{{RoomTypeID: "std"}},
		Priority:      5,
	}
}

func (f fixture) create(t *testing.T, in dto.SpecialRateInput) *dto.SpecialRate {
	t.Helper()
	h := NewCreateSpecialRateHandler(f.factory, f.deps)
	h.IDGenerator = func() string { return "rate-1" }
	h.Now = func() time.Time { return testNow }
	out, err := h.Handle(context.Background(), CreateSpecialRateCommand{PropertyID: "prop-1", Input: in})
	require.NoError(t, err)
	return out
}

func TestCreateSpecialRate(t *testing.T) {
	f := newFixture(t)
	key := policies.CalendarKey{PropertyID: "prop-1", From: "2026-11-01", To: "2026-11-07"}
	require.NoError(t, f.cache.Set(context.Background(), key, dto.PricedCalendar{PropertyID: "prop-1"}))

	out := f.create(t, offerInput())
	assert.Equal(t, "rate-1", out.ID)
	assert.True(t, out.Active)
	assert.Equal(t, "exclusive", out.ConflictPolicy)
	require.Len(t, out.RoomTypeLinks, 1)

	_, cached, _ := f.cache.Get(context.Background(), key)
	assert.False(t, cached)
	pending := f.outbox.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "specialrate.created", pending[0].Name)
}

func TestCreateSpecialRateValidation(t *testing.T) {
	f := newFixture(t)
	h := NewCreateSpecialRateHandler(f.factory, f.deps)

	in := offerInput()
	in.DateTo = "2026-10-30"
	in.RoomTypeLinks = []dto.RoomTypeLink{{RoomTypeID: "villa"}}
	_, err := h.Handle(context.Background(), CreateSpecialRateCommand{PropertyID: "prop-1", Input: in})
	assert.ErrorIs(t, err, middleware.ErrValidation)
	assert.ErrorIs(t, err, domainrates.ErrDateOrder)
	assert.ErrorIs(t, err, domainrates.ErrUnknownRoomType)

	bad := json.Number("12.3.4")
	in = offerInput()
	in.PricingMode = "flat"
	in.FlatPrice = &bad
	_, err = h.Handle(context.Background(), CreateSpecialRateCommand{PropertyID: "prop-1", Input: in})
	assert.ErrorIs(t, err, middleware.ErrValidation)

	_, err = h.Handle(context.Background(), CreateSpecialRateCommand{PropertyID: "missing", Input: offerInput()})
	assert.ErrorIs(t, err, inventory.ErrPropertyNotFound)
	assert.Empty(t, f.outbox.Pending())
}

func TestUpdateAndToggleSpecialRate(t *testing.T) {
	f := newFixture(t)
	f.create(t, offerInput())
	ctx := context.Background()

	in := offerInput()
	in.Name = "Monsoon offer extended"
	in.DateTo = "2026-12-15"
	in.ConflictPolicy = "stack"
	upd := NewUpdateSpecialRateHandler(f.factory, f.deps)
	out, err := upd.Handle(ctx, UpdateSpecialRateCommand{PropertyID: "prop-1", RateID: "rate-1", Input: in})
	require.NoError(t, err)
	assert.Equal(t, "Monsoon offer extended", out.Name)
	assert.Equal(t, "2026-12-15", out.DateTo)
	assert.Equal(t, "stack", out.ConflictPolicy)

	_, err = upd.Handle(ctx, UpdateSpecialRateCommand{PropertyID: "other", RateID: "rate-1", Input: in})
	assert.ErrorIs(t, err, inventory.ErrPropertyNotFound)

	toggle := NewSetSpecialRateActiveHandler(f.factory, f.deps)
	out, err = toggle.Handle(ctx, SetSpecialRateActiveCommand{PropertyID: "prop-1", RateID: "rate-1", Active: false})
	require.NoError(t, err)
	assert.False(t, out.Active)
	before := len(f.outbox.Pending())
	_, err = toggle.Handle(ctx, SetSpecialRateActiveCommand{PropertyID: "prop-1", RateID: "rate-1", Active: false})
	require.NoError(t, err)
	assert.Len(t, f.outbox.Pending(), before)
}

func TestDeleteSpecialRate(t *testing.T) {
	f := newFixture(t)
	f.create(t, offerInput())
	ctx := context.Background()
	del := NewDeleteSpecialRateHandler(f.factory, f.deps)

	_, err := del.Handle(ctx, DeleteSpecialRateCommand{PropertyID: "other-prop", RateID: "rate-1"})
	assert.ErrorIs(t, err, domainrates.ErrNotFound)

	used := &domainrates.SpecialRate{ID: "used", PropertyID: "prop-1", Name: "Used", Kind: domainrates.KindPeak, UsageCount: 2}
	f.store.SeedSpecialRate(used)
	_, err = del.Handle(ctx, DeleteSpecialRateCommand{PropertyID: "prop-1", RateID: "used"})
	assert.ErrorIs(t, err, domainrates.ErrRateInUse)

	res, err := del.Handle(ctx, DeleteSpecialRateCommand{PropertyID: "prop-1", RateID: "rate-1"})
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	list, err := (&ListSpecialRatesHandler{UoWFactory: f.factory}).Handle(ctx, ListSpecialRatesQuery{PropertyID: "prop-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "used", list.Items[0].ID)
}

func TestListSpecialRatesOrdersByPriority(t *testing.T) {
	f := newFixture(t)
	f.store.SeedSpecialRate(&domainrates.SpecialRate{ID: "b", PropertyID: "prop-1", Name: "B", Priority: 1})
	f.store.SeedSpecialRate(&domainrates.SpecialRate{ID: "a", PropertyID: "prop-1", Name: "A", Priority: 1})
	f.store.SeedSpecialRate(&domainrates.SpecialRate{ID: "c", PropertyID: "prop-1", Name: "C", Priority: 9})
	f.store.SeedSpecialRate(&domainrates.SpecialRate{ID: "x", PropertyID: "prop-2", Name: "X", Priority: 99})

	list, err := (&ListSpecialRatesHandler{UoWFactory: f.factory}).Handle(context.Background(), ListSpecialRatesQuery{PropertyID: "prop-1"})
	require.NoError(t, err)
	var ids []string
	for _, item := range list.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
