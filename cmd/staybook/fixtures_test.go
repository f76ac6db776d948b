package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

var fixtureNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

const smallFixture = `[
  {
    "id": "hill-view",
    "name": "Hill View",
    "currency": "INR",
    "roomTypes": [
      {
        "id": "std",
        "name": "Standard",
        "basePrice": "2000",
        "occupancy": 2,
        "mealPlans": {"included": "EP", "plans": [{"id": "EP", "name": "Room only", "mode": "absolute"}]},
        "rooms": [{"id": "std-1", "number": "1", "availability": [{"date": "2026-11-02", "status": "maintenance"}]}],
        "openRates": {"from": "2026-11-01", "to": "2026-11-05", "price": "2000"},
        "rates": [
          {"date": "2026-11-03", "price": "2600"},
          {"date": "2026-11-04", "price": "2000", "isOpen": false}
        ]
      }
    ],
    "specialRates": [
      {"id": "early", "name": "Early bird", "kind": "offer", "pricingMode": "percent", "percentAdj": 10, "dateFrom": "2026-11-01", "dateTo": "2026-11-03"}
    ]
  },
  {
    "id": "broken",
    "name": "Broken",
    "currency": "INR",
    "roomTypes": [{"id": "x", "name": "X", "basePrice": "ten", "occupancy": 1}]
  }
]`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoomTypeFixtureRatesOverrideWindow(t *testing.T) {
	fixtures, err := readFixtures(writeFixture(t, smallFixture))
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	rates, err := fixtures[0].RoomTypes[0].rates("INR")
	require.NoError(t, err)
	require.Len(t, rates, 5)

	byDay := map[string]inventory.DateRate{}
	for _, r := range rates {
		byDay[r.Date.String()] = r
	}
	assert.Equal(t, "2000.00", byDay["2026-11-01"].Price.String())
	assert.True(t, byDay["2026-11-01"].IsOpen)
	assert.Equal(t, "2600.00", byDay["2026-11-03"].Price.String())
	assert.False(t, byDay["2026-11-04"].IsOpen)
	assert.Equal(t, "std:2026-11-05", byDay["2026-11-05"].ID)
}

func TestPropertyFixtureBuild(t *testing.T) {
	fixtures, err := readFixtures(writeFixture(t, smallFixture))
	require.NoError(t, err)

	property, rates, err := fixtures[0].build(fixtureNow)
	require.NoError(t, err)
	assert.Equal(t, inventory.PropertyID("hill-view"), property.ID)
	rt, ok := property.RoomType("std")
	require.True(t, ok)
	require.Len(t, rt.Rooms, 1)
	assert.Equal(t, inventory.RoomMaintenance, rt.Rooms[0].StatusOn(daterange.MustParseDay("2026-11-02")))
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Active)
	assert.Empty(t, rates[0].PendingEvents())

	_, _, err = fixtures[1].build(fixtureNow)
	assert.Error(t, err)
}

func TestSeedFixturesSkipsInvalidAndExisting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	path := writeFixture(t, smallFixture)

	require.NoError(t, seedFixtures(ctx, factory, path, discardLogger(), fixtureNow))

	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	property, err := unit.Properties().Property(ctx, "hill-view")
	require.NoError(t, err)
	assert.Equal(t, "Hill View", property.Name)
	rates, err := unit.SpecialRates().ByProperty(ctx, "hill-view")
	require.NoError(t, err)
	assert.Len(t, rates, 1)
	_, err = unit.Properties().Property(ctx, "broken")
	assert.ErrorIs(t, err, inventory.ErrPropertyNotFound)
	require.NoError(t, unit.Rollback(ctx))

	imported, err := storeFixture(ctx, factory, property, nil)
	require.NoError(t, err)
	assert.False(t, imported)
}

func TestSeedFixturesMissingFile(t *testing.T) {
	factory := memory.Factory{Store: memory.NewStore()}
	err := seedFixtures(context.Background(), factory, filepath.Join(t.TempDir(), "absent.json"), discardLogger(), fixtureNow)
	assert.NoError(t, err)
}

func TestBundledFixturesAreValid(t *testing.T) {
	fixtures, err := readFixtures(filepath.Join("..", "..", "data", "properties.json"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)
	for _, fx := range fixtures {
		_, _, err := fx.build(fixtureNow)
		assert.NoError(t, err, fx.ID)
	}
}
