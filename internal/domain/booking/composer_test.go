package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/money"
)

func inr(major int64) money.Money {
	return money.Must(major*100, "INR")
}

func deluxeRoom(id string) BuiltRoom {
	return BuiltRoom{
		ID:                   id,
		RoomTypeID:           "deluxe",
		Name:                 "Deluxe",
		Occupancy:            2,
		ExtraBedCapacity:     1,
		BasePrice:            inr(1000),
		SingleOccupancyPrice: inr(800),
		ExtraBed: inventory.ExtraBedPrices{
			Adult:  inr(500),
			Child:  inr(300),
			Infant: inr(100),
		},
	}
}

func issueCodes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestValidateAndPriceCapacityBoundary(t *testing.T) {
	rooms := []BuiltRoom{deluxeRoom("r1")}

	q, err := ValidateAndPrice(rooms, Party{Adults: 3}, 1)
	require.NoError(t, err)
	require.True(t, q.OK)
	require.Len(t, q.Assignment, 1)
	assert.Equal(t, 2, q.Assignment[0].BaseAdults)
	assert.Equal(t, 1, q.Assignment[0].ExtraAdults)
	assert.Equal(t, "1000.00", q.Totals.PerRoom[0].OccupancyPrice.String())
	assert.Equal(t, "500.00", q.Totals.PerRoom[0].ExtraBedCharge.String())
	assert.Equal(t, "1500.00", q.Totals.GrandTotal.String())

	q, err = ValidateAndPrice(rooms, Party{Adults: 4}, 1)
	require.NoError(t, err)
	assert.False(t, q.OK)
	assert.Equal(t, []string{IssueInsufficientCapacity}, issueCodes(q.Errors))
	assert.GreaterOrEqual(t, q.Suggestions.MinRoomsNeeded, 2)
	assert.Equal(t, 1, q.Suggestions.AdditionalBedsNeeded)
	assert.Empty(t, q.Assignment)
}

func TestValidateAndPriceSingleOccupancy(t *testing.T) {
	q, err := ValidateAndPrice([]BuiltRoom{deluxeRoom("r1")}, Party{Adults: 1}, 2)
	require.NoError(t, err)
	require.True(t, q.OK)

	assert.True(t, q.Totals.PerRoom[0].SingleOccupancy)
	assert.Equal(t, "1600.00", q.Totals.PerRoom[0].RoomTotal.String())
}

func TestValidateAndPriceSingleOccupancyNeedsSoleGuest(t *testing.T) {
	q, err := ValidateAndPrice([]BuiltRoom{deluxeRoom("r1")}, Party{Adults: 1, InfantsNoBed: 1}, 2)
	require.NoError(t, err)
	require.True(t, q.OK)

	assert.False(t, q.Totals.PerRoom[0].SingleOccupancy)
	assert.Equal(t, "2000.00", q.Totals.PerRoom[0].RoomTotal.String())
}

func TestValidateAndPriceSingleOccupancyFallsBackToBase(t *testing.T) {
	room := deluxeRoom("r1")
	room.SingleOccupancyPrice = money.Money{}

	q, err := ValidateAndPrice([]BuiltRoom{room}, Party{Adults: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", q.Totals.PerRoom[0].RoomTotal.String())
}

func TestValidateAndPriceNightlyRates(t *testing.T) {
	room := deluxeRoom("r1")
	room.NightlyRates = []money.Money{inr(900), inr(1100)}

	q, err := ValidateAndPrice([]BuiltRoom{room}, Party{Adults: 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", q.Totals.PerRoom[0].OccupancyPrice.String())

	q, err = ValidateAndPrice([]BuiltRoom{room}, Party{Adults: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, "1600.00", q.Totals.PerRoom[0].OccupancyPrice.String())

	room.NightlyRates = []money.Money{inr(900)}
	_, err = ValidateAndPrice([]BuiltRoom{room}, Party{Adults: 2}, 2)
	assert.ErrorIs(t, err, ErrNightlyRatesLength)
}

func TestValidateAndPriceFillsBaseSlotsBeforeExtraBeds(t *testing.T) {
	rooms := []BuiltRoom{deluxeRoom("r1"), deluxeRoom("r2")}
	party := Party{Adults: 3, ChildrenWithBed: 1, InfantsWithBed: 1, ChildrenNoBed: 1, InfantsNoBed: 1}

	q, err := ValidateAndPrice(rooms, party, 1)
	require.NoError(t, err)
	require.True(t, q.OK)

	first, second := q.Assignment[0], q.Assignment[1]
	assert.Equal(t, 2, first.BaseAdults)
	assert.Equal(t, 1, second.BaseAdults)
	assert.Equal(t, 1, second.BaseChildren)
	assert.Equal(t, 1, first.ExtraInfants)
	assert.Equal(t, 0, first.ExtraAdults+second.ExtraAdults)

	assert.Equal(t, 1, first.ChildrenNoBed)
	assert.Equal(t, 1, second.InfantsNoBed)
	assert.Equal(t, party.Headcount(), first.Guests()+second.Guests())

	assert.Equal(t, "100.00", q.Totals.PerRoom[0].ExtraBedCharge.String())
	assert.Equal(t, "2100.00", q.Totals.GrandTotal.String())
}

func TestValidateAndPriceWarnings(t *testing.T) {
	rooms := []BuiltRoom{deluxeRoom("r1"), deluxeRoom("r2")}

	q, err := ValidateAndPrice(rooms, Party{Adults: 2}, 1)
	require.NoError(t, err)
	require.True(t, q.OK)
	assert.ElementsMatch(t, []string{IssueRoomUnoccupied, IssueOversizedSelection}, issueCodes(q.Warnings))
	assert.Equal(t, 1, q.Suggestions.MinRoomsNeeded)
	assert.Equal(t, "2000.00", q.Totals.GrandTotal.String())
}

func TestValidateAndPriceBusinessFailures(t *testing.T) {
	cases := []struct {
		name  string
		rooms []BuiltRoom
		party Party
		code  string
	}{
		{name: "no rooms", party: Party{Adults: 2}, code: IssueNoRooms},
		{name: "empty party", rooms: []BuiltRoom{deluxeRoom("r1")}, code: IssueEmptyParty},
		{name: "children only", rooms: []BuiltRoom{deluxeRoom("r1")}, party: Party{ChildrenWithBed: 2}, code: IssueAdultRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := ValidateAndPrice(tc.rooms, tc.party, 1)
			require.NoError(t, err)
			assert.False(t, q.OK)
			assert.Equal(t, []string{tc.code}, issueCodes(q.Errors))
		})
	}
}

func TestValidateAndPriceInputFaults(t *testing.T) {
	negative := deluxeRoom("r1")
	negative.BasePrice = inr(-1)
	mixed := deluxeRoom("r2")
	mixed.BasePrice = money.Must(100, "USD")

	cases := []struct {
		name   string
		rooms  []BuiltRoom
		party  Party
		nights int
		want   error
	}{
		{name: "zero nights", rooms: []BuiltRoom{deluxeRoom("r1")}, party: Party{Adults: 1}, nights: 0, want: ErrInvalidNights},
		{name: "negative guests", rooms: []BuiltRoom{deluxeRoom("r1")}, party: Party{Adults: -1}, nights: 1, want: ErrNegativeGuests},
		{name: "negative price", rooms: []BuiltRoom{negative}, party: Party{Adults: 1}, nights: 1, want: ErrRoomConfig},
		{name: "duplicate room", rooms: []BuiltRoom{deluxeRoom("r1"), deluxeRoom("r1")}, party: Party{Adults: 1}, nights: 1, want: ErrDuplicateRoom},
		{name: "mixed currency", rooms: []BuiltRoom{deluxeRoom("r1"), mixed}, party: Party{Adults: 1}, nights: 1, want: ErrCurrencyMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateAndPrice(tc.rooms, tc.party, tc.nights)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateAndPriceIsIdempotent(t *testing.T) {
	rooms := []BuiltRoom{deluxeRoom("r1"), deluxeRoom("r2")}
	party := Party{Adults: 3, ChildrenNoBed: 2}

	first, err := ValidateAndPrice(rooms, party, 3)
	require.NoError(t, err)
	second, err := ValidateAndPrice(rooms, party, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMinRoomsNeeded(t *testing.T) {
	small := BuiltRoom{ID: "s", Occupancy: 1}
	large := BuiltRoom{ID: "l", Occupancy: 3, ExtraBedCapacity: 1}

	assert.Equal(t, 1, minRoomsNeeded([]BuiltRoom{small, large}, 4))
	assert.Equal(t, 2, minRoomsNeeded([]BuiltRoom{small, large}, 5))
	// 5 beds in the selection, average 2.5 per room: 3 missing beds need 2 more rooms
	assert.Equal(t, 4, minRoomsNeeded([]BuiltRoom{small, large}, 8))
	assert.Equal(t, 0, minRoomsNeeded(nil, 3))
}
