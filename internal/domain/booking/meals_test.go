package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/inventory"
)

func withMealPlans(room BuiltRoom, selected string) BuiltRoom {
	room.MealPlanID = selected
	room.MealPlans = inventory.MealPlanPricing{
		Included: "EP",
		Plans: map[string]inventory.MealPlanPrice{
			"EP": {PlanID: "EP", Name: "Room only", Mode: inventory.MealPriceDelta},
			"MAP": {PlanID: "MAP", Name: "Breakfast and dinner", Mode: inventory.MealPriceDelta,
				Adult: inr(300), Child: inr(150)},
			"AP": {PlanID: "AP", Name: "All meals", Mode: inventory.MealPriceAbsolute,
				Adult: inr(700), Child: inr(400)},
		},
	}
	return room
}

func TestComposeMealPlanDelta(t *testing.T) {
	rooms := []BuiltRoom{withMealPlans(deluxeRoom("r1"), "MAP")}

	q, err := Compose(rooms, Party{Adults: 2}, 3)
	require.NoError(t, err)
	require.True(t, q.OK)

	room := q.Totals.PerRoom[0]
	assert.Equal(t, "3000.00", room.RoomTotal.String())
	assert.Equal(t, "1800.00", room.MealTotal.String())
	assert.Equal(t, "4800.00", room.TotalWithMeals.String())
	assert.Equal(t, "1800.00", q.Totals.MealTotal.String())
	assert.Equal(t, "4800.00", q.Totals.GrandTotalWithMeals.String())
}

func TestPriceMealPlansChildrenAndInfants(t *testing.T) {
	rooms := []BuiltRoom{withMealPlans(deluxeRoom("r1"), "AP")}
	party := Party{Adults: 2, ChildrenNoBed: 1, InfantsWithBed: 1}

	q, err := ValidateAndPrice(rooms, party, 2)
	require.NoError(t, err)
	require.True(t, q.OK)

	meals, issues := PriceMealPlans(q, rooms)
	require.Empty(t, issues)
	require.Len(t, meals, 1)
	assert.Equal(t, inventory.MealPriceAbsolute, meals[0].Mode)
	assert.Equal(t, "1800.00", meals[0].PerNight.String())
	assert.Equal(t, "3600.00", meals[0].Total.String())
}

func TestPriceMealPlansIncludedPlanIsFree(t *testing.T) {
	rooms := []BuiltRoom{withMealPlans(deluxeRoom("r1"), "EP"), deluxeRoom("r2")}

	q, err := Compose(rooms, Party{Adults: 3}, 1)
	require.NoError(t, err)
	require.True(t, q.OK)
	assert.Equal(t, "0.00", q.Totals.MealTotal.String())
	assert.Equal(t, q.Totals.GrandTotal, q.Totals.GrandTotalWithMeals)
}

func TestComposeUnknownMealPlan(t *testing.T) {
	rooms := []BuiltRoom{withMealPlans(deluxeRoom("r1"), "FB")}

	q, err := Compose(rooms, Party{Adults: 2}, 1)
	require.NoError(t, err)
	assert.False(t, q.OK)
	require.Len(t, q.Errors, 1)
	assert.Equal(t, IssueUnknownMealPlan, q.Errors[0].Code)
	assert.Equal(t, "r1", q.Errors[0].RoomID)
}

func TestCombineTotalsWithMealsRejectsForeignRooms(t *testing.T) {
	q, err := ValidateAndPrice([]BuiltRoom{deluxeRoom("r1")}, Party{Adults: 2}, 1)
	require.NoError(t, err)

	_, err = CombineTotalsWithMeals(q.Totals, []MealCharge{{RoomID: "other", Total: inr(10)}})
	assert.ErrorIs(t, err, ErrMealRoomMismatch)
}
