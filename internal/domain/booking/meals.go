package booking

import (
	"errors"
	"fmt"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/money"
)

var ErrMealRoomMismatch = errors.New("booking: meal charges do not match the priced rooms")

// MealCharge is the meal cost of one room over the whole stay.
type MealCharge struct {
	RoomID   string
	PlanID   string
	Mode     inventory.MealPlanMode
	PerNight money.Money
	Total    money.Money
}

// PriceMealPlans prices the meal plan selected on every room of a successful
// quote. Adults pay the adult price, every child in the room (with or without a
// bed) pays the child price and infants eat free. Selecting the plan already
// bundled into the room price costs nothing.
func PriceMealPlans(q Quote, rooms []BuiltRoom) ([]MealCharge, []Issue) {
	if !q.OK || len(q.Assignment) != len(rooms) {
		return nil, nil
	}
	currency := q.Totals.Currency
	out := make([]MealCharge, 0, len(rooms))
	var issues []Issue
	for i, room := range rooms {
		charge := MealCharge{
			RoomID:   room.ID,
			PlanID:   room.MealPlanID,
			PerNight: money.Money{Currency: currency},
			Total:    money.Money{Currency: currency},
		}
		if room.MealPlanID == "" || room.MealPlanID == room.MealPlans.Included {
			out = append(out, charge)
			continue
		}
		plan, ok := room.MealPlans.Lookup(room.MealPlanID)
		if !ok {
			issues = append(issues, Issue{
				Code:    IssueUnknownMealPlan,
				Message: fmt.Sprintf("meal plan %s is not offered for room %s", room.MealPlanID, room.ID),
				RoomID:  room.ID,
			})
			continue
		}
		a := q.Assignment[i]
		perNight := int64(a.Adults())*plan.Adult.Amount + int64(a.Children())*plan.Child.Amount
		charge.Mode = plan.Mode
		charge.PerNight = money.Money{Amount: perNight, Currency: currency}
		charge.Total = money.Money{Amount: perNight * int64(q.Nights), Currency: currency}
		out = append(out, charge)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

// CombineTotalsWithMeals adds meal charges to per-room and grand totals.
func CombineTotalsWithMeals(t Totals, meals []MealCharge) (Totals, error) {
	byRoom := make(map[string]MealCharge, len(meals))
	for _, m := range meals {
		byRoom[m.RoomID] = m
	}
	out := t
	out.PerRoom = make([]RoomTotal, len(t.PerRoom))
	var mealSum, grand int64
	for i, rt := range t.PerRoom {
		m, ok := byRoom[rt.RoomID]
		if !ok && len(meals) > 0 {
			return Totals{}, fmt.Errorf("%w: %s", ErrMealRoomMismatch, rt.RoomID)
		}
		rt.MealPlanID = m.PlanID
		rt.MealTotal = money.Money{Amount: m.Total.Amount, Currency: t.Currency}
		rt.TotalWithMeals = money.Money{Amount: rt.RoomTotal.Amount + m.Total.Amount, Currency: t.Currency}
		mealSum += m.Total.Amount
		grand += rt.TotalWithMeals.Amount
		out.PerRoom[i] = rt
	}
	if len(meals) != len(t.PerRoom) && len(meals) > 0 {
		return Totals{}, ErrMealRoomMismatch
	}
	out.MealTotal = money.Money{Amount: mealSum, Currency: t.Currency}
	out.GrandTotalWithMeals = money.Money{Amount: grand, Currency: t.Currency}
	return out, nil
}
