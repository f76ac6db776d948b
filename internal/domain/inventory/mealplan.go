package inventory

import (
	"errors"
	"fmt"

	"staybook/internal/domain/shared/money"
)

var (
	ErrMealPlanMode     = errors.New("inventory: meal plan mode must be absolute or delta")
	ErrMealPlanIncluded = errors.New("inventory: included meal plan is not priced")
)

type MealPlanMode string

const (
	// MealPriceAbsolute prices a plan directly per adult/child per night.
	MealPriceAbsolute MealPlanMode = "absolute"
	// MealPriceDelta prices a plan as the increment over the room's included plan.
	MealPriceDelta MealPlanMode = "delta"
)

type MealPlanPrice struct {
	PlanID string
	Name   string
	Mode   MealPlanMode
	Adult  money.Money
	Child  money.Money
}

// MealPlanPricing maps meal plan ids to prices for one room type.
// Included names the plan bundled into the base room price (e.g. "EP" room only).
type MealPlanPricing struct {
	Included string
	Plans    map[string]MealPlanPrice
}

func (m MealPlanPricing) Lookup(planID string) (MealPlanPrice, bool) {
	if m.Plans == nil {
		return MealPlanPrice{}, false
	}
	p, ok := m.Plans[planID]
	return p, ok
}

func (m MealPlanPricing) Validate() error {
	for id, p := range m.Plans {
		switch p.Mode {
		case MealPriceAbsolute, MealPriceDelta:
		default:
			return fmt.Errorf("%w: plan %s", ErrMealPlanMode, id)
		}
		if p.Adult.IsNegative() || p.Child.IsNegative() {
			return ErrNegativePrice
		}
	}
	if m.Included != "" && len(m.Plans) > 0 {
		if _, ok := m.Plans[m.Included]; !ok {
			return fmt.Errorf("%w: %s", ErrMealPlanIncluded, m.Included)
		}
	}
	return nil
}
