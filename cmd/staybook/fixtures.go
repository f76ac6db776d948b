package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/specialrates"
)

type propertyFixture struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Currency     string               `json:"currency"`
	RoomTypes    []roomTypeFixture    `json:"roomTypes"`
	SpecialRates []specialRateFixture `json:"specialRates"`
}

type roomTypeFixture struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	BasePrice            string             `json:"basePrice"`
	SingleOccupancyPrice string             `json:"singleOccupancyPrice"`
	Occupancy            int                `json:"occupancy"`
	ExtraBedCapacity     int                `json:"extraBedCapacity"`
	ExtraBedPrices       extraBedFixture    `json:"extraBedPrices"`
	MealPlans            mealPlansFixture   `json:"mealPlans"`
	Rooms                []roomFixture      `json:"rooms"`
	OpenRates            *rateWindowFixture `json:"openRates"`
	Rates                []rateFixture      `json:"rates"`
}

type extraBedFixture struct {
	Adult  string `json:"adult"`
	Child  string `json:"child"`
	Infant string `json:"infant"`
}

type mealPlansFixture struct {
	Included string               `json:"included"`
	Plans    []mealPlanFixtureRow `json:"plans"`
}

type mealPlanFixtureRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Mode  string `json:"mode"`
	Adult string `json:"adult"`
	Child string `json:"child"`
}

type roomFixture struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Availability []statusFixture `json:"availability"`
}

type statusFixture struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// rateWindowFixture opens every day between From and To at Price.
type rateWindowFixture struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Price string `json:"price"`
}

type rateFixture struct {
	Date   string `json:"date"`
	Price  string `json:"price"`
	IsOpen *bool  `json:"isOpen"`
}

type specialRateFixture struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	PricingMode    string   `json:"pricingMode"`
	FlatPrice      string   `json:"flatPrice"`
	PercentAdj     *float64 `json:"percentAdj"`
	DateFrom       string   `json:"dateFrom"`
	DateTo         string   `json:"dateTo"`
	RoomTypeIDs    []string `json:"roomTypeIds"`
	Priority       int      `json:"priority"`
	ConflictPolicy string   `json:"conflictPolicy"`
}

func readFixtures(path string) ([]propertyFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return fixtures, nil
}

// seedFixtures stores fixture properties that do not exist yet, together with
// their special rates. Invalid fixtures are logged and skipped.
func seedFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger, now time.Time) error {
	fixtures, err := readFixtures(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return err
	}
	for _, fx := range fixtures {
		property, rates, err := fx.build(now)
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		imported, err := storeFixture(ctx, factory, property, rates)
		if err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		if imported {
			logger.Info("property fixture imported", "property_id", fx.ID, "special_rates", len(rates))
		}
	}
	return nil
}

func storeFixture(ctx context.Context, factory uow.UoWFactory, property *inventory.Property, rates []*specialrates.SpecialRate) (bool, error) {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	if _, err := unit.Properties().Property(ctx, property.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, inventory.ErrPropertyNotFound) {
		return false, err
	}
	if err := unit.Properties().Save(ctx, property); err != nil {
		return false, err
	}
	for _, rate := range rates {
		if err := unit.SpecialRates().Save(ctx, rate); err != nil {
			return false, err
		}
	}
	return true, unit.Commit(ctx)
}

func (fx propertyFixture) build(now time.Time) (*inventory.Property, []*specialrates.SpecialRate, error) {
	property := &inventory.Property{
		ID:        inventory.PropertyID(fx.ID),
		Name:      fx.Name,
		Currency:  fx.Currency,
		UpdatedAt: now,
	}
	for _, rt := range fx.RoomTypes {
		built, err := rt.build(fx.Currency)
		if err != nil {
			return nil, nil, fmt.Errorf("room type %s: %w", rt.ID, err)
		}
		property.RoomTypes = append(property.RoomTypes, built)
	}
	if err := property.Validate(); err != nil {
		return nil, nil, err
	}
	rates := make([]*specialrates.SpecialRate, 0, len(fx.SpecialRates))
	for _, sr := range fx.SpecialRates {
		params, err := sr.params(property, now)
		if err != nil {
			return nil, nil, fmt.Errorf("special rate %s: %w", sr.ID, err)
		}
		rate, err := specialrates.New(params, property)
		if err != nil {
			return nil, nil, fmt.Errorf("special rate %s: %w", sr.ID, err)
		}
		rate.ClearEvents()
		rates = append(rates, rate)
	}
	return property, rates, nil
}

func (fx roomTypeFixture) build(currency string) (inventory.RoomType, error) {
	amounts := map[string]money.Money{}
	for name, raw := range map[string]string{
		"basePrice":             fx.BasePrice,
		"singleOccupancyPrice":  fx.SingleOccupancyPrice,
		"extraBedPrices.adult":  fx.ExtraBedPrices.Adult,
		"extraBedPrices.child":  fx.ExtraBedPrices.Child,
		"extraBedPrices.infant": fx.ExtraBedPrices.Infant,
	} {
		m, err := optionalMoney(raw, currency)
		if err != nil {
			return inventory.RoomType{}, fmt.Errorf("%s: %w", name, err)
		}
		amounts[name] = m
	}
	rt := inventory.RoomType{
		ID:                   inventory.RoomTypeID(fx.ID),
		Name:                 fx.Name,
		BasePrice:            amounts["basePrice"],
		SingleOccupancyPrice: amounts["singleOccupancyPrice"],
		Occupancy:            fx.Occupancy,
		ExtraBedCapacity:     fx.ExtraBedCapacity,
		ExtraBedPrices: inventory.ExtraBedPrices{
			Adult:  amounts["extraBedPrices.adult"],
			Child:  amounts["extraBedPrices.child"],
			Infant: amounts["extraBedPrices.infant"],
		},
		MealPlans: inventory.MealPlanPricing{Included: fx.MealPlans.Included},
	}
	for _, plan := range fx.MealPlans.Plans {
		adult, err := optionalMoney(plan.Adult, currency)
		if err != nil {
			return inventory.RoomType{}, fmt.Errorf("meal plan %s: %w", plan.ID, err)
		}
		child, err := optionalMoney(plan.Child, currency)
		if err != nil {
			return inventory.RoomType{}, fmt.Errorf("meal plan %s: %w", plan.ID, err)
		}
		if rt.MealPlans.Plans == nil {
			rt.MealPlans.Plans = make(map[string]inventory.MealPlanPrice)
		}
		rt.MealPlans.Plans[plan.ID] = inventory.MealPlanPrice{
			PlanID: plan.ID,
			Name:   plan.Name,
			Mode:   inventory.MealPlanMode(plan.Mode),
			Adult:  adult,
			Child:  child,
		}
	}
	for _, room := range fx.Rooms {
		built := inventory.Room{ID: inventory.RoomID(room.ID), Number: room.Number}
		for _, st := range room.Availability {
			day, err := daterange.ParseDay(st.Date)
			if err != nil {
				return inventory.RoomType{}, fmt.Errorf("room %s: %w", room.ID, err)
			}
			built.Availability = append(built.Availability, inventory.RoomDayStatus{Date: day, Status: inventory.RoomStatus(st.Status)})
		}
		rt.Rooms = append(rt.Rooms, built)
	}
	rates, err := fx.rates(currency)
	if err != nil {
		return inventory.RoomType{}, err
	}
	rt.Rates = rates
	return rt, nil
}

// rates expands OpenRates and lets explicit Rates override single days.
func (fx roomTypeFixture) rates(currency string) ([]inventory.DateRate, error) {
	byDay := map[daterange.Day]inventory.DateRate{}
	var order []daterange.Day
	put := func(r inventory.DateRate) {
		if _, ok := byDay[r.Date]; !ok {
			order = append(order, r.Date)
		}
		byDay[r.Date] = r
	}
	if w := fx.OpenRates; w != nil {
		from, err := daterange.ParseDay(w.From)
		if err != nil {
			return nil, fmt.Errorf("openRates.from: %w", err)
		}
		to, err := daterange.ParseDay(w.To)
		if err != nil {
			return nil, fmt.Errorf("openRates.to: %w", err)
		}
		span, err := daterange.NewSpan(from, to)
		if err != nil {
			return nil, fmt.Errorf("openRates: %w", err)
		}
		price, err := money.FromDecimalString(w.Price, currency)
		if err != nil {
			return nil, fmt.Errorf("openRates.price: %w", err)
		}
		for _, day := range span.Days() {
			put(inventory.DateRate{ID: rateID(fx.ID, day), Date: day, Price: price, IsOpen: true})
		}
	}
	for _, r := range fx.Rates {
		day, err := daterange.ParseDay(r.Date)
		if err != nil {
			return nil, fmt.Errorf("rate: %w", err)
		}
		price, err := money.FromDecimalString(r.Price, currency)
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", day, err)
		}
		open := true
		if r.IsOpen != nil {
			open = *r.IsOpen
		}
		put(inventory.DateRate{ID: rateID(fx.ID, day), Date: day, Price: price, IsOpen: open})
	}
	out := make([]inventory.DateRate, 0, len(order))
	for _, day := range order {
		out = append(out, byDay[day])
	}
	return out, nil
}

func (fx specialRateFixture) params(property *inventory.Property, now time.Time) (specialrates.Params, error) {
	params := specialrates.Params{
		ID:             specialrates.ID(fx.ID),
		PropertyID:     property.ID,
		Name:           fx.Name,
		Kind:           specialrates.Kind(fx.Kind),
		Mode:           specialrates.Mode(fx.PricingMode),
		PercentAdj:     fx.PercentAdj,
		DateFrom:       fx.DateFrom,
		DateTo:         fx.DateTo,
		Priority:       fx.Priority,
		ConflictPolicy: specialrates.ConflictPolicy(fx.ConflictPolicy),
		Now:            now,
	}
	if fx.FlatPrice != "" {
		flat, err := money.FromDecimalString(fx.FlatPrice, property.Currency)
		if err != nil {
			return specialrates.Params{}, fmt.Errorf("flatPrice: %w", err)
		}
		params.FlatPrice = &flat
	}
	for _, id := range fx.RoomTypeIDs {
		params.Links = append(params.Links, specialrates.RoomTypeLink{RoomTypeID: inventory.RoomTypeID(id)})
	}
	return params, nil
}

func optionalMoney(raw, currency string) (money.Money, error) {
	if raw == "" {
		return money.New(0, currency)
	}
	return money.FromDecimalString(raw, currency)
}

func rateID(roomType string, day daterange.Day) string {
	return roomType + ":" + day.String()
}
