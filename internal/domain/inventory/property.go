package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound  = errors.New("inventory: property not found")
	ErrRoomTypeNotFound  = errors.New("inventory: room type not found")
	ErrNameRequired      = errors.New("inventory: name is required")
	ErrOccupancy         = errors.New("inventory: occupancy must be at least 1")
	ErrExtraBedCapacity  = errors.New("inventory: extra bed capacity must be non-negative")
	ErrNegativePrice     = errors.New("inventory: prices must be non-negative")
	ErrDuplicateRoomType = errors.New("inventory: duplicate room type id")
	ErrDuplicateRate     = errors.New("inventory: duplicate rate for room type and date")
)

type PropertyID string
type RoomTypeID string
type RoomID string

// Property owns room types; rates and per-room availability hang off each room type.
type Property struct {
	ID        PropertyID
	Name      string
	Currency  string
	RoomTypes []RoomType
	Version   int64
	UpdatedAt time.Time
	events.EventRecorder
}

// ExtraBedPrices are nightly surcharges per guest category sleeping in an extra bed.
type ExtraBedPrices struct {
	Adult  money.Money
	Child  money.Money
	Infant money.Money
}

type RoomType struct {
	ID                   RoomTypeID
	Name                 string
	BasePrice            money.Money
	SingleOccupancyPrice money.Money
	Occupancy            int
	ExtraBedCapacity     int
	ExtraBedPrices       ExtraBedPrices
	MealPlans            MealPlanPricing
	Rooms                []Room
	Rates                []DateRate
}

// DateRate is the price and open/closed status of one room type on one day.
type DateRate struct {
	ID     string
	Date   daterange.Day
	Price  money.Money
	IsOpen bool
}

type Repository interface {
	Property(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, property *Property) error
}

// RoomType looks up a room type by id.
func (p *Property) RoomType(id RoomTypeID) (*RoomType, bool) {
	for i := range p.RoomTypes {
		if p.RoomTypes[i].ID == id {
			return &p.RoomTypes[i], true
		}
	}
	return nil, false
}

// HasRoomType reports whether the id belongs to this property.
func (p *Property) HasRoomType(id RoomTypeID) bool {
	_, ok := p.RoomType(id)
	return ok
}

// Validate checks the static configuration of the property and its room types.
func (p *Property) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return errors.New("inventory: property id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if _, err := money.New(0, p.Currency); err != nil {
		return err
	}
	seen := make(map[RoomTypeID]struct{}, len(p.RoomTypes))
	for i := range p.RoomTypes {
		rt := &p.RoomTypes[i]
		if _, dup := seen[rt.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRoomType, rt.ID)
		}
		seen[rt.ID] = struct{}{}
		if err := rt.Validate(); err != nil {
			return fmt.Errorf("room type %s: %w", rt.ID, err)
		}
	}
	return nil
}

func (rt *RoomType) Validate() error {
	if strings.TrimSpace(string(rt.ID)) == "" {
		return errors.New("inventory: room type id is required")
	}
	if strings.TrimSpace(rt.Name) == "" {
		return ErrNameRequired
	}
	if rt.Occupancy < 1 {
		return ErrOccupancy
	}
	if rt.ExtraBedCapacity < 0 {
		return ErrExtraBedCapacity
	}
	for _, m := range []money.Money{rt.BasePrice, rt.SingleOccupancyPrice, rt.ExtraBedPrices.Adult, rt.ExtraBedPrices.Child, rt.ExtraBedPrices.Infant} {
		if m.IsNegative() {
			return ErrNegativePrice
		}
	}
	days := make(map[daterange.Day]struct{}, len(rt.Rates))
	for _, r := range rt.Rates {
		if r.Price.IsNegative() {
			return ErrNegativePrice
		}
		if _, dup := days[r.Date]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRate, r.Date)
		}
		days[r.Date] = struct{}{}
	}
	return rt.MealPlans.Validate()
}

// RateOn returns the date rate for the day, if one exists.
func (rt *RoomType) RateOn(day daterange.Day) (DateRate, bool) {
	for _, r := range rt.Rates {
		if r.Date.Equal(day) {
			return r, true
		}
	}
	return DateRate{}, false
}

// SetRates upserts date rates for a room type and records a RatesChanged event.
func (p *Property) SetRates(id RoomTypeID, rates []DateRate, now time.Time) error {
	rt, ok := p.RoomType(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomTypeNotFound, id)
	}
	if len(rates) == 0 {
		return nil
	}
	from, to := rates[0].Date, rates[0].Date
	for _, incoming := range rates {
		if incoming.Price.IsNegative() {
			return ErrNegativePrice
		}
		if incoming.Date.Before(from) {
			from = incoming.Date
		}
		if incoming.Date.After(to) {
			to = incoming.Date
		}
		replaced := false
		for i := range rt.Rates {
			if rt.Rates[i].Date.Equal(incoming.Date) {
				if incoming.ID == "" {
					incoming.ID = rt.Rates[i].ID
				}
				rt.Rates[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			if incoming.ID == "" {
				incoming.ID = string(id) + ":" + incoming.Date.String()
			}
			rt.Rates = append(rt.Rates, incoming)
		}
	}
	p.UpdatedAt = now.UTC()
	p.Record(RatesChangedEvent(p.ID, id, daterange.Span{From: from, To: to}, now))
	return nil
}
