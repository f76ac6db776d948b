// Package pricing resolves nightly room-type prices against special-rate rules.
//
// Resolve is a pure function: it holds no state between calls and returns
// identical output for identical input, which lets callers cache calendars.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/specialrates"
)

var (
	ErrInvalidWindow = errors.New("pricing: invalid calendar window")
	ErrWindowTooLong = errors.New("pricing: calendar window exceeds the maximum length")
)

// MaxWindowDays bounds a single calendar computation.
const MaxWindowDays = 366

// Policy selects how several applicable rules combine on one day.
type Policy string

const (
	// PolicyPrecedence applies the highest-precedence rule, plus any following
	// rules when both the winner and the follower are stackable.
	PolicyPrecedence Policy = "precedence"
	// PolicyStackAll compounds every applicable rule in precedence order.
	PolicyStackAll Policy = "stack_all"
)

type Options struct {
	Policy Policy
}

// Calendar is the priced view of a property's room types over a window.
type Calendar struct {
	Window  daterange.Span
	Days    []Day
	Skipped []SkippedRule
}

type Day struct {
	Date      daterange.Day
	RoomTypes []RoomTypeDay
}

// RoomTypeDay carries availability counts for every room type; Rate is nil when
// the room type has no DateRate on that day and is therefore not bookable.
type RoomTypeDay struct {
	RoomTypeID inventory.RoomTypeID
	Name       string
	Counts     inventory.Counts
	Rooms      []inventory.RoomDayView
	Rate       *PricedRate
}

type PricedRate struct {
	RateID          string
	Date            daterange.Day
	RoomTypeID      inventory.RoomTypeID
	IsOpen          bool
	BasePrice       money.Money
	FinalPrice      money.Money
	HasSpecialRate  bool
	SpecialRateID   specialrates.ID
	SpecialRateName string
	SpecialRateKind specialrates.Kind
	DiscountAmount  money.Money
	SurchargeAmount money.Money
	IsGlobalOffer   bool
	Applied         []AppliedRule
}

// AppliedRule records one rule's effect on the running price.
type AppliedRule struct {
	ID     specialrates.ID
	Name   string
	Kind   specialrates.Kind
	Global bool
	Before money.Money
	After  money.Money
}

type SkippedRule struct {
	ID     specialrates.ID
	Name   string
	Reason string
}

// Resolve prices every (day, room type) pair of the window. Rules with malformed
// data are skipped and reported in Calendar.Skipped instead of failing the call.
func Resolve(roomTypes []inventory.RoomType, rules []*specialrates.SpecialRate, window daterange.Span, opts Options) (Calendar, error) {
	if err := window.Validate(); err != nil {
		return Calendar{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if window.Len() > MaxWindowDays {
		return Calendar{}, ErrWindowTooLong
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyPrecedence
	}

	usable, skipped := screenRules(rules)
	days := window.Days()
	cal := Calendar{Window: window, Days: make([]Day, 0, len(days)), Skipped: skipped}
	for _, day := range days {
		entry := Day{Date: day, RoomTypes: make([]RoomTypeDay, 0, len(roomTypes))}
		for i := range roomTypes {
			rt := &roomTypes[i]
			rtd := RoomTypeDay{
				RoomTypeID: rt.ID,
				Name:       rt.Name,
				Counts:     inventory.Tally(*rt, day),
				Rooms:      inventory.RoomStatusesOn(*rt, day),
			}
			if base, ok := rt.RateOn(day); ok {
				priced := priceDay(rt.ID, base, day, applicable(usable, rt.ID, day), policy)
				rtd.Rate = &priced
			}
			entry.RoomTypes = append(entry.RoomTypes, rtd)
		}
		cal.Days = append(cal.Days, entry)
	}
	return cal, nil
}

// Rates flattens the calendar into its priced records, day by day.
func (c Calendar) Rates() []PricedRate {
	var out []PricedRate
	for _, d := range c.Days {
		for _, rt := range d.RoomTypes {
			if rt.Rate != nil {
				out = append(out, *rt.Rate)
			}
		}
	}
	return out
}

// Rate finds the priced record of a room type on a day.
func (c Calendar) Rate(id inventory.RoomTypeID, day daterange.Day) (PricedRate, bool) {
	for _, d := range c.Days {
		if !d.Date.Equal(day) {
			continue
		}
		for _, rt := range d.RoomTypes {
			if rt.RoomTypeID == id && rt.Rate != nil {
				return *rt.Rate, true
			}
		}
	}
	return PricedRate{}, false
}

func priceDay(id inventory.RoomTypeID, base inventory.DateRate, day daterange.Day, rules []*specialrates.SpecialRate, policy Policy) PricedRate {
	original := base.Price.ClampZero()
	out := PricedRate{
		RateID:     base.ID,
		Date:       day,
		RoomTypeID: id,
		IsOpen:     base.IsOpen,
		BasePrice:  original,
		FinalPrice: original,
	}
	if len(rules) == 0 {
		return out
	}

	winner := rules[0]
	price := original
	for i, rule := range rules {
		if i > 0 && policy != PolicyStackAll && !(winner.Stackable() && rule.Stackable()) {
			continue
		}
		adj := effectiveAdjustment(rule, id)
		next := adjust(price, rule.Kind, adj)
		out.Applied = append(out.Applied, AppliedRule{
			ID:     rule.ID,
			Name:   rule.Name,
			Kind:   rule.Kind,
			Global: rule.IsGlobal(),
			Before: price,
			After:  next,
		})
		price = next
	}

	out.FinalPrice = price
	out.HasSpecialRate = true
	out.SpecialRateID = winner.ID
	out.SpecialRateName = winner.Name
	out.SpecialRateKind = winner.Kind
	out.IsGlobalOffer = winner.IsGlobal() && winner.Kind == specialrates.KindOffer

	diff := original.Amount - price.Amount
	zero := money.Money{Currency: original.Currency}
	out.DiscountAmount = zero
	out.SurchargeAmount = zero
	// Stacked rules can pull in opposite directions; the net change decides.
	kind := winner.Kind
	if len(out.Applied) > 1 {
		kind = specialrates.KindCustom
	}
	switch kind {
	case specialrates.KindOffer:
		out.DiscountAmount = money.Money{Amount: diff, Currency: original.Currency}.ClampZero()
	case specialrates.KindPeak:
		out.SurchargeAmount = money.Money{Amount: -diff, Currency: original.Currency}.ClampZero()
	default:
		if diff > 0 {
			out.DiscountAmount = money.Money{Amount: diff, Currency: original.Currency}
		} else {
			out.SurchargeAmount = money.Money{Amount: -diff, Currency: original.Currency}
		}
	}
	return out
}

// adjust applies one rule to the running price and floors the result at zero.
func adjust(price money.Money, kind specialrates.Kind, adj specialrates.Adjustment) money.Money {
	var next money.Money
	switch adj.Mode {
	case specialrates.ModePercent:
		pct := *adj.PercentAdj
		if kind == specialrates.KindOffer {
			pct = -pct
		}
		next = price.Percent(pct)
	case specialrates.ModeFlat:
		flat := adj.FlatPrice.Amount
		switch kind {
		case specialrates.KindPeak:
			next = money.Money{Amount: price.Amount + flat, Currency: price.Currency}
		case specialrates.KindOffer:
			next = money.Money{Amount: price.Amount - flat, Currency: price.Currency}
		default:
			next = money.Money{Amount: flat, Currency: price.Currency}
		}
	default:
		next = price
	}
	return next.ClampZero()
}

// effectiveAdjustment prefers the room type link override over the rule's own values.
func effectiveAdjustment(rule *specialrates.SpecialRate, id inventory.RoomTypeID) specialrates.Adjustment {
	if link, ok := rule.LinkFor(id); ok && link.Override != nil {
		return *link.Override
	}
	return rule.Adjustment
}

func applicable(rules []*specialrates.SpecialRate, id inventory.RoomTypeID, day daterange.Day) []*specialrates.SpecialRate {
	var out []*specialrates.SpecialRate
	for _, rule := range rules {
		if !rule.Span.Contains(day) {
			continue
		}
		if !rule.IsGlobal() {
			if _, ok := rule.LinkFor(id); !ok {
				continue
			}
		}
		out = append(out, rule)
	}
	return out
}

// screenRules drops inactive rules, reports malformed ones and sorts the rest
// by precedence: priority desc, room-type scoped before global, shorter span,
// then id. The input slice is not modified.
func screenRules(rules []*specialrates.SpecialRate) ([]*specialrates.SpecialRate, []SkippedRule) {
	usable := make([]*specialrates.SpecialRate, 0, len(rules))
	var skipped []SkippedRule
	for _, rule := range rules {
		if rule == nil || !rule.Active {
			continue
		}
		if reason := malformed(rule); reason != "" {
			skipped = append(skipped, SkippedRule{ID: rule.ID, Name: rule.Name, Reason: reason})
			continue
		}
		usable = append(usable, rule)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		a, b := usable[i], usable[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.IsGlobal() != b.IsGlobal() {
			return !a.IsGlobal()
		}
		if la, lb := a.Span.Len(), b.Span.Len(); la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
	return usable, skipped
}

func malformed(rule *specialrates.SpecialRate) string {
	if err := rule.Span.Validate(); err != nil {
		return "invalid date range: " + err.Error()
	}
	if reason := malformedAdjustment(rule.Adjustment, rule.Kind); reason != "" {
		if rule.IsGlobal() {
			return reason
		}
		for _, link := range rule.Links {
			if link.Override == nil {
				return reason
			}
		}
	}
	for _, link := range rule.Links {
		if link.Override == nil {
			continue
		}
		if reason := malformedAdjustment(*link.Override, rule.Kind); reason != "" {
			return fmt.Sprintf("room type %s: %s", link.RoomTypeID, reason)
		}
	}
	switch rule.Kind {
	case specialrates.KindOffer, specialrates.KindPeak, specialrates.KindCustom:
	default:
		return "unknown kind " + string(rule.Kind)
	}
	return ""
}

func malformedAdjustment(adj specialrates.Adjustment, kind specialrates.Kind) string {
	switch adj.Mode {
	case specialrates.ModeFlat:
		if adj.FlatPrice == nil {
			return "flat rule without flatPrice"
		}
		if adj.FlatPrice.IsNegative() {
			return "negative flatPrice"
		}
	case specialrates.ModePercent:
		if adj.PercentAdj == nil {
			return "percent rule without percentAdj"
		}
		if kind != specialrates.KindCustom && *adj.PercentAdj < 0 {
			return "negative percentAdj"
		}
	default:
		return "unknown pricing mode " + string(adj.Mode)
	}
	return ""
}
