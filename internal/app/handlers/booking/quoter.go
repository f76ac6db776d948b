package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"staybook/internal/app/dto"
	"staybook/internal/app/middleware"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var (
	ErrRoomSelectionRequired = errors.New("booking: at least one room type must be selected")
	ErrRoomCount             = errors.New("booking: room count must be at least 1")
)

// RoomRequest selects Count rooms of one room type with an optional meal plan.
type RoomRequest struct {
	RoomTypeID string `json:"roomTypeId"`
	Count      int    `json:"count"`
	MealPlanID string `json:"mealPlanId,omitempty"`
}

// StayRequest is what the guest asks to quote or book.
type StayRequest struct {
	PropertyID string
	CheckIn    string
	CheckOut   string
	Party      dto.Party
	Rooms      []RoomRequest
}

func (r StayRequest) validate() error {
	var errs []error
	if strings.TrimSpace(r.PropertyID) == "" {
		errs = append(errs, errors.New("booking: property id is required"))
	}
	if _, err := r.dateRange(); err != nil {
		errs = append(errs, err)
	}
	if len(r.Rooms) == 0 {
		errs = append(errs, ErrRoomSelectionRequired)
	}
	for _, room := range r.Rooms {
		if room.Count < 1 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrRoomCount, room.RoomTypeID))
		}
	}
	if err := r.Party.Domain().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r StayRequest) dateRange() (daterange.DateRange, error) {
	in, err := daterange.ParseDay(r.CheckIn)
	if err != nil {
		return daterange.DateRange{}, fmt.Errorf("checkIn: %w", err)
	}
	out, err := daterange.ParseDay(r.CheckOut)
	if err != nil {
		return daterange.DateRange{}, fmt.Errorf("checkOut: %w", err)
	}
	return daterange.New(in.Time(), out.Time())
}

// fingerprint is a stable digest of the request used for idempotency checks.
func (r StayRequest) fingerprint() string {
	rooms := make([]string, 0, len(r.Rooms))
	for _, room := range r.Rooms {
		rooms = append(rooms, fmt.Sprintf("%s*%d/%s", room.RoomTypeID, room.Count, room.MealPlanID))
	}
	sort.Strings(rooms)
	p := r.Party
	return fmt.Sprintf("%s|%s|%s|%d,%d,%d,%d,%d|%s", r.PropertyID, r.CheckIn, r.CheckOut,
		p.Adults, p.ChildrenWithBed, p.ChildrenNoBed, p.InfantsWithBed, p.InfantsNoBed, strings.Join(rooms, ","))
}

// StayQuote is the outcome of quoting a stay: the composer result plus the
// context needed to book it.
type StayQuote struct {
	Property       *inventory.Property
	Range          daterange.DateRange
	Nights         daterange.Span
	Quote          domainbooking.Quote
	AppliedRates   []dto.AppliedRateNight
	SpecialRateIDs []string
}

// DTO renders the quote for API responses.
func (s StayQuote) DTO() dto.StayQuote {
	out := dto.MapStayQuote(s.Quote)
	out.PropertyID = string(s.Property.ID)
	out.CheckIn = s.Range.CheckIn.Format("2006-01-02")
	out.CheckOut = s.Range.CheckOut.Format("2006-01-02")
	out.SpecialRates = s.AppliedRates
	return out
}

// Quoter prices a stay against the property's resolved calendar.
type Quoter struct{}

// Quote resolves nightly rates of the selected room types, checks that every
// night is open with enough free rooms and runs the composer. Business
// failures end up in Quote.Errors; malformed input returns an error wrapping
// middleware.ErrValidation.
func (Quoter) Quote(ctx context.Context, unit uow.UnitOfWork, req StayRequest) (StayQuote, error) {
	if err := req.validate(); err != nil {
		return StayQuote{}, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
	}
	dr, _ := req.dateRange()
	property, err := unit.Properties().Property(ctx, inventory.PropertyID(req.PropertyID))
	if err != nil {
		return StayQuote{}, err
	}
	for _, room := range req.Rooms {
		if !property.HasRoomType(inventory.RoomTypeID(room.RoomTypeID)) {
			return StayQuote{}, fmt.Errorf("%w: %w: %s", middleware.ErrValidation, inventory.ErrRoomTypeNotFound, room.RoomTypeID)
		}
	}
	rules, err := unit.SpecialRates().ByProperty(ctx, property.ID)
	if err != nil {
		return StayQuote{}, err
	}
	nights := dr.NightSpan()
	cal, err := pricing.Resolve(property.RoomTypes, rules, nights, pricing.Options{})
	if err != nil {
		return StayQuote{}, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
	}

	out := StayQuote{Property: property, Range: dr, Nights: nights}
	var (
		built     []domainbooking.BuiltRoom
		issues    []domainbooking.Issue
		applied   = map[string]struct{}{}
		requested = map[inventory.RoomTypeID]int{}
		numbered  = map[inventory.RoomTypeID]int{}
		checked   = map[inventory.RoomTypeID]bool{}
	)
	for _, sel := range req.Rooms {
		requested[inventory.RoomTypeID(sel.RoomTypeID)] += sel.Count
	}
	for _, sel := range req.Rooms {
		rt, _ := property.RoomType(inventory.RoomTypeID(sel.RoomTypeID))
		rates, closed := nightlyRates(cal, rt.ID, nights)
		// Room types selected more than once are checked against the summed count.
		if !checked[rt.ID] {
			checked[rt.ID] = true
			if closed != "" {
				issues = append(issues, domainbooking.Issue{
					Code:    domainbooking.IssueRoomNotBookable,
					Message: fmt.Sprintf("room type %s is not bookable on %s", rt.ID, closed),
				})
			} else {
				out.AppliedRates = append(out.AppliedRates, appliedRates(cal, rt.ID, nights, applied)...)
			}
			if free, want := minAvailable(cal, rt.ID), requested[rt.ID]; free < want {
				issues = append(issues, domainbooking.Issue{
					Code:    domainbooking.IssueRoomsUnavailable,
					Message: fmt.Sprintf("room type %s has %d of %d requested rooms free for the whole stay", rt.ID, free, want),
				})
			}
		}
		for i := 0; i < sel.Count; i++ {
			numbered[rt.ID]++
			built = append(built, domainbooking.BuiltRoom{
				ID:                   fmt.Sprintf("%s-%d", rt.ID, numbered[rt.ID]),
				RoomTypeID:           rt.ID,
				Name:                 rt.Name,
				Occupancy:            rt.Occupancy,
				ExtraBedCapacity:     rt.ExtraBedCapacity,
				BasePrice:            rt.BasePrice,
				SingleOccupancyPrice: rt.SingleOccupancyPrice,
				NightlyRates:         rates,
				ExtraBed:             rt.ExtraBedPrices,
				MealPlanID:           sel.MealPlanID,
				MealPlans:            rt.MealPlans,
			})
		}
	}

	q, err := domainbooking.Compose(built, req.Party.Domain(), dr.Nights())
	if err != nil {
		return StayQuote{}, fmt.Errorf("%w: %w", middleware.ErrValidation, err)
	}
	if len(issues) > 0 {
		q.Errors = append(q.Errors, issues...)
		q.OK = false
	}
	out.Quote = q
	for id := range applied {
		out.SpecialRateIDs = append(out.SpecialRateIDs, id)
	}
	sort.Strings(out.SpecialRateIDs)
	return out, nil
}

// nightlyRates returns the final price of every night, or the first night the
// room type is closed or has no rate.
func nightlyRates(cal pricing.Calendar, id inventory.RoomTypeID, nights daterange.Span) ([]money.Money, string) {
	days := nights.Days()
	out := make([]money.Money, 0, len(days))
	for _, day := range days {
		rate, ok := cal.Rate(id, day)
		if !ok || !rate.IsOpen {
			return nil, day.String()
		}
		out = append(out, rate.FinalPrice)
	}
	return out, ""
}

func minAvailable(cal pricing.Calendar, id inventory.RoomTypeID) int {
	free := -1
	for _, day := range cal.Days {
		for _, rt := range day.RoomTypes {
			if rt.RoomTypeID != id {
				continue
			}
			if free < 0 || rt.Counts.Available < free {
				free = rt.Counts.Available
			}
		}
	}
	return max(free, 0)
}

func appliedRates(cal pricing.Calendar, id inventory.RoomTypeID, nights daterange.Span, seen map[string]struct{}) []dto.AppliedRateNight {
	var out []dto.AppliedRateNight
	for _, day := range nights.Days() {
		rate, ok := cal.Rate(id, day)
		if !ok {
			continue
		}
		for _, a := range rate.Applied {
			seen[string(a.ID)] = struct{}{}
			out = append(out, dto.AppliedRateNight{
				Date:          day.String(),
				RoomTypeID:    string(id),
				SpecialRateID: string(a.ID),
				Name:          a.Name,
				Kind:          string(a.Kind),
			})
		}
	}
	return out
}
