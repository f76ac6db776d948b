package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidNights      = errors.New("booking: nights must be at least 1")
	ErrNegativeGuests     = errors.New("booking: guest counts must be non-negative")
	ErrRoomConfig         = errors.New("booking: invalid room configuration")
	ErrDuplicateRoom      = errors.New("booking: duplicate room id")
	ErrCurrencyMismatch   = errors.New("booking: rooms must be priced in one currency")
	ErrNightlyRatesLength = errors.New("booking: nightly rates must cover every night")
)

// Issue codes reported in Quote.Errors and Quote.Warnings.
const (
	IssueNoRooms              = "no_rooms"
	IssueEmptyParty           = "empty_party"
	IssueAdultRequired        = "adult_required"
	IssueInsufficientCapacity = "insufficient_capacity"
	IssueUnknownMealPlan      = "unknown_meal_plan"
	IssueRoomUnoccupied       = "room_unoccupied"
	IssueOversizedSelection   = "oversized_selection"
	IssueRoomNotBookable      = "room_not_bookable"
	IssueRoomsUnavailable     = "rooms_unavailable"
)

// Party is the guest composition of one booking attempt.
type Party struct {
	Adults          int
	ChildrenWithBed int
	ChildrenNoBed   int
	InfantsWithBed  int
	InfantsNoBed    int
}

// BedGuests counts guests that need a bed (base or extra).
func (p Party) BedGuests() int {
	return p.Adults + p.ChildrenWithBed + p.InfantsWithBed
}

// Headcount counts every guest including those sharing a bed.
func (p Party) Headcount() int {
	return p.BedGuests() + p.ChildrenNoBed + p.InfantsNoBed
}

func (p Party) Validate() error {
	if p.Adults < 0 || p.ChildrenWithBed < 0 || p.ChildrenNoBed < 0 || p.InfantsWithBed < 0 || p.InfantsNoBed < 0 {
		return ErrNegativeGuests
	}
	return nil
}

// BuiltRoom is one concrete room selected for the stay. Several BuiltRooms of
// the same room type are independent allocation targets.
type BuiltRoom struct {
	ID                   string
	RoomTypeID           inventory.RoomTypeID
	Name                 string
	Occupancy            int
	ExtraBedCapacity     int
	BasePrice            money.Money
	SingleOccupancyPrice money.Money
	// NightlyRates, when set, holds the resolved standard-occupancy price of every
	// night and replaces BasePrice × nights.
	NightlyRates []money.Money
	ExtraBed     inventory.ExtraBedPrices
	MealPlanID   string
	MealPlans    inventory.MealPlanPricing
}

// Capacity is the number of bed-requiring guests the room can take.
func (r BuiltRoom) Capacity() int {
	return r.Occupancy + r.ExtraBedCapacity
}

// RoomAssignment is the guest manifest of one room.
type RoomAssignment struct {
	RoomID        string
	BaseAdults    int
	BaseChildren  int
	BaseInfants   int
	ExtraAdults   int
	ExtraChildren int
	ExtraInfants  int
	ChildrenNoBed int
	InfantsNoBed  int
}

func (a RoomAssignment) Adults() int { return a.BaseAdults + a.ExtraAdults }

// Children counts every child in the room, with or without a bed.
func (a RoomAssignment) Children() int {
	return a.BaseChildren + a.ExtraChildren + a.ChildrenNoBed
}

// BedGuests counts guests occupying a base or extra bed.
func (a RoomAssignment) BedGuests() int {
	return a.BaseAdults + a.BaseChildren + a.BaseInfants + a.ExtraAdults + a.ExtraChildren + a.ExtraInfants
}

func (a RoomAssignment) Guests() int {
	return a.BedGuests() + a.ChildrenNoBed + a.InfantsNoBed
}

type Issue struct {
	Code    string
	Message string
	RoomID  string
}

type RoomTotal struct {
	RoomID          string
	RoomTypeID      inventory.RoomTypeID
	Nights          int
	SingleOccupancy bool
	OccupancyPrice  money.Money
	ExtraBedCharge  money.Money
	RoomTotal       money.Money
	MealPlanID      string
	MealTotal       money.Money
	TotalWithMeals  money.Money
}

type Totals struct {
	Currency            string
	PerRoom             []RoomTotal
	GrandTotal          money.Money
	MealTotal           money.Money
	GrandTotalWithMeals money.Money
}

type Suggestions struct {
	MinRoomsNeeded       int
	AdditionalBedsNeeded int
}

// Quote is the validation and pricing result for one selection of rooms.
type Quote struct {
	OK          bool
	Nights      int
	Errors      []Issue
	Warnings    []Issue
	Totals      Totals
	Assignment  []RoomAssignment
	Suggestions Suggestions
}

// ValidateAndPrice allocates the party to the rooms and prices the stay before
// meals. Business failures are reported through Quote.OK and Quote.Errors; the
// returned error is reserved for malformed input.
func ValidateAndPrice(rooms []BuiltRoom, party Party, nights int) (Quote, error) {
	if nights < 1 {
		return Quote{}, ErrInvalidNights
	}
	if err := party.Validate(); err != nil {
		return Quote{}, err
	}
	currency, err := validateRooms(rooms, nights)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Nights: nights, Totals: Totals{Currency: currency}}
	if len(rooms) == 0 {
		q.Errors = append(q.Errors, Issue{Code: IssueNoRooms, Message: "no rooms selected"})
		return q, nil
	}
	if party.Headcount() == 0 {
		q.Errors = append(q.Errors, Issue{Code: IssueEmptyParty, Message: "party has no guests"})
		return q, nil
	}
	if party.Adults == 0 {
		q.Errors = append(q.Errors, Issue{Code: IssueAdultRequired, Message: "at least one adult is required"})
		return q, nil
	}

	totalCapacity := 0
	for _, r := range rooms {
		totalCapacity += r.Capacity()
	}
	need := party.BedGuests()
	q.Suggestions.MinRoomsNeeded = minRoomsNeeded(rooms, need)
	if need > totalCapacity {
		q.Suggestions.AdditionalBedsNeeded = need - totalCapacity
		q.Errors = append(q.Errors, Issue{
			Code:    IssueInsufficientCapacity,
			Message: fmt.Sprintf("insufficient capacity: %d guests need a bed but the selected rooms hold %d", need, totalCapacity),
		})
		return q, nil
	}

	q.Assignment = allocate(rooms, party)
	q.Totals.PerRoom = make([]RoomTotal, 0, len(rooms))
	grand := int64(0)
	for i, room := range rooms {
		rt := priceRoom(room, q.Assignment[i], nights, currency)
		grand += rt.RoomTotal.Amount
		q.Totals.PerRoom = append(q.Totals.PerRoom, rt)
		if q.Assignment[i].Guests() == 0 {
			q.Warnings = append(q.Warnings, Issue{
				Code:    IssueRoomUnoccupied,
				Message: fmt.Sprintf("room %s has no guests assigned but is still charged", room.ID),
				RoomID:  room.ID,
			})
		}
	}
	if q.Suggestions.MinRoomsNeeded < len(rooms) {
		q.Warnings = append(q.Warnings, Issue{
			Code:    IssueOversizedSelection,
			Message: fmt.Sprintf("the party fits in %d of the %d selected rooms", q.Suggestions.MinRoomsNeeded, len(rooms)),
		})
	}
	q.Totals.GrandTotal = money.Money{Amount: grand, Currency: currency}
	q.Totals.MealTotal = money.Money{Amount: 0, Currency: currency}
	q.Totals.GrandTotalWithMeals = q.Totals.GrandTotal
	for i := range q.Totals.PerRoom {
		q.Totals.PerRoom[i].MealTotal = money.Money{Amount: 0, Currency: currency}
		q.Totals.PerRoom[i].TotalWithMeals = q.Totals.PerRoom[i].RoomTotal
	}
	q.OK = true
	return q, nil
}

// Compose runs capacity validation, meal pricing and the final merge in one call.
func Compose(rooms []BuiltRoom, party Party, nights int) (Quote, error) {
	q, err := ValidateAndPrice(rooms, party, nights)
	if err != nil || !q.OK {
		return q, err
	}
	meals, issues := PriceMealPlans(q, rooms)
	if len(issues) > 0 {
		q.Errors = append(q.Errors, issues...)
		q.OK = false
		return q, nil
	}
	totals, err := CombineTotalsWithMeals(q.Totals, meals)
	if err != nil {
		return Quote{}, err
	}
	q.Totals = totals
	return q, nil
}

// allocate fills base slots room by room (adults, then bed children, then bed
// infants) and only then extra beds in the same order. Guests without a bed
// join rooms that hold an adult, round robin, and never take a slot.
func allocate(rooms []BuiltRoom, party Party) []RoomAssignment {
	asg := make([]RoomAssignment, len(rooms))
	baseFree := make([]int, len(rooms))
	extraFree := make([]int, len(rooms))
	for i, r := range rooms {
		asg[i].RoomID = r.ID
		baseFree[i] = r.Occupancy
		extraFree[i] = r.ExtraBedCapacity
	}
	place := func(count int, slots []int, inc func(i int)) int {
		for i := range slots {
			for count > 0 && slots[i] > 0 {
				slots[i]--
				inc(i)
				count--
			}
		}
		return count
	}

	adults := place(party.Adults, baseFree, func(i int) { asg[i].BaseAdults++ })
	children := place(party.ChildrenWithBed, baseFree, func(i int) { asg[i].BaseChildren++ })
	infants := place(party.InfantsWithBed, baseFree, func(i int) { asg[i].BaseInfants++ })
	place(adults, extraFree, func(i int) { asg[i].ExtraAdults++ })
	place(children, extraFree, func(i int) { asg[i].ExtraChildren++ })
	place(infants, extraFree, func(i int) { asg[i].ExtraInfants++ })

	var hosts []int
	for i := range asg {
		if asg[i].Adults() > 0 {
			hosts = append(hosts, i)
		}
	}
	if len(hosts) == 0 {
		return asg
	}
	next := 0
	for n := 0; n < party.ChildrenNoBed; n++ {
		asg[hosts[next%len(hosts)]].ChildrenNoBed++
		next++
	}
	for n := 0; n < party.InfantsNoBed; n++ {
		asg[hosts[next%len(hosts)]].InfantsNoBed++
		next++
	}
	return asg
}

func priceRoom(room BuiltRoom, a RoomAssignment, nights int, currency string) RoomTotal {
	single := a.Adults() == 1 && a.Guests() == 1 && room.SingleOccupancyPrice.Amount > 0
	n := int64(nights)

	var occupancy int64
	if len(room.NightlyRates) > 0 {
		for _, r := range room.NightlyRates {
			occupancy += r.Amount
		}
		if single {
			// nightly rates are standard-occupancy prices; single occupancy keeps the
			// room type's configured gap to the base price
			occupancy -= (room.BasePrice.Amount - room.SingleOccupancyPrice.Amount) * n
		}
	} else if single {
		occupancy = room.SingleOccupancyPrice.Amount * n
	} else {
		occupancy = room.BasePrice.Amount * n
	}
	if occupancy < 0 {
		occupancy = 0
	}

	extraPerNight := int64(a.ExtraAdults)*room.ExtraBed.Adult.Amount +
		int64(a.ExtraChildren)*room.ExtraBed.Child.Amount +
		int64(a.ExtraInfants)*room.ExtraBed.Infant.Amount
	extra := extraPerNight * n

	return RoomTotal{
		RoomID:          room.ID,
		RoomTypeID:      room.RoomTypeID,
		Nights:          nights,
		SingleOccupancy: single,
		OccupancyPrice:  money.Money{Amount: occupancy, Currency: currency},
		ExtraBedCharge:  money.Money{Amount: extra, Currency: currency},
		RoomTotal:       money.Money{Amount: occupancy + extra, Currency: currency},
		MealPlanID:      room.MealPlanID,
	}
}

// minRoomsNeeded is the smallest k such that the k largest selected rooms hold
// every bed guest. When the selection as a whole is too small it extrapolates
// with the average room capacity of the selection.
func minRoomsNeeded(rooms []BuiltRoom, need int) int {
	if need <= 0 || len(rooms) == 0 {
		return 0
	}
	caps := make([]int, 0, len(rooms))
	total := 0
	for _, r := range rooms {
		caps = append(caps, r.Capacity())
		total += r.Capacity()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(caps)))
	sum := 0
	for i, c := range caps {
		sum += c
		if sum >= need {
			return i + 1
		}
	}
	if total == 0 {
		return 0
	}
	missing := need - total
	extraRooms := (missing*len(rooms) + total - 1) / total
	return len(rooms) + extraRooms
}

func validateRooms(rooms []BuiltRoom, nights int) (string, error) {
	currency := ""
	seen := make(map[string]struct{}, len(rooms))
	check := func(room BuiltRoom, m money.Money) error {
		if m.IsNegative() {
			return fmt.Errorf("%w: room %s has a negative price", ErrRoomConfig, room.ID)
		}
		if m.Amount == 0 && m.Currency == "" {
			return nil
		}
		if currency == "" {
			currency = m.Currency
			return nil
		}
		if m.Currency != currency {
			return ErrCurrencyMismatch
		}
		return nil
	}
	for _, room := range rooms {
		if strings.TrimSpace(room.ID) == "" {
			return "", fmt.Errorf("%w: room id is required", ErrRoomConfig)
		}
		if _, dup := seen[room.ID]; dup {
			return "", fmt.Errorf("%w: %s", ErrDuplicateRoom, room.ID)
		}
		seen[room.ID] = struct{}{}
		if room.Occupancy < 1 {
			return "", fmt.Errorf("%w: room %s occupancy must be at least 1", ErrRoomConfig, room.ID)
		}
		if room.ExtraBedCapacity < 0 {
			return "", fmt.Errorf("%w: room %s extra bed capacity must be non-negative", ErrRoomConfig, room.ID)
		}
		if len(room.NightlyRates) > 0 && len(room.NightlyRates) != nights {
			return "", fmt.Errorf("%w: room %s has %d rates for %d nights", ErrNightlyRatesLength, room.ID, len(room.NightlyRates), nights)
		}
		prices := []money.Money{room.BasePrice, room.SingleOccupancyPrice, room.ExtraBed.Adult, room.ExtraBed.Child, room.ExtraBed.Infant}
		prices = append(prices, room.NightlyRates...)
		for _, p := range room.MealPlans.Plans {
			prices = append(prices, p.Adult, p.Child)
		}
		for _, m := range prices {
			if err := check(room, m); err != nil {
				return "", err
			}
		}
	}
	return currency, nil
}
