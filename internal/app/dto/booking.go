package dto

import (
	"encoding/json"
	"time"

	domainbooking "staybook/internal/domain/booking"
)

type Party struct {
	Adults          int `json:"adults"`
	ChildrenWithBed int `json:"childrenWithBed"`
	ChildrenNoBed   int `json:"childrenNoBed"`
	InfantsWithBed  int `json:"infantsWithBed"`
	InfantsNoBed    int `json:"infantsNoBed"`
}

func (p Party) Domain() domainbooking.Party {
	return domainbooking.Party{
		Adults:          p.Adults,
		ChildrenWithBed: p.ChildrenWithBed,
		ChildrenNoBed:   p.ChildrenNoBed,
		InfantsWithBed:  p.InfantsWithBed,
		InfantsNoBed:    p.InfantsNoBed,
	}
}

func MapParty(p domainbooking.Party) Party {
	return Party{
		Adults:          p.Adults,
		ChildrenWithBed: p.ChildrenWithBed,
		ChildrenNoBed:   p.ChildrenNoBed,
		InfantsWithBed:  p.InfantsWithBed,
		InfantsNoBed:    p.InfantsNoBed,
	}
}

type ReservedRooms struct {
	RoomTypeID string   `json:"roomTypeId"`
	RoomIDs    []string `json:"roomIds"`
	MealPlanID string   `json:"mealPlanId,omitempty"`
}

type BookingSummary struct {
	ID             string          `json:"id"`
	PropertyID     string          `json:"propertyId"`
	GuestID        string          `json:"guestId"`
	CheckIn        string          `json:"checkIn"`
	CheckOut       string          `json:"checkOut"`
	Nights         int             `json:"nights"`
	Party          Party           `json:"party"`
	Rooms          []ReservedRooms `json:"rooms"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Total          json.Number     `json:"total"`
	SpecialRateIDs []string        `json:"specialRateIds"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type CancellationResult struct {
	BookingID string      `json:"bookingId"`
	Status    string      `json:"status"`
	Refund    json.Number `json:"refund"`
	Penalty   json.Number `json:"penalty"`
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	out := BookingSummary{
		ID:             string(b.ID),
		PropertyID:     string(b.PropertyID),
		GuestID:        b.GuestID,
		CheckIn:        b.Range.CheckIn.Format(time.DateOnly),
		CheckOut:       b.Range.CheckOut.Format(time.DateOnly),
		Nights:         b.Range.Nights(),
		Party:          MapParty(b.Party),
		Rooms:          make([]ReservedRooms, 0, len(b.Rooms)),
		Status:         string(b.State),
		Currency:       b.Total().Currency,
		Total:          Decimal(b.Total()),
		SpecialRateIDs: append([]string{}, b.SpecialRateIDs...),
		CreatedAt:      b.CreatedAt,
	}
	for _, r := range b.Rooms {
		ids := make([]string, 0, len(r.RoomIDs))
		for _, id := range r.RoomIDs {
			ids = append(ids, string(id))
		}
		out.Rooms = append(out.Rooms, ReservedRooms{RoomTypeID: string(r.RoomTypeID), RoomIDs: ids, MealPlanID: r.MealPlanID})
	}
	return out
}
