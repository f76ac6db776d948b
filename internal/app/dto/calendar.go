package dto

import (
	"encoding/json"

	"staybook/internal/domain/pricing"
	"staybook/internal/domain/specialrates"
)

// PricedCalendar is the day-by-day availability and price view of a property.
// Field names follow the calendar contract consumed by the booking UI.
type PricedCalendar struct {
	PropertyID string        `json:"propertyId"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Days       []CalendarDay `json:"days"`
	Skipped    []SkippedRule `json:"skippedRules,omitempty"`
}

type CalendarDay struct {
	Date     string             `json:"date"`
	RoomType []CalendarRoomType `json:"RoomType"`
}

type CalendarRoomType struct {
	Type               string         `json:"Type"`
	PropertyRoomTypeID string         `json:"PropertyRoomTypeId"`
	TotalNoOfRooms     int            `json:"TotalnoofRooms"`
	AvailableRooms     int            `json:"AvailableRooms"`
	BookedRooms        int            `json:"BookedRooms"`
	UnderMaintenance   int            `json:"UnderMaintenance"`
	Rooms              []CalendarRoom `json:"Rooms"`
	Rate               []CalendarRate `json:"Rate"`
}

type CalendarRoom struct {
	RoomID     string `json:"roomId"`
	RoomNumber string `json:"roomNumber"`
	Status     string `json:"status"`
}

type CalendarRate struct {
	RateID          string       `json:"rateId"`
	Price           json.Number  `json:"price"`
	IsOpen          bool         `json:"isOpen"`
	Date            string       `json:"date"`
	Currency        string       `json:"currency"`
	HasSpecialRate  bool         `json:"hasSpecialRate"`
	FinalPrice      json.Number  `json:"finalPrice"`
	OriginalPrice   json.Number  `json:"originalPrice"`
	SpecialRateID   string       `json:"specialRateId,omitempty"`
	SpecialRateName string       `json:"specialRateName,omitempty"`
	SpecialRateKind string       `json:"specialRateKind,omitempty"`
	DiscountAmount  *json.Number `json:"discountAmount,omitempty"`
	SurchargeAmount *json.Number `json:"surchargeAmount,omitempty"`
	IsGlobalOffer   bool         `json:"isGlobalOffer"`
}

type SkippedRule struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func MapPricedCalendar(propertyID string, cal pricing.Calendar) PricedCalendar {
	out := PricedCalendar{
		PropertyID: propertyID,
		From:       cal.Window.From.String(),
		To:         cal.Window.To.String(),
		Days:       make([]CalendarDay, 0, len(cal.Days)),
	}
	for _, day := range cal.Days {
		entry := CalendarDay{Date: day.Date.String(), RoomType: make([]CalendarRoomType, 0, len(day.RoomTypes))}
		for _, rt := range day.RoomTypes {
			crt := CalendarRoomType{
				Type:               rt.Name,
				PropertyRoomTypeID: string(rt.RoomTypeID),
				TotalNoOfRooms:     rt.Counts.Total,
				AvailableRooms:     rt.Counts.Available,
				BookedRooms:        rt.Counts.Booked,
				UnderMaintenance:   rt.Counts.UnderMaintenance,
				Rooms:              make([]CalendarRoom, 0, len(rt.Rooms)),
				Rate:               []CalendarRate{},
			}
			for _, room := range rt.Rooms {
				crt.Rooms = append(crt.Rooms, CalendarRoom{RoomID: string(room.RoomID), RoomNumber: room.Number, Status: string(room.Status)})
			}
			if rt.Rate != nil {
				crt.Rate = append(crt.Rate, mapRate(*rt.Rate))
			}
			entry.RoomType = append(entry.RoomType, crt)
		}
		out.Days = append(out.Days, entry)
	}
	for _, s := range cal.Skipped {
		out.Skipped = append(out.Skipped, SkippedRule{ID: string(s.ID), Name: s.Name, Reason: s.Reason})
	}
	return out
}

func mapRate(r pricing.PricedRate) CalendarRate {
	out := CalendarRate{
		RateID:         r.RateID,
		Price:          Decimal(r.BasePrice),
		IsOpen:         r.IsOpen,
		Date:           r.Date.String(),
		Currency:       r.BasePrice.Currency,
		HasSpecialRate: r.HasSpecialRate,
		FinalPrice:     Decimal(r.FinalPrice),
		OriginalPrice:  Decimal(r.BasePrice),
		IsGlobalOffer:  r.IsGlobalOffer,
	}
	if !r.HasSpecialRate {
		return out
	}
	out.SpecialRateID = string(r.SpecialRateID)
	out.SpecialRateName = r.SpecialRateName
	out.SpecialRateKind = string(r.SpecialRateKind)
	switch {
	case r.SpecialRateKind == specialrates.KindOffer, r.DiscountAmount.Amount > 0:
		out.DiscountAmount = decimalPtr(&r.DiscountAmount)
	default:
		out.SurchargeAmount = decimalPtr(&r.SurchargeAmount)
	}
	return out
}
