package dto

import (
	"encoding/json"

	"staybook/internal/domain/booking"
)

// StayQuote is the validation and pricing result of a room selection.
type StayQuote struct {
	OK           bool               `json:"ok"`
	PropertyID   string             `json:"propertyId"`
	CheckIn      string             `json:"checkIn"`
	CheckOut     string             `json:"checkOut"`
	Nights       int                `json:"nights"`
	Errors       []QuoteIssue       `json:"errors"`
	Warnings     []QuoteIssue       `json:"warnings"`
	Totals       QuoteTotals        `json:"totals"`
	Assignment   []RoomAssignment   `json:"assignment"`
	Suggestions  QuoteSuggestions   `json:"suggestions"`
	SpecialRates []AppliedRateNight `json:"specialRates,omitempty"`
}

type QuoteIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	RoomID  string `json:"roomId,omitempty"`
}

type QuoteTotals struct {
	Currency            string      `json:"currency"`
	PerRoom             []RoomTotal `json:"perRoom"`
	GrandTotal          json.Number `json:"grandTotal"`
	MealTotal           json.Number `json:"mealTotal"`
	GrandTotalWithMeals json.Number `json:"grandTotalWithMeals"`
}

type RoomTotal struct {
	RoomID          string      `json:"roomId"`
	RoomTypeID      string      `json:"roomTypeId"`
	Nights          int         `json:"nights"`
	SingleOccupancy bool        `json:"singleOccupancy"`
	OccupancyPrice  json.Number `json:"occupancyPrice"`
	ExtraBedCharge  json.Number `json:"extraBedCharge"`
	RoomTotal       json.Number `json:"roomTotal"`
	MealPlanID      string      `json:"mealPlanId,omitempty"`
	MealTotal       json.Number `json:"mealTotal"`
	TotalWithMeals  json.Number `json:"totalWithMeals"`
}

type RoomAssignment struct {
	RoomID        string `json:"roomId"`
	Adults        int    `json:"adults"`
	ExtraAdults   int    `json:"extraBedAdults"`
	Children      int    `json:"childrenWithBed"`
	ExtraChildren int    `json:"extraBedChildren"`
	Infants       int    `json:"infantsWithBed"`
	ExtraInfants  int    `json:"extraBedInfants"`
	ChildrenNoBed int    `json:"childrenNoBed"`
	InfantsNoBed  int    `json:"infantsNoBed"`
}

type QuoteSuggestions struct {
	MinRoomsNeeded       int `json:"minRoomsNeeded"`
	AdditionalBedsNeeded int `json:"additionalBedsNeeded,omitempty"`
}

// AppliedRateNight names the special rate that priced a room type on one night.
type AppliedRateNight struct {
	Date          string `json:"date"`
	RoomTypeID    string `json:"roomTypeId"`
	SpecialRateID string `json:"specialRateId"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
}

func MapStayQuote(q booking.Quote) StayQuote {
	out := StayQuote{
		OK:         q.OK,
		Nights:     q.Nights,
		Errors:     mapIssues(q.Errors),
		Warnings:   mapIssues(q.Warnings),
		Assignment: make([]RoomAssignment, 0, len(q.Assignment)),
		Suggestions: QuoteSuggestions{
			MinRoomsNeeded:       q.Suggestions.MinRoomsNeeded,
			AdditionalBedsNeeded: q.Suggestions.AdditionalBedsNeeded,
		},
		Totals: QuoteTotals{
			Currency:            q.Totals.Currency,
			PerRoom:             make([]RoomTotal, 0, len(q.Totals.PerRoom)),
			GrandTotal:          Decimal(q.Totals.GrandTotal),
			MealTotal:           Decimal(q.Totals.MealTotal),
			GrandTotalWithMeals: Decimal(q.Totals.GrandTotalWithMeals),
		},
	}
	for _, rt := range q.Totals.PerRoom {
		out.Totals.PerRoom = append(out.Totals.PerRoom, RoomTotal{
			RoomID:          rt.RoomID,
			RoomTypeID:      string(rt.RoomTypeID),
			Nights:          rt.Nights,
			SingleOccupancy: rt.SingleOccupancy,
			OccupancyPrice:  Decimal(rt.OccupancyPrice),
			ExtraBedCharge:  Decimal(rt.ExtraBedCharge),
			RoomTotal:       Decimal(rt.RoomTotal),
			MealPlanID:      rt.MealPlanID,
			MealTotal:       Decimal(rt.MealTotal),
			TotalWithMeals:  Decimal(rt.TotalWithMeals),
		})
	}
	for _, a := range q.Assignment {
		out.Assignment = append(out.Assignment, RoomAssignment{
			RoomID:        a.RoomID,
			Adults:        a.BaseAdults,
			ExtraAdults:   a.ExtraAdults,
			Children:      a.BaseChildren,
			ExtraChildren: a.ExtraChildren,
			Infants:       a.BaseInfants,
			ExtraInfants:  a.ExtraInfants,
			ChildrenNoBed: a.ChildrenNoBed,
			InfantsNoBed:  a.InfantsNoBed,
		})
	}
	return out
}

func mapIssues(in []booking.Issue) []QuoteIssue {
	out := make([]QuoteIssue, 0, len(in))
	for _, i := range in {
		out = append(out, QuoteIssue{Code: i.Code, Message: i.Message, RoomID: i.RoomID})
	}
	return out
}
