package dto

import (
	"encoding/json"
	"time"

	"staybook/internal/domain/specialrates"
)

type SpecialRate struct {
	ID             string                     `json:"id"`
	PropertyID     string                     `json:"propertyId"`
	Name           string                     `json:"name"`
	Kind           string                     `json:"kind"`
	PricingMode    string                     `json:"pricingMode"`
	FlatPrice      *json.Number               `json:"flatPrice,omitempty"`
	PercentAdj     *float64                   `json:"percentAdj,omitempty"`
	DateFrom       string                     `json:"dateFrom"`
	DateTo         string                     `json:"dateTo"`
	RoomTypeLinks  []RoomTypeLink             `json:"roomTypeLinks"`
	Priority       int                        `json:"priority"`
	ConflictPolicy string                     `json:"conflictPolicy"`
	Active         bool                       `json:"active"`
	UsageCount     int                        `json:"usageCount"`
	Metadata       map[string]json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time                  `json:"createdAt"`
	UpdatedAt      time.Time                  `json:"updatedAt"`
}

// RoomTypeLink scopes a rate to a room type. PricingMode is set only when the
// link overrides the rate's own adjustment.
type RoomTypeLink struct {
	RoomTypeID  string       `json:"roomTypeId"`
	PricingMode string       `json:"pricingMode,omitempty"`
	FlatPrice   *json.Number `json:"flatPrice,omitempty"`
	PercentAdj  *float64     `json:"percentAdj,omitempty"`
}

type SpecialRateCollection struct {
	Items []SpecialRate `json:"items"`
}

func MapSpecialRate(r *specialrates.SpecialRate) SpecialRate {
	out := SpecialRate{
		ID:             string(r.ID),
		PropertyID:     string(r.PropertyID),
		Name:           r.Name,
		Kind:           string(r.Kind),
		PricingMode:    string(r.Adjustment.Mode),
		FlatPrice:      decimalPtr(r.Adjustment.FlatPrice),
		PercentAdj:     r.Adjustment.PercentAdj,
		DateFrom:       r.Span.From.String(),
		DateTo:         r.Span.To.String(),
		RoomTypeLinks:  make([]RoomTypeLink, 0, len(r.Links)),
		Priority:       r.Priority,
		ConflictPolicy: string(r.ConflictPolicy),
		Active:         r.Active,
		UsageCount:     r.UsageCount,
		Metadata:       r.Metadata,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, l := range r.Links {
		link := RoomTypeLink{RoomTypeID: string(l.RoomTypeID)}
		if l.Override != nil {
			link.PricingMode = string(l.Override.Mode)
			link.FlatPrice = decimalPtr(l.Override.FlatPrice)
			link.PercentAdj = l.Override.PercentAdj
		}
		out.RoomTypeLinks = append(out.RoomTypeLinks, link)
	}
	return out
}

func MapSpecialRates(rates []*specialrates.SpecialRate) SpecialRateCollection {
	out := SpecialRateCollection{Items: make([]SpecialRate, 0, len(rates))}
	for _, r := range rates {
		out.Items = append(out.Items, MapSpecialRate(r))
	}
	return out
}

// SpecialRateInput is the create/update payload. Amounts are decimals in the
// property's currency.
type SpecialRateInput struct {
	Name           string                     `json:"name"`
	Kind           string                     `json:"kind"`
	PricingMode    string                     `json:"pricingMode"`
	FlatPrice      *json.Number               `json:"flatPrice,omitempty"`
	PercentAdj     *float64                   `json:"percentAdj,omitempty"`
	DateFrom       string                     `json:"dateFrom"`
	DateTo         string                     `json:"dateTo"`
	RoomTypeLinks  []RoomTypeLink             `json:"roomTypeLinks,omitempty"`
	Priority       int                        `json:"priority"`
	ConflictPolicy string                     `json:"conflictPolicy,omitempty"`
	Active         *bool                      `json:"active,omitempty"`
	Metadata       map[string]json.RawMessage `json:"metadata,omitempty"`
}
