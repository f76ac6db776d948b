package memory

import (
	"encoding/json"
	"maps"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/specialrates"
)

// Aggregates are cloned on every read and write so that callers never share
// memory with committed state. Pending events are not carried over.

func cloneProperty(p *inventory.Property) *inventory.Property {
	cp := *p
	cp.EventRecorder = events.EventRecorder{}
	cp.RoomTypes = make([]inventory.RoomType, len(p.RoomTypes))
	for i, rt := range p.RoomTypes {
		rt.Rates = append([]inventory.DateRate(nil), rt.Rates...)
		rooms := make([]inventory.Room, len(rt.Rooms))
		for j, room := range rt.Rooms {
			room.Availability = append([]inventory.RoomDayStatus(nil), room.Availability...)
			rooms[j] = room
		}
		rt.Rooms = rooms
		rt.MealPlans.Plans = maps.Clone(rt.MealPlans.Plans)
		cp.RoomTypes[i] = rt
	}
	return &cp
}

func cloneRate(r *specialrates.SpecialRate) *specialrates.SpecialRate {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	cp.Links = make([]specialrates.RoomTypeLink, len(r.Links))
	for i, l := range r.Links {
		if l.Override != nil {
			o := *l.Override
			l.Override = &o
		}
		cp.Links[i] = l
	}
	if r.Metadata != nil {
		cp.Metadata = make(map[string]json.RawMessage, len(r.Metadata))
		for k, v := range r.Metadata {
			cp.Metadata[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &cp
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	cp.Rooms = make([]domainbooking.ReservedRooms, len(b.Rooms))
	for i, r := range b.Rooms {
		r.RoomIDs = append([]inventory.RoomID(nil), r.RoomIDs...)
		cp.Rooms[i] = r
	}
	cp.SpecialRateIDs = append([]string(nil), b.SpecialRateIDs...)
	cp.Totals.PerRoom = append([]domainbooking.RoomTotal(nil), b.Totals.PerRoom...)
	return &cp
}
