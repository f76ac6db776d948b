package inventory

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

type RatesChanged struct {
	PropertyID string
	RoomTypeID string
	From       string
	To         string
	At         time.Time
}

func (e RatesChanged) EventName() string     { return "inventory.rates_changed" }
func (e RatesChanged) AggregateID() string   { return e.PropertyID }
func (e RatesChanged) OccurredAt() time.Time { return e.At }

type RoomsBooked struct {
	PropertyID string
	RoomTypeID string
	Rooms      []string
	From       string
	To         string
	At         time.Time
}

func (e RoomsBooked) EventName() string     { return "inventory.rooms_booked" }
func (e RoomsBooked) AggregateID() string   { return e.PropertyID }
func (e RoomsBooked) OccurredAt() time.Time { return e.At }

type RoomsReleased struct {
	PropertyID string
	RoomTypeID string
	Rooms      []string
	From       string
	To         string
	At         time.Time
}

func (e RoomsReleased) EventName() string     { return "inventory.rooms_released" }
func (e RoomsReleased) AggregateID() string   { return e.PropertyID }
func (e RoomsReleased) OccurredAt() time.Time { return e.At }

func RatesChangedEvent(id PropertyID, roomType RoomTypeID, span daterange.Span, at time.Time) RatesChanged {
	return RatesChanged{PropertyID: string(id), RoomTypeID: string(roomType), From: span.From.String(), To: span.To.String(), At: at}
}

func RoomsBookedEvent(id PropertyID, roomType RoomTypeID, rooms []RoomID, span daterange.Span, at time.Time) RoomsBooked {
	return RoomsBooked{PropertyID: string(id), RoomTypeID: string(roomType), Rooms: roomIDStrings(rooms), From: span.From.String(), To: span.To.String(), At: at}
}

func RoomsReleasedEvent(id PropertyID, roomType RoomTypeID, rooms []RoomID, span daterange.Span, at time.Time) RoomsReleased {
	return RoomsReleased{PropertyID: string(id), RoomTypeID: string(roomType), Rooms: roomIDStrings(rooms), From: span.From.String(), To: span.To.String(), At: at}
}

func roomIDStrings(ids []RoomID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
