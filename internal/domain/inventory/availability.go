package inventory

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomBooked      RoomStatus = "booked"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room is one physical room of a room type with its per-day status records.
type Room struct {
	ID           RoomID
	Number       string
	Availability []RoomDayStatus
}

type RoomDayStatus struct {
	Date   daterange.Day
	Status RoomStatus
}

// StatusOn returns the room status for a day; rooms without a record are available.
func (r Room) StatusOn(day daterange.Day) RoomStatus {
	for _, a := range r.Availability {
		if a.Date.Equal(day) {
			switch a.Status {
			case RoomBooked, RoomMaintenance:
				return a.Status
			default:
				return RoomAvailable
			}
		}
	}
	return RoomAvailable
}

// Counts aggregates room statuses of one room type on one day.
type Counts struct {
	Total            int
	Available        int
	Booked           int
	UnderMaintenance int
}

// Tally counts room statuses for the room type on the given day.
func Tally(rt RoomType, day daterange.Day) Counts {
	c := Counts{Total: len(rt.Rooms)}
	for _, room := range rt.Rooms {
		switch room.StatusOn(day) {
		case RoomBooked:
			c.Booked++
		case RoomMaintenance:
			c.UnderMaintenance++
		default:
			c.Available++
		}
	}
	return c
}

// RoomStatusesOn lists every room of the type with its status on the day.
func RoomStatusesOn(rt RoomType, day daterange.Day) []RoomDayView {
	out := make([]RoomDayView, 0, len(rt.Rooms))
	for _, room := range rt.Rooms {
		out = append(out, RoomDayView{RoomID: room.ID, Number: room.Number, Status: room.StatusOn(day)})
	}
	return out
}

type RoomDayView struct {
	RoomID RoomID
	Number string
	Status RoomStatus
}

// MarkBooked flips the given rooms to booked across the day span. It returns the
// picked room ids, or false when fewer than count rooms are free on every day.
func (p *Property) MarkBooked(id RoomTypeID, count int, span daterange.Span, now time.Time) ([]RoomID, bool) {
	rt, ok := p.RoomType(id)
	if !ok || count <= 0 {
		return nil, false
	}
	days := span.Days()
	picked := make([]int, 0, count)
	for i, room := range rt.Rooms {
		if len(picked) == count {
			break
		}
		free := true
		for _, d := range days {
			if room.StatusOn(d) != RoomAvailable {
				free = false
				break
			}
		}
		if free {
			picked = append(picked, i)
		}
	}
	if len(picked) < count {
		return nil, false
	}
	ids := make([]RoomID, 0, len(picked))
	for _, idx := range picked {
		room := &rt.Rooms[idx]
		for _, d := range days {
			room.setStatus(d, RoomBooked)
		}
		ids = append(ids, room.ID)
	}
	p.Record(RoomsBookedEvent(p.ID, id, ids, span, now))
	return ids, true
}

// Release returns booked rooms to available across the span.
func (p *Property) Release(id RoomTypeID, rooms []RoomID, span daterange.Span, now time.Time) {
	rt, ok := p.RoomType(id)
	if !ok {
		return
	}
	want := make(map[RoomID]struct{}, len(rooms))
	for _, r := range rooms {
		want[r] = struct{}{}
	}
	for i := range rt.Rooms {
		if _, ok := want[rt.Rooms[i].ID]; !ok {
			continue
		}
		for _, d := range span.Days() {
			if rt.Rooms[i].StatusOn(d) == RoomBooked {
				rt.Rooms[i].setStatus(d, RoomAvailable)
			}
		}
	}
	p.Record(RoomsReleasedEvent(p.ID, id, rooms, span, now))
}

func (r *Room) setStatus(day daterange.Day, status RoomStatus) {
	for i := range r.Availability {
		if r.Availability[i].Date.Equal(day) {
			r.Availability[i].Status = status
			return
		}
	}
	r.Availability = append(r.Availability, RoomDayStatus{Date: day, Status: status})
}
