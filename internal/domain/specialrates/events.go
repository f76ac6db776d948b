package specialrates

import "time"

type SpecialRateCreated struct {
	RateID     string
	PropertyID string
	Name       string
	Kind       string
	From       string
	To         string
	At         time.Time
}

func (e SpecialRateCreated) EventName() string     { return "specialrate.created" }
func (e SpecialRateCreated) AggregateID() string   { return e.PropertyID }
func (e SpecialRateCreated) OccurredAt() time.Time { return e.At }

type SpecialRateUpdated struct {
	RateID     string
	PropertyID string
	Active     bool
	From       string
	To         string
	At         time.Time
}

func (e SpecialRateUpdated) EventName() string     { return "specialrate.updated" }
func (e SpecialRateUpdated) AggregateID() string   { return e.PropertyID }
func (e SpecialRateUpdated) OccurredAt() time.Time { return e.At }

type SpecialRateDeleted struct {
	RateID     string
	PropertyID string
	At         time.Time
}

func (e SpecialRateDeleted) EventName() string     { return "specialrate.deleted" }
func (e SpecialRateDeleted) AggregateID() string   { return e.PropertyID }
func (e SpecialRateDeleted) OccurredAt() time.Time { return e.At }

func SpecialRateCreatedEvent(r *SpecialRate, at time.Time) SpecialRateCreated {
	return SpecialRateCreated{
		RateID:     string(r.ID),
		PropertyID: string(r.PropertyID),
		Name:       r.Name,
		Kind:       string(r.Kind),
		From:       r.Span.From.String(),
		To:         r.Span.To.String(),
		At:         at,
	}
}

func SpecialRateUpdatedEvent(r *SpecialRate, at time.Time) SpecialRateUpdated {
	return SpecialRateUpdated{
		RateID:     string(r.ID),
		PropertyID: string(r.PropertyID),
		Active:     r.Active,
		From:       r.Span.From.String(),
		To:         r.Span.To.String(),
		At:         at,
	}
}

func SpecialRateDeletedEvent(r *SpecialRate, at time.Time) SpecialRateDeleted {
	return SpecialRateDeleted{RateID: string(r.ID), PropertyID: string(r.PropertyID), At: at}
}
