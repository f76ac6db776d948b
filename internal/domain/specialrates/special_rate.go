package specialrates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrNameRequired       = errors.New("specialrates: name is required")
	ErrPropertyRequired   = errors.New("specialrates: property id is required")
	ErrDateFromRequired   = errors.New("specialrates: dateFrom is required")
	ErrDateToRequired     = errors.New("specialrates: dateTo is required")
	ErrDateOrder          = errors.New("specialrates: dateFrom must be before dateTo")
	ErrInvalidKind        = errors.New("specialrates: kind must be offer, peak or custom")
	ErrInvalidMode        = errors.New("specialrates: pricing mode must be flat or percent")
	ErrFlatPriceRequired  = errors.New("specialrates: flatPrice is required when pricing mode is flat")
	ErrPercentRequired    = errors.New("specialrates: percentAdj is required when pricing mode is percent")
	ErrNegativeAdjustment = errors.New("specialrates: adjustments must be non-negative")
	ErrPercentRange       = errors.New("specialrates: offer percentage must not exceed 100")
	ErrInvalidPolicy      = errors.New("specialrates: conflict policy must be exclusive or stack")
	ErrDuplicateLink      = errors.New("specialrates: room type linked more than once")
	ErrUnknownRoomType    = errors.New("specialrates: linked room type does not belong to the property")
	ErrRateInUse          = errors.New("specialrates: rate is used by bookings and cannot be deleted")
	ErrNotFound           = errors.New("specialrates: rate not found")
)

type ID string

type Kind string

const (
	KindOffer  Kind = "offer"
	KindPeak   Kind = "peak"
	KindCustom Kind = "custom"
)

type Mode string

const (
	ModeFlat    Mode = "flat"
	ModePercent Mode = "percent"
)

// ConflictPolicy tells the resolver how a rule combines with other rules on the same day.
type ConflictPolicy string

const (
	// PolicyExclusive rules never combine; only the highest-precedence rule applies.
	PolicyExclusive ConflictPolicy = "exclusive"
	// PolicyStack rules compound on top of a stackable winner.
	PolicyStack ConflictPolicy = "stack"
)

// Adjustment is the pricing part of a rule: a flat amount or a percentage.
// FlatPrice is meaningful only for ModeFlat, PercentAdj only for ModePercent.
type Adjustment struct {
	Mode       Mode
	FlatPrice  *money.Money
	PercentAdj *float64
}

// RoomTypeLink scopes a rule to one room type and may override its adjustment.
type RoomTypeLink struct {
	RoomTypeID inventory.RoomTypeID
	Override   *Adjustment
}

type SpecialRate struct {
	ID             ID
	PropertyID     inventory.PropertyID
	Name           string
	Kind           Kind
	Adjustment     Adjustment
	Span           daterange.Span
	Links          []RoomTypeLink
	Priority       int
	ConflictPolicy ConflictPolicy
	Active         bool
	UsageCount     int
	Metadata       map[string]json.RawMessage
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*SpecialRate, error)
	ByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*SpecialRate, error)
	Save(ctx context.Context, rate *SpecialRate) error
	Delete(ctx context.Context, id ID) error
}

// Params is the unvalidated input of create and update operations.
// Dates are raw strings so that missing and malformed values can be told apart.
type Params struct {
	ID             ID
	PropertyID     inventory.PropertyID
	Name           string
	Kind           Kind
	Mode           Mode
	FlatPrice      *money.Money
	PercentAdj     *float64
	DateFrom       string
	DateTo         string
	Links          []RoomTypeLink
	Priority       int
	ConflictPolicy ConflictPolicy
	Active         *bool
	Metadata       map[string]json.RawMessage
	Now            time.Time
}

// New validates params against the property's room types and builds an active rule.
func New(params Params, property *inventory.Property) (*SpecialRate, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("specialrates: id is required")
	}
	span, err := validate(params, property)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	active := true
	if params.Active != nil {
		active = *params.Active
	}
	rate := &SpecialRate{
		ID:             params.ID,
		PropertyID:     params.PropertyID,
		Name:           strings.TrimSpace(params.Name),
		Kind:           params.Kind,
		Adjustment:     Adjustment{Mode: params.Mode, FlatPrice: params.FlatPrice, PercentAdj: params.PercentAdj},
		Span:           span,
		Links:          append([]RoomTypeLink(nil), params.Links...),
		Priority:       params.Priority,
		ConflictPolicy: normalizePolicy(params.ConflictPolicy),
		Active:         active,
		Metadata:       cloneMetadata(params.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	rate.Record(SpecialRateCreatedEvent(rate, now))
	return rate, nil
}

// Update replaces the rule definition; usage count and identity are kept.
func (r *SpecialRate) Update(params Params, property *inventory.Property) error {
	params.PropertyID = r.PropertyID
	span, err := validate(params, property)
	if err != nil {
		return err
	}
	now := params.Now.UTC()
	r.Name = strings.TrimSpace(params.Name)
	r.Kind = params.Kind
	r.Adjustment = Adjustment{Mode: params.Mode, FlatPrice: params.FlatPrice, PercentAdj: params.PercentAdj}
	r.Span = span
	r.Links = append([]RoomTypeLink(nil), params.Links...)
	r.Priority = params.Priority
	r.ConflictPolicy = normalizePolicy(params.ConflictPolicy)
	if params.Active != nil {
		r.Active = *params.Active
	}
	if params.Metadata != nil {
		r.Metadata = cloneMetadata(params.Metadata)
	}
	r.UpdatedAt = now
	r.Record(SpecialRateUpdatedEvent(r, now))
	return nil
}

func (r *SpecialRate) SetActive(active bool, now time.Time) {
	if r.Active == active {
		return
	}
	r.Active = active
	r.UpdatedAt = now.UTC()
	r.Record(SpecialRateUpdatedEvent(r, now))
}

// MarkUsed increments the usage counter when a booking is priced with this rule.
func (r *SpecialRate) MarkUsed(now time.Time) {
	r.UsageCount++
	r.UpdatedAt = now.UTC()
}

// MarkReleased decrements the usage counter when such a booking is cancelled.
func (r *SpecialRate) MarkReleased(now time.Time) {
	if r.UsageCount > 0 {
		r.UsageCount--
	}
	r.UpdatedAt = now.UTC()
}

// EnsureDeletable blocks deletion of rules referenced by bookings.
func (r *SpecialRate) EnsureDeletable() error {
	if r.UsageCount > 0 {
		return fmt.Errorf("%w (used %d times)", ErrRateInUse, r.UsageCount)
	}
	return nil
}

// MarkDeleted records the deletion event; the repository removes the record.
func (r *SpecialRate) MarkDeleted(now time.Time) error {
	if err := r.EnsureDeletable(); err != nil {
		return err
	}
	r.Record(SpecialRateDeletedEvent(r, now))
	return nil
}

// IsGlobal reports rules without room type links.
func (r *SpecialRate) IsGlobal() bool {
	return len(r.Links) == 0
}

// LinkFor returns the link scoping the rule to the room type, if any.
func (r *SpecialRate) LinkFor(id inventory.RoomTypeID) (RoomTypeLink, bool) {
	for _, l := range r.Links {
		if l.RoomTypeID == id {
			return l, true
		}
	}
	return RoomTypeLink{}, false
}

// Stackable reports whether the rule may compound with others.
func (r *SpecialRate) Stackable() bool {
	return r.ConflictPolicy == PolicyStack
}

func validate(params Params, property *inventory.Property) (daterange.Span, error) {
	var errs []error
	if strings.TrimSpace(params.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		errs = append(errs, ErrPropertyRequired)
	}

	var from, to daterange.Day
	var dateErr bool
	if strings.TrimSpace(params.DateFrom) == "" {
		errs = append(errs, ErrDateFromRequired)
		dateErr = true
	} else if d, err := daterange.ParseDay(params.DateFrom); err != nil {
		errs = append(errs, fmt.Errorf("dateFrom: %w", err))
		dateErr = true
	} else {
		from = d
	}
	if strings.TrimSpace(params.DateTo) == "" {
		errs = append(errs, ErrDateToRequired)
		dateErr = true
	} else if d, err := daterange.ParseDay(params.DateTo); err != nil {
		errs = append(errs, fmt.Errorf("dateTo: %w", err))
		dateErr = true
	} else {
		to = d
	}
	if !dateErr && !from.Before(to) {
		errs = append(errs, ErrDateOrder)
	}

	switch params.Kind {
	case KindOffer, KindPeak, KindCustom:
	default:
		errs = append(errs, ErrInvalidKind)
	}
	errs = append(errs, validateAdjustment(Adjustment{Mode: params.Mode, FlatPrice: params.FlatPrice, PercentAdj: params.PercentAdj}, params.Kind)...)

	switch params.ConflictPolicy {
	case "", PolicyExclusive, PolicyStack:
	default:
		errs = append(errs, ErrInvalidPolicy)
	}

	seen := make(map[inventory.RoomTypeID]struct{}, len(params.Links))
	for _, link := range params.Links {
		if _, dup := seen[link.RoomTypeID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateLink, link.RoomTypeID))
			continue
		}
		seen[link.RoomTypeID] = struct{}{}
		if property != nil && !property.HasRoomType(link.RoomTypeID) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownRoomType, link.RoomTypeID))
		}
		if link.Override != nil {
			for _, err := range validateAdjustment(*link.Override, params.Kind) {
				errs = append(errs, fmt.Errorf("link %s: %w", link.RoomTypeID, err))
			}
		}
	}

	if len(errs) > 0 {
		return daterange.Span{}, errors.Join(errs...)
	}
	return daterange.Span{From: from, To: to}, nil
}

func validateAdjustment(adj Adjustment, kind Kind) []error {
	var errs []error
	switch adj.Mode {
	case ModeFlat:
		if adj.FlatPrice == nil {
			errs = append(errs, ErrFlatPriceRequired)
		} else if adj.FlatPrice.IsNegative() {
			errs = append(errs, ErrNegativeAdjustment)
		}
	case ModePercent:
		if adj.PercentAdj == nil {
			errs = append(errs, ErrPercentRequired)
		} else if kind != KindCustom && *adj.PercentAdj < 0 {
			errs = append(errs, ErrNegativeAdjustment)
		} else if kind == KindOffer && *adj.PercentAdj > 100 {
			errs = append(errs, ErrPercentRange)
		}
	default:
		errs = append(errs, ErrInvalidMode)
	}
	return errs
}

func normalizePolicy(p ConflictPolicy) ConflictPolicy {
	if p == "" {
		return PolicyExclusive
	}
	return p
}

func cloneMetadata(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
