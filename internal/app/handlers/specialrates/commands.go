package specialrates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/uow"
	"staybook/internal/domain/inventory"
	domainrates "staybook/internal/domain/specialrates"
)

const (
	createKey    = "specialrates.create"
	updateKey    = "specialrates.update"
	deleteKey    = "specialrates.delete"
	setActiveKey = "specialrates.set_active"
)

var errRateIDRequired = errors.New("specialrates: rate id is required")

type CreateSpecialRateCommand struct {
	PropertyID string
	Input      dto.SpecialRateInput
}

func (c CreateSpecialRateCommand) Key() string { return createKey }

func (c CreateSpecialRateCommand) Validate() error {
	if strings.TrimSpace(c.PropertyID) == "" {
		return domainrates.ErrPropertyRequired
	}
	return nil
}

type UpdateSpecialRateCommand struct {
	PropertyID string
	RateID     string
	Input      dto.SpecialRateInput
}

func (c UpdateSpecialRateCommand) Key() string { return updateKey }

func (c UpdateSpecialRateCommand) Validate() error {
	return requireIDs(c.PropertyID, c.RateID)
}

type DeleteSpecialRateCommand struct {
	PropertyID string
	RateID     string
}

func (c DeleteSpecialRateCommand) Key() string { return deleteKey }

func (c DeleteSpecialRateCommand) Validate() error {
	return requireIDs(c.PropertyID, c.RateID)
}

type SetSpecialRateActiveCommand struct {
	PropertyID string
	RateID     string
	Active     bool
}

func (c SetSpecialRateActiveCommand) Key() string { return setActiveKey }

func (c SetSpecialRateActiveCommand) Validate() error {
	return requireIDs(c.PropertyID, c.RateID)
}

func requireIDs(propertyID, rateID string) error {
	var errs []error
	if strings.TrimSpace(propertyID) == "" {
		errs = append(errs, domainrates.ErrPropertyRequired)
	}
	if strings.TrimSpace(rateID) == "" {
		errs = append(errs, errRateIDRequired)
	}
	return errors.Join(errs...)
}

type DeleteSpecialRateResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type CreateSpecialRateHandler struct {
	UoWFactory  uow.UoWFactory
	IDGenerator func() string
	Now         func() time.Time
	Dependencies
}

func NewCreateSpecialRateHandler(factory uow.UoWFactory, deps Dependencies) *CreateSpecialRateHandler {
	return &CreateSpecialRateHandler{UoWFactory: factory, Dependencies: deps}
}

func (h *CreateSpecialRateHandler) Handle(ctx context.Context, cmd CreateSpecialRateCommand) (_ *dto.SpecialRate, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	property, err := unit.Properties().Property(ctx, inventory.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	params, err := toParams(cmd.Input, domainrates.ID(h.newID()), property, clock(h.Now))
	if err != nil {
		return nil, err
	}
	rate, err := domainrates.New(params, property)
	if err != nil {
		return nil, invalid(err)
	}
	if err := unit.SpecialRates().Save(ctx, rate); err != nil {
		return nil, err
	}
	if err := h.record(ctx, rate); err != nil {
		return nil, err
	}
	h.invalidate(ctx, property.ID)
	out := dto.MapSpecialRate(rate)
	return &out, nil
}

func (h *CreateSpecialRateHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

type UpdateSpecialRateHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
	Dependencies
}

func NewUpdateSpecialRateHandler(factory uow.UoWFactory, deps Dependencies) *UpdateSpecialRateHandler {
	return &UpdateSpecialRateHandler{UoWFactory: factory, Dependencies: deps}
}

func (h *UpdateSpecialRateHandler) Handle(ctx context.Context, cmd UpdateSpecialRateCommand) (_ *dto.SpecialRate, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	property, err := unit.Properties().Property(ctx, inventory.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	rate, err := loadRate(ctx, unit, property.ID, cmd.RateID)
	if err != nil {
		return nil, err
	}
	params, err := toParams(cmd.Input, rate.ID, property, clock(h.Now))
	if err != nil {
		return nil, err
	}
	if err := rate.Update(params, property); err != nil {
		return nil, invalid(err)
	}
	if err := unit.SpecialRates().Save(ctx, rate); err != nil {
		return nil, err
	}
	if err := h.record(ctx, rate); err != nil {
		return nil, err
	}
	h.invalidate(ctx, property.ID)
	out := dto.MapSpecialRate(rate)
	return &out, nil
}

type DeleteSpecialRateHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
	Dependencies
}

func NewDeleteSpecialRateHandler(factory uow.UoWFactory, deps Dependencies) *DeleteSpecialRateHandler {
	return &DeleteSpecialRateHandler{UoWFactory: factory, Dependencies: deps}
}

func (h *DeleteSpecialRateHandler) Handle(ctx context.Context, cmd DeleteSpecialRateCommand) (_ *DeleteSpecialRateResult, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	rate, err := loadRate(ctx, unit, inventory.PropertyID(cmd.PropertyID), cmd.RateID)
	if err != nil {
		return nil, err
	}
	if err := rate.MarkDeleted(clock(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.SpecialRates().Delete(ctx, rate.ID); err != nil {
		return nil, err
	}
	if err := h.record(ctx, rate); err != nil {
		return nil, err
	}
	h.invalidate(ctx, rate.PropertyID)
	return &DeleteSpecialRateResult{ID: string(rate.ID), Deleted: true}, nil
}

type SetSpecialRateActiveHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
	Dependencies
}

func NewSetSpecialRateActiveHandler(factory uow.UoWFactory, deps Dependencies) *SetSpecialRateActiveHandler {
	return &SetSpecialRateActiveHandler{UoWFactory: factory, Dependencies: deps}
}

func (h *SetSpecialRateActiveHandler) Handle(ctx context.Context, cmd SetSpecialRateActiveCommand) (_ *dto.SpecialRate, err error) {
	unit, ctx, finish, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer func() { err = finish(err) }()

	rate, err := loadRate(ctx, unit, inventory.PropertyID(cmd.PropertyID), cmd.RateID)
	if err != nil {
		return nil, err
	}
	rate.SetActive(cmd.Active, clock(h.Now))
	if len(rate.PendingEvents()) > 0 {
		if err := unit.SpecialRates().Save(ctx, rate); err != nil {
			return nil, err
		}
		if err := h.record(ctx, rate); err != nil {
			return nil, err
		}
		h.invalidate(ctx, rate.PropertyID)
	}
	out := dto.MapSpecialRate(rate)
	return &out, nil
}

// loadRate fetches a rate and hides rates of other properties behind ErrNotFound.
func loadRate(ctx context.Context, unit uow.UnitOfWork, propertyID inventory.PropertyID, rateID string) (*domainrates.SpecialRate, error) {
	rate, err := unit.SpecialRates().ByID(ctx, domainrates.ID(rateID))
	if err != nil {
		return nil, err
	}
	if rate.PropertyID != propertyID {
		return nil, fmt.Errorf("%w: %s", domainrates.ErrNotFound, rateID)
	}
	return rate, nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateSpecialRateCommand, *dto.SpecialRate] = (*CreateSpecialRateHandler)(nil)
var _ commands.Handler[UpdateSpecialRateCommand, *dto.SpecialRate] = (*UpdateSpecialRateHandler)(nil)
var _ commands.Handler[DeleteSpecialRateCommand, *DeleteSpecialRateResult] = (*DeleteSpecialRateHandler)(nil)
var _ commands.Handler[SetSpecialRateActiveCommand, *dto.SpecialRate] = (*SetSpecialRateActiveHandler)(nil)
