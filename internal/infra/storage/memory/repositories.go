package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

// Store keeps committed aggregates for the in-memory deployment.
type Store struct {
	mu         sync.RWMutex
	writer     sync.Mutex
	properties map[inventory.PropertyID]*inventory.Property
	rates      map[specialrates.ID]*specialrates.SpecialRate
	bookings   map[domainbooking.BookingID]*domainbooking.Booking
}

func NewStore() *Store {
	return &Store{
		properties: make(map[inventory.PropertyID]*inventory.Property),
		rates:      make(map[specialrates.ID]*specialrates.SpecialRate),
		bookings:   make(map[domainbooking.BookingID]*domainbooking.Booking),
	}
}

// SeedProperty stores a property outside of any unit of work. Used for fixtures.
func (s *Store) SeedProperty(p *inventory.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = cloneProperty(p)
	return nil
}

// SeedSpecialRate stores a special rate outside of any unit of work.
func (s *Store) SeedSpecialRate(r *specialrates.SpecialRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[r.ID] = cloneRate(r)
}

// PropertyRepository reads through the unit's staged writes to the store.
type PropertyRepository struct {
	unit *Unit
}

func (r PropertyRepository) Property(ctx context.Context, id inventory.PropertyID) (*inventory.Property, error) {
	if p, ok := r.unit.properties[id]; ok {
		return cloneProperty(p), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inventory.ErrPropertyNotFound, id)
	}
	return cloneProperty(p), nil
}

func (r PropertyRepository) Save(ctx context.Context, p *inventory.Property) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	cp := cloneProperty(p)
	cp.Version++
	r.unit.properties[p.ID] = cp
	p.Version = cp.Version
	return nil
}

type SpecialRateRepository struct {
	unit *Unit
}

func (r SpecialRateRepository) ByID(ctx context.Context, id specialrates.ID) (*specialrates.SpecialRate, error) {
	if _, gone := r.unit.deletedRates[id]; gone {
		return nil, fmt.Errorf("%w: %s", specialrates.ErrNotFound, id)
	}
	if rate, ok := r.unit.rates[id]; ok {
		return cloneRate(rate), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", specialrates.ErrNotFound, id)
	}
	return cloneRate(rate), nil
}

// ByProperty returns the property's rates ordered by id.
func (r SpecialRateRepository) ByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*specialrates.SpecialRate, error) {
	merged := make(map[specialrates.ID]*specialrates.SpecialRate)
	s := r.unit.store
	s.mu.RLock()
	for id, rate := range s.rates {
		if rate.PropertyID == propertyID {
			merged[id] = rate
		}
	}
	s.mu.RUnlock()
	for id, rate := range r.unit.rates {
		if rate.PropertyID == propertyID {
			merged[id] = rate
		}
	}
	out := make([]*specialrates.SpecialRate, 0, len(merged))
	for id, rate := range merged {
		if _, gone := r.unit.deletedRates[id]; gone {
			continue
		}
		out = append(out, cloneRate(rate))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r SpecialRateRepository) Save(ctx context.Context, rate *specialrates.SpecialRate) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	cp := cloneRate(rate)
	cp.Version++
	r.unit.rates[rate.ID] = cp
	delete(r.unit.deletedRates, rate.ID)
	rate.Version = cp.Version
	return nil
}

func (r SpecialRateRepository) Delete(ctx context.Context, id specialrates.ID) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	delete(r.unit.rates, id)
	r.unit.deletedRates[id] = struct{}{}
	return nil
}

type BookingRepository struct {
	unit *Unit
}

func (r BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, ok := r.unit.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
	}
	return cloneBooking(b), nil
}

func (r BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	cp := cloneBooking(b)
	cp.Version++
	r.unit.bookings[b.ID] = cp
	b.Version = cp.Version
	return nil
}

func (r BookingRepository) ListByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*domainbooking.Booking, error) {
	merged := make(map[domainbooking.BookingID]*domainbooking.Booking)
	s := r.unit.store
	s.mu.RLock()
	for id, b := range s.bookings {
		if b.PropertyID == propertyID {
			merged[id] = b
		}
	}
	s.mu.RUnlock()
	for id, b := range r.unit.bookings {
		if b.PropertyID == propertyID {
			merged[id] = b
		}
	}
	out := make([]*domainbooking.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var (
	_ inventory.Repository     = PropertyRepository{}
	_ specialrates.Repository  = SpecialRateRepository{}
	_ domainbooking.Repository = BookingRepository{}
)
