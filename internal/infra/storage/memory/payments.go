package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/money"
)

var ErrHoldNotFound = errors.New("memory: payment hold not found")

// Payments mocks a payment provider; holds always succeed.
type Payments struct {
	mu    sync.Mutex
	holds map[string]money.Money
}

func NewPayments() *Payments {
	return &Payments{holds: make(map[string]money.Money)}
}

func (p *Payments) PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := "hold-" + uuid.NewString()
	p.holds[id] = amount
	return id, nil
}

func (p *Payments) ReleaseHold(ctx context.Context, holdID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.holds[holdID]; !ok {
		return ErrHoldNotFound
	}
	delete(p.holds, holdID)
	return nil
}

// Held reports the amount of an active hold.
func (p *Payments) Held(holdID string) (money.Money, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.holds[holdID]
	return m, ok
}

// ActiveHolds counts holds that were placed and not released.
func (p *Payments) ActiveHolds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.holds)
}

var _ policies.PaymentsPort = (*Payments)(nil)
