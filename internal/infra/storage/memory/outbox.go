package memory

import (
	"context"
	"sync"

	appoutbox "staybook/internal/app/outbox"
)

// deliveredLimit bounds the history kept for inspection.
const deliveredLimit = 1000

// Outbox buffers records until Flush hands them to Deliver. Without a Deliver
// func flushed records are only kept for inspection.
type Outbox struct {
	Deliver func(ctx context.Context, record appoutbox.EventRecord) error

	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	delivered []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

// Flush delivers pending records in order and stops at the first failure; the
// failed record and everything after it stay pending.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.pending) > 0 {
		rec := o.pending[0]
		if o.Deliver != nil {
			if err := o.Deliver(ctx, rec); err != nil {
				return err
			}
		}
		o.pending = o.pending[1:]
		o.delivered = append(o.delivered, rec)
		if len(o.delivered) > deliveredLimit {
			o.delivered = append(o.delivered[:0], o.delivered[len(o.delivered)-deliveredLimit:]...)
		}
	}
	return nil
}

func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.pending...)
}

func (o *Outbox) Delivered() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.delivered...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
