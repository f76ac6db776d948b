package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
)

type reserveResult struct {
	ID string `json:"id"`
}

type reserveCommand struct {
	key     string
	payload string
}

func (c reserveCommand) Key() string            { return "test.reserve" }
func (c reserveCommand) IdempotencyKey() string { return c.key }
func (c reserveCommand) ResultPrototype() any   { return &reserveResult{} }
func (c reserveCommand) Fingerprint() string    { return c.payload }
func (c reserveCommand) Validate() error {
	if c.payload == "" {
		return errors.New("payload required")
	}
	return nil
}

type memoryIdempotency struct {
	items map[string]IdempotencyRecord
}

func (s *memoryIdempotency) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryIdempotency) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

func countingBus(calls *int, err error) commands.Bus {
	return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &reserveResult{ID: "bk-1"}, nil
	})
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	store := &memoryIdempotency{items: map[string]IdempotencyRecord{}}
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil), Idempotency(store, nil, time.Hour))
	ctx := context.Background()

	first, err := bus.Dispatch(ctx, reserveCommand{key: "k1", payload: "a"})
	require.NoError(t, err)
	second, err := bus.Dispatch(ctx, reserveCommand{key: "k1", payload: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	_, err = bus.Dispatch(ctx, reserveCommand{key: "k1", payload: "b"})
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	_, err = bus.Dispatch(ctx, reserveCommand{payload: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysFailures(t *testing.T) {
	store := &memoryIdempotency{items: map[string]IdempotencyRecord{}}
	calls := 0
	bus := ChainCommands(countingBus(&calls, errors.New("sold out")), Idempotency(store, JSONResultCodec{}, 0))
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, reserveCommand{key: "k1", payload: "a"})
	require.Error(t, err)
	_, err = bus.Dispatch(ctx, reserveCommand{key: "k1", payload: "a"})
	assert.ErrorIs(t, err, ErrReplayedFailure)
	assert.Contains(t, err.Error(), "sold out")
	assert.Equal(t, 1, calls)
}

func TestIdempotencyIgnoresExpiredRecords(t *testing.T) {
	store := &memoryIdempotency{items: map[string]IdempotencyRecord{
		"k1": {Key: "k1", Fingerprint: "other", OccurredAt: time.Now().Add(-2 * time.Hour)},
	}}
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil), Idempotency(store, nil, time.Hour))

	_, err := bus.Dispatch(context.Background(), reserveCommand{key: "k1", payload: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", store.items["k1"].Fingerprint)
}

func TestValidationStopsInvalidCommands(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil), Validation())

	_, err := bus.Dispatch(context.Background(), reserveCommand{key: "k"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, calls)
}

type fakeUnit struct {
	committed, rolledBack bool
}

func (u *fakeUnit) Properties() inventory.Repository      { return nil }
func (u *fakeUnit) SpecialRates() specialrates.Repository { return nil }
func (u *fakeUnit) Bookings() booking.Repository          { return nil }
func (u *fakeUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}
func (u *fakeUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOnSuccessOnly(t *testing.T) {
	factory := &fakeFactory{}
	var seen uow.UnitOfWork
	fail := false
	base := commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		seen, _ = uow.FromContext(ctx)
		if fail {
			return nil, errors.New("boom")
		}
		return "ok", nil
	})
	bus := ChainCommands(base, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), reserveCommand{payload: "a"})
	require.NoError(t, err)
	require.Len(t, factory.units, 1)
	assert.Same(t, factory.units[0], seen)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)

	fail = true
	_, err = bus.Dispatch(context.Background(), reserveCommand{payload: "a"})
	require.Error(t, err)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

type flakyOutbox struct {
	flushes int
	err     error
}

func (o *flakyOutbox) Add(ctx context.Context, rec outbox.EventRecord) error { return nil }
func (o *flakyOutbox) Flush(ctx context.Context) error {
	o.flushes++
	return o.err
}

func TestOutboxFlushLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	box := &flakyOutbox{err: errors.New("broker down")}
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil), OutboxFlush(box, logger))

	res, err := bus.Dispatch(context.Background(), reserveCommand{payload: "a"})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, box.flushes)
	assert.Contains(t, buf.String(), "outbox flush failed")

	failing := ChainCommands(countingBus(&calls, errors.New("nope")), OutboxFlush(box, logger))
	_, err = failing.Dispatch(context.Background(), reserveCommand{payload: "a"})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}

type recordingObserver struct {
	keys []string
	errs []error
}

func (o *recordingObserver) Observe(kind, key string, elapsed time.Duration, err error) {
	o.keys = append(o.keys, kind+":"+key)
	o.errs = append(o.errs, err)
}

func TestChainOrderAndObserve(t *testing.T) {
	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	obs := &recordingObserver{}
	calls := 0
	bus := ChainCommands(countingBus(&calls, nil), Observe(nil, obs), tag("outer"), nil, tag("inner"))

	_, err := bus.Dispatch(context.Background(), reserveCommand{payload: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"command:test.reserve"}, obs.keys)
	assert.NoError(t, obs.errs[0])
}
