package uow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHooksRunByOutcome(t *testing.T) {
	var calls []string
	record := func(name string) func(context.Context) {
		return func(context.Context) { calls = append(calls, name) }
	}

	ctx, hooks := ContextWithHooks(context.Background())
	AfterCommit(ctx, record("commit-1"))
	assert.True(t, AfterRollback(ctx, record("rollback")))
	AfterCommit(ctx, record("commit-2"))
	assert.Empty(t, calls)

	hooks.Settle(ctx, true)
	assert.Equal(t, []string{"commit-1", "commit-2"}, calls)

	hooks.Settle(ctx, false)
	assert.Equal(t, []string{"commit-1", "commit-2"}, calls, "settle runs once")
}

func TestHooksAfterFailedCommit(t *testing.T) {
	var released bool
	ctx, hooks := ContextWithHooks(context.Background())
	AfterRollback(ctx, func(context.Context) { released = true })
	AfterCommit(ctx, func(context.Context) { t.Fatal("commit hook must not run") })

	hooks.Settle(ctx, false)
	assert.True(t, released)
}

func TestHooksWithoutOwner(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)
	assert.False(t, AfterRollback(context.Background(), func(context.Context) {}))

	ctx, hooks := ContextWithHooks(context.Background())
	hooks.Settle(ctx, true)
	late := false
	AfterCommit(ctx, func(context.Context) { late = true })
	assert.True(t, late, "hooks registered after settling run immediately")
	assert.False(t, AfterRollback(ctx, func(context.Context) {}))
}
