package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/mistergen/internal/adapter"
)

func TestSessionPool_ReusesIdleSessions(t *testing.T) {
	factory := &memFactory{}
	pool := newSessionPool(factory)
	ctx := context.Background()

	first, err := pool.get(ctx)
	require.NoError(t, err)
	pool.put(first)

	again, err := pool.get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)

	second, err := pool.get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Len(t, factory.sessions(), 2)

	require.NoError(t, pool.Close())
	for _, s := range factory.sessions() {
		assert.True(t, s.Closed())
	}
}

func TestSessionPool_DiscardClosesImmediately(t *testing.T) {
	factory := &memFactory{}
	pool := newSessionPool(factory)

	s, err := pool.get(context.Background())
	require.NoError(t, err)

	pool.discard(s)
	assert.True(t, factory.sessions()[0].Closed())

	next, err := pool.get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, s, next)
	require.NoError(t, pool.Close())
}

func TestSessionPool_OpenError(t *testing.T) {
	refused := errors.New("connection refused")
	pool := newSessionPool(adapter.SessionFactoryFunc(func(ctx context.Context) (adapter.Session, error) {
		return nil, refused
	}))

	_, err := pool.get(context.Background())
	assert.ErrorIs(t, err, refused)
	assert.NoError(t, pool.Close())
}
