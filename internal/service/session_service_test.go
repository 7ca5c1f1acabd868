package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

func TestSessionLifecycle(t *testing.T) {
	svc := NewSessionService(time.Hour, testLogger())
	ctx := context.Background()

	sess, err := svc.Connect(ctx, "0xabc")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "0xabc", sess.Wallet)
	assert.Equal(t, 1, svc.Active())

	got, err := svc.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	svc.Disconnect(ctx, sess.Token)
	_, err = svc.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, svc.Active())
}

func TestSessionReconnectReplaces(t *testing.T) {
	svc := NewSessionService(time.Hour, testLogger())
	ctx := context.Background()

	first, err := svc.Connect(ctx, "0xabc")
	require.NoError(t, err)
	second, err := svc.Connect(ctx, "0xabc")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, svc.Active())

	_, err = svc.Get(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Get(ctx, second.Token)
	assert.NoError(t, err)
}

func TestSessionExpiry(t *testing.T) {
	svc := NewSessionService(-time.Second, testLogger()) // already expired
	ctx := context.Background()

	sess, err := svc.Connect(ctx, "0xabc")
	require.NoError(t, err)

	_, err = svc.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, svc.Active(), "expired sessions are evicted on read")
}

func TestSessionEmptyWallet(t *testing.T) {
	svc := NewSessionService(time.Hour, testLogger())
	_, err := svc.Connect(context.Background(), "   ")
	assert.Error(t, err)
}
