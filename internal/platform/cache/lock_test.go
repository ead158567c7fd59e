package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerExcludesConcurrentHolders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewLocker(client, "budget:save", time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "42")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "42")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := locker.Acquire(ctx, "43")
	require.NoError(t, err)
	other()

	release()
	again, err := locker.Acquire(ctx, "42")
	require.NoError(t, err)
	again()
}

func TestLockerLeaseExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewLocker(client, "budget:save", time.Second)
	_, err := locker.Acquire(context.Background(), "42")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := locker.Acquire(context.Background(), "42")
	require.NoError(t, err)
	release()
}

func TestNilLockerGrantsEverything(t *testing.T) {
	var locker *Locker
	release, err := locker.Acquire(context.Background(), "42")
	require.NoError(t, err)
	release()
}
