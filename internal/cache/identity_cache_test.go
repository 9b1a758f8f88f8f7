package cache

import (
	"context"
	"testing"
	"time"

	"clinic_backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdentityCache(client, time.Minute), mr
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	clinicianID := int64(4)

	_, ok, err := c.Get(ctx, "ana@clinic.test")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, &models.Identity{
		AccountID:   2,
		ClinicianID: &clinicianID,
		Email:       "Ana@Clinic.test",
		AccountType: models.AccountTypeDoctor,
	}))
	assert.True(t, mr.Exists("clinic:identity:ana@clinic.test"))

	got, ok, err := c.Get(ctx, "ANA@clinic.test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.AccountID)
	require.NotNil(t, got.ClinicianID)
	assert.Equal(t, int64(4), *got.ClinicianID)

	require.NoError(t, c.Invalidate(ctx, "ana@clinic.test"))
	_, ok, err = c.Get(ctx, "ana@clinic.test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Identity{AccountID: 1, Email: "staff@clinic.test"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "staff@clinic.test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilIdentityCacheAlwaysMisses(t *testing.T) {
	var c *IdentityCache
	ctx := context.Background()

	assert.Nil(t, NewIdentityCache(nil, time.Minute))
	require.NoError(t, c.Set(ctx, &models.Identity{Email: "x@y.z"}))
	_, ok, err := c.Get(ctx, "x@y.z")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, "x@y.z"))
}
