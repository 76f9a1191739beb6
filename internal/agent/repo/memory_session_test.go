package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbon-assistant/server/internal/agent/model"
	errx "github.com/carbon-assistant/server/internal/core/error"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryStore(ttl time.Duration) (*MemorySessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemorySessionStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestMemorySessionCreateGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(0)

	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sess, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Nil(t, sess.Data)
	assert.False(t, sess.DataUploaded)

	other, err := s.Create(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestMemorySessionUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(0)
	id, _ := s.Create(ctx)

	fv := model.FeatureVector{EnergyUsageKWh: 1200, CompanySize: 10}
	require.NoError(t, s.Update(ctx, id, model.SlotData, fv))
	require.NoError(t, s.Update(ctx, id, model.SlotDataUploaded, true))

	sess, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sess.Data)
	assert.Equal(t, fv, *sess.Data)
	assert.True(t, sess.DataUploaded)
	assert.False(t, sess.PredictionMade)
}

func TestMemorySessionGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(0)
	id, _ := s.Create(ctx)
	require.NoError(t, s.Update(ctx, id, model.SlotData, model.FeatureVector{EnergyUsageKWh: 1}))

	sess, _ := s.Get(ctx, id)
	sess.Data.EnergyUsageKWh = 999
	sess.PredictionMade = true

	again, _ := s.Get(ctx, id)
	assert.Equal(t, 1.0, again.Data.EnergyUsageKWh)
	assert.False(t, again.PredictionMade)
}

func TestMemorySessionUnknownID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(0)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)

	err = s.Update(ctx, "missing", model.SlotDataUploaded, true)
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)
	assert.Equal(t, 404, errx.Status(err))
}

func TestMemorySessionRejectsBadValues(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(0)
	id, _ := s.Create(ctx)

	assert.Error(t, s.Update(ctx, id, model.SlotData, "not a vector"))
	assert.Error(t, s.Update(ctx, id, model.Slot("history"), 1))

	require.NoError(t, s.Update(ctx, id, model.SlotDataUploaded, true))
	assert.Error(t, s.Update(ctx, id, model.SlotDataUploaded, false))

	sess, _ := s.Get(ctx, id)
	assert.Nil(t, sess.Data)
	assert.True(t, sess.DataUploaded)
}

func TestMemorySessionExpiresAfterIdleTTL(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore(30 * time.Minute)
	id, _ := s.Create(ctx)

	clock.advance(20 * time.Minute)
	_, err := s.Get(ctx, id)
	require.NoError(t, err, "access within ttl")

	// the previous access refreshed the idle timer
	clock.advance(20 * time.Minute)
	_, err = s.Get(ctx, id)
	require.NoError(t, err)

	clock.advance(31 * time.Minute)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)
}

func TestMemorySessionCreateSweepsExpired(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore(time.Minute)
	_, _ = s.Create(ctx)
	_, _ = s.Create(ctx)
	assert.Equal(t, 2, s.Len())

	clock.advance(2 * time.Minute)
	_, _ = s.Create(ctx)
	assert.Equal(t, 1, s.Len())
}
