package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/store"
)

func testConfig(dbType, uri string) *config.AppConfig {
	cfg := *config.DefaultAppConfig
	cfg.Database.Type = dbType
	cfg.Database.URI = uri
	cfg.Database.HealthInterval = 0
	cfg.Database.ConnectTimeout = 2 * time.Second
	return &cfg
}

type failingEnsureStore struct {
	*store.MemoryStore
	pings int
}

func (s *failingEnsureStore) EnsureCollection(context.Context) error {
	return errors.New("not authorized to create collection")
}

func (s *failingEnsureStore) Ping(context.Context) error {
	s.pings++
	return errors.New("connection refused")
}

func TestReadinessTransitions(t *testing.T) {
	var r Readiness
	assert.Equal(t, Disconnected, r.State())
	assert.False(t, r.IsReady())

	require.NoError(t, r.transition(Disconnected, Connecting))
	assert.Error(t, r.transition(Disconnected, Connecting))
	require.NoError(t, r.transition(Connecting, Ready))
	assert.True(t, r.IsReady())

	r.fail()
	assert.Equal(t, Ready, r.State(), "ready is final")

	var f Readiness
	f.fail()
	assert.Equal(t, Failed, f.State())
	assert.Error(t, f.transition(Failed, Connecting))
	assert.Equal(t, "failed", f.State().String())
}

func TestReadinessFinalStatesAreNeverLeft(t *testing.T) {
	for _, final := range []State{Ready, Failed} {
		for _, to := range []State{Disconnected, Connecting, Ready, Failed} {
			var r Readiness
			r.state.Store(int32(final))
			assert.Error(t, r.transition(final, to), "%s -> %s", final, to)
			assert.Equal(t, final, r.State())
		}
	}

	var r Readiness
	assert.Error(t, r.transition(Disconnected, Ready), "connecting cannot be skipped")
	assert.Equal(t, Disconnected, r.State())
	require.NoError(t, r.transition(Disconnected, Failed))
	assert.Equal(t, Failed, r.State())
}

func TestStartMissingLocatorFails(t *testing.T) {
	a := NewApplication(testConfig(config.DatabaseMongo, ""))
	err := a.Start(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURI)
	assert.Equal(t, Failed, a.State())
	assert.Nil(t, a.Store())
}

func TestStartMemoryBecomesReady(t *testing.T) {
	a := NewApplication(testConfig(config.DatabaseMemory, ""))
	require.NoError(t, a.Start(context.Background()))
	defer a.Release()

	assert.True(t, a.IsReady())
	assert.NotNil(t, a.Store())
	assert.True(t, a.Health().Reachable())

	assert.Error(t, a.Start(context.Background()), "the sequence runs once")
	assert.True(t, a.IsReady())
}

func TestStartBoltIsIdempotentAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	for i := 0; i < 2; i++ {
		a := NewApplication(testConfig(config.DatabaseBolt, path))
		require.NoError(t, a.Start(context.Background()))
		assert.True(t, a.IsReady())
		a.Release()
	}
}

func TestStartOpenFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	a := NewApplication(testConfig(config.DatabaseBolt, filepath.Join(blocker, "sub", "shop.db")))
	err := a.Start(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Failed, a.State())
}

func TestStartEnsureFailure(t *testing.T) {
	a := NewApplication(testConfig(config.DatabaseMemory, ""))
	a.OverrideStore(&failingEnsureStore{MemoryStore: store.NewMemoryStore()})
	err := a.Start(context.Background())
	assert.ErrorContains(t, err, "ensuring collection")
	assert.Equal(t, Failed, a.State())
}

func TestStoreHealthTask(t *testing.T) {
	a := NewApplication(testConfig(config.DatabaseMemory, ""))
	assert.False(t, a.Health().Reachable())

	fs := &failingEnsureStore{MemoryStore: store.NewMemoryStore()}
	a.OverrideStore(fs)
	a.SchedStoreHealthTask()
	assert.Equal(t, 1, fs.pings)
	assert.False(t, a.Health().Reachable())
	assert.Error(t, a.Health().Err)
	assert.False(t, a.Health().CheckedAt.IsZero())
}

func TestInitJobSchedulesHealthProbe(t *testing.T) {
	cfg := testConfig(config.DatabaseMemory, "")
	cfg.Database.HealthInterval = time.Minute
	a := NewApplication(cfg)
	require.NoError(t, a.Start(context.Background()))
	defer a.Release()

	require.NotNil(t, a.sched)
	assert.Len(t, a.sched.Entries(), 1)
}
