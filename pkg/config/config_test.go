package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, LockMemory, cfg.Lock.Backend)
	assert.Equal(t, 10, cfg.Scheduling.WindowBusinessDays)
	assert.Equal(t, 2, cfg.Scheduling.VirtualPerShift)
	assert.Equal(t, 3, cfg.Scheduling.PresentialPerShift)
	assert.Equal(t, 40, cfg.Scheduling.LevelMediumThreshold)
	assert.Equal(t, 100, cfg.Scheduling.LevelHighThreshold)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_BACKEND", "POSTGRES")
	t.Setenv("SCHEDULING_VIRTUAL_PER_SHIFT", "4")
	t.Setenv("SWEEP_GROUPS", "grp-a, grp-b ,")
	t.Setenv("LOCK_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Scheduling.VirtualPerShift)
	assert.Equal(t, []string{"grp-a", "grp-b"}, cfg.Sweeper.Groups)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
}

func TestSchedulingLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, SchedulingConfig{Timezone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, time.UTC, SchedulingConfig{}.Location())
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
