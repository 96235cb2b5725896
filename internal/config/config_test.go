package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// The weight watcher owns goroutines; make sure every test shuts its
// store down.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.5, cfg.Intake.ActivationThreshold)
	assert.Equal(t, 3, cfg.Intake.MaxIdentityAttempts)
	assert.Equal(t, 20, cfg.Intake.MaxHandlerIterations)
	assert.Equal(t, 3, cfg.Intake.ClaimCreateMaxAttempts)
	assert.Equal(t, float64(25000), cfg.Triage.AutoApprovalLimit)
	assert.Equal(t, 0.7, cfg.Triage.ConfidenceThreshold)
	assert.Contains(t, cfg.Triage.SafetyCriticalFlags, "severe_injury")
	assert.Contains(t, cfg.Triage.ModerateRiskFlags, "hit_and_run")
	assert.True(t, cfg.AI.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Intake, cfg.Intake)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"intake:\n  activation_threshold: 0.4\ntriage:\n  auto_approval_limit: 10000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.Intake.ActivationThreshold)
	assert.Equal(t, float64(10000), cfg.Triage.AutoApprovalLimit)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Intake.MaxIdentityAttempts)
	assert.Equal(t, 0.7, cfg.Triage.ConfidenceThreshold)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intake: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FNOL_ACTIVATION_THRESHOLD", "0.35")
	t.Setenv("FNOL_AUTO_APPROVAL_LIMIT", "5000")
	t.Setenv("FNOL_DB", "/tmp/other.db")
	t.Setenv("FNOL_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.35, cfg.Intake.ActivationThreshold)
	assert.Equal(t, float64(5000), cfg.Triage.AutoApprovalLimit)
	assert.Equal(t, "/tmp/other.db", cfg.Store.DatabasePath)
	assert.True(t, cfg.Logging.Debug)
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("FNOL_ACTIVATION_THRESHOLD", "very high")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Intake.ActivationThreshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"threshold too high", func(c *Config) { c.Intake.ActivationThreshold = 1.5 }, false},
		{"threshold negative", func(c *Config) { c.Intake.ActivationThreshold = -0.1 }, false},
		{"confidence out of range", func(c *Config) { c.Triage.ConfidenceThreshold = 2 }, false},
		{"negative approval limit", func(c *Config) { c.Triage.AutoApprovalLimit = -1 }, false},
		{"zero identity attempts", func(c *Config) { c.Intake.MaxIdentityAttempts = 0 }, false},
		{"zero handler iterations", func(c *Config) { c.Intake.MaxHandlerIterations = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Intake.ActivationThreshold = 0.6
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, loaded.Intake.ActivationThreshold)
}

func TestTimeoutParsing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetAITimeout())
	assert.Equal(t, 5*time.Second, cfg.GetBusyTimeout())

	cfg.AI.Timeout = "bogus"
	cfg.Store.BusyTimeout = "250ms"
	assert.Equal(t, 30*time.Second, cfg.GetAITimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.GetBusyTimeout())
}

// =============================================================================
// WEIGHT STORE
// =============================================================================

func TestWeightStoreMissingFile(t *testing.T) {
	ws := NewWeightStore(filepath.Join(t.TempDir(), "weights.yaml"))
	assert.Equal(t, 0.7, ws.Weight("hit_and_run", "keyword", 0.7))
}

func TestWeightStoreOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"playbooks:\n  hit_and_run:\n    keyword: 0.9\n"), 0644))

	ws := NewWeightStore(path)
	assert.Equal(t, 0.9, ws.Weight("hit_and_run", "keyword", 0.7))
	// Signals without an override keep the caller's default.
	assert.Equal(t, 0.2, ws.Weight("hit_and_run", "collision", 0.2))
	assert.Equal(t, 0.4, ws.Weight("glass_only", "keyword", 0.4))
}

func TestWeightStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	ws := NewWeightStore(path)
	assert.Equal(t, 0.5, ws.Weight("towing", "keyword", 0.5))

	require.NoError(t, os.WriteFile(path, []byte(
		"playbooks:\n  towing:\n    keyword: 0.1\n"), 0644))
	require.NoError(t, ws.Reload())
	assert.Equal(t, 0.1, ws.Weight("towing", "keyword", 0.5))
}

func TestWeightStoreReloadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("playbooks: ["), 0644))

	ws := NewWeightStore(path)
	assert.Error(t, ws.Reload())
	// A bad file never clobbers the last good table.
	assert.Equal(t, 0.7, ws.Weight("towing", "keyword", 0.7))
}

func TestWeightStoreWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	ws := NewWeightStore(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ws.Watch(ctx))
	defer ws.Stop()

	require.NoError(t, os.WriteFile(path, []byte(
		"playbooks:\n  towing:\n    keyword: 0.2\n"), 0644))

	assert.Eventually(t, func() bool {
		return ws.Weight("towing", "keyword", 0.5) == 0.2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWeightStoreStopIdempotent(t *testing.T) {
	ws := NewWeightStore(filepath.Join(t.TempDir(), "weights.yaml"))
	require.NoError(t, ws.Watch(context.Background()))
	ws.Stop()
	ws.Stop()
}
