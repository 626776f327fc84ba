package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
tracks:
  - id: trk-1
    title: First
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "other", cfg.Session.DeviceClass)
	assert.Equal(t, 250, cfg.Audio.TickIntervalMs)
	assert.Equal(t, "allow", cfg.Audio.AutoplayPolicy)
	assert.Equal(t, "file", cfg.Prefs.Backend)
	assert.Equal(t, "playerd-prefs.json", cfg.Prefs.Path)
	assert.Equal(t, 5000, cfg.Telemetry.TimeoutMs)
	assert.Equal(t, 64, cfg.Telemetry.Buffer)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
session:
  device_class: desktop
audio:
  tick_interval_ms: 100
  autoplay_policy: block
prefs:
  backend: redis
  redis:
    addr: "redis:6379"
    db: 2
    key: "myapp:prefs"
telemetry:
  endpoint: "https://telemetry.example.com/plays"
  timeout_ms: 1000
tracks:
  - id: trk-1
    title: First
    artist: Someone
    duration_sec: 214.5
    genre: rock
    audio_url: "https://cdn.example.com/trk-1.mp3"
  - id: trk-2
    title: Second
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "desktop", cfg.Session.DeviceClass)
	assert.Equal(t, "block", cfg.Audio.AutoplayPolicy)
	assert.Equal(t, "redis", cfg.Prefs.Backend)
	assert.Equal(t, "redis:6379", cfg.Prefs.Redis.Addr)
	assert.Equal(t, 2, cfg.Prefs.Redis.DB)
	assert.Equal(t, "https://telemetry.example.com/plays", cfg.Telemetry.Endpoint)

	tracks := cfg.CatalogTracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "trk-1", tracks[0].ID)
	assert.Equal(t, 214.5, tracks[0].DurationSec)
	assert.True(t, tracks[0].Playable())
	assert.False(t, tracks[1].Playable())
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := writeConfig(t, `
prefs:
  backend: dynamo
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidAutoplayPolicy(t *testing.T) {
	path := writeConfig(t, `
audio:
  autoplay_policy: maybe
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DuplicateTrackID(t *testing.T) {
	path := writeConfig(t, `
tracks:
  - id: trk-1
    title: First
  - id: trk-1
    title: Copy
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_TrackMissingTitle(t *testing.T) {
	path := writeConfig(t, `
tracks:
  - id: trk-1
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_TrackNegativeDuration(t *testing.T) {
	path := writeConfig(t, `
tracks:
  - id: trk-1
    title: First
    duration_sec: -10
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DeviceClasses(t *testing.T) {
	for _, class := range []string{"mobile", "desktop", "tablet", "speaker", "tv", "other"} {
		t.Run(class, func(t *testing.T) {
			path := writeConfig(t, "session:\n  device_class: "+class+"\n")

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, class, cfg.Session.DeviceClass)
		})
	}
}

func TestLoad_InvalidDeviceClass(t *testing.T) {
	path := writeConfig(t, `
session:
  device_class: toaster
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("TELEMETRY_ENDPOINT", "https://override.example.com/plays")

	path := writeConfig(t, `
prefs:
  backend: redis
telemetry:
  endpoint: "https://file.example.com/plays"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Prefs.Redis.Password)
	assert.Equal(t, "https://override.example.com/plays", cfg.Telemetry.Endpoint)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
