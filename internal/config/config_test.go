package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BATCHREPORT_CONFIG_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "TB_SECULOG", cfg.Stores.Security.Table)
	require.Equal(t, DefaultStartMarker, cfg.Markers.Start)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
transport:
  mode: HTTP
stores:
  security:
    path: /data/seculog.db
report:
  rows_per_page: 25
  timezone: UTC
api:
  cache_ttl: 1m
`), 0o644))

	t.Setenv("BATCHREPORT_CONFIG_PATH", path)
	t.Setenv("BATCHREPORT_SERVER_PORT", "7070")
	t.Setenv("BATCHREPORT_START_MARKER", "BEGIN")
	t.Setenv("BATCHREPORT_API_CORS_ORIGINS", "http://hmi.local, ,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, ModeHTTP, cfg.Transport.Mode)
	require.Equal(t, "/data/seculog.db", cfg.Stores.Security.Path)
	require.Equal(t, "TB_SECULOG", cfg.Stores.Security.Table)
	require.Equal(t, 25, cfg.Report.RowsPerPage)
	require.Equal(t, time.Minute, cfg.API.CacheTTL)
	require.Equal(t, "BEGIN", cfg.Markers.Start)
	require.Equal(t, []string{"http://hmi.local", "http://localhost:3000"}, cfg.API.CORSOrigins)
	require.Equal(t, DefaultEndMarker, cfg.Markers.End)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("BATCHREPORT_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "BATCHREPORT_SERVER_PORT")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("BATCHREPORT_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Transport.Mode = "grpc"
	cfg.Report.RowsPerPage = 0
	cfg.Report.Timezone = "Mars/Olympus"
	cfg.Chart.Channels = cfg.Chart.Channels[:2]
	cfg.Markers.End = " "
	cfg.Retry.MaxAttempts = 0
	cfg.API.CORSOrigins = []string{"hmi.local"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "transport.mode", "rows_per_page", "report.timezone", "chart.channels", "markers", "retry.max_attempts", "api.cors_origins"} {
		require.ErrorContains(t, err, want)
	}

	require.NoError(t, Default().Validate())
}
