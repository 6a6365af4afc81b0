// Package testserver seeds plant log databases in a temp directory and serves
// them through the full HTTP stack for end-to-end tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rpggio/batchreport/internal/app"
	"github.com/rpggio/batchreport/internal/config"
	"github.com/rpggio/batchreport/internal/sqlite"
	"github.com/stretchr/testify/require"
)

// Keys of the two seeded batch windows. The security log also carries an
// end marker at 07:00 with no older start.
const (
	Batch1Start = "20240301080000000"
	Batch1End   = "20240301090000500"
	Batch2Start = "20240301100000000"
	Batch2End   = "20240301113000000"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Config config.Config
}

// New seeds a fresh set of log stores and starts a server over them.
func New(t *testing.T) *TestServer {
	t.Helper()
	return NewWithConfig(t, SeedConfig(t, t.TempDir()))
}

// NewWithConfig starts a server over whatever stores cfg points at.
func NewWithConfig(t *testing.T, cfg config.Config) *TestServer {
	t.Helper()

	a, err := app.Open(context.Background(), cfg, nil, app.Options{})
	require.NoError(t, err)

	server := httptest.NewServer(a.HTTPHandler(cfg, a.MCPServer(cfg, "test", nil), nil))

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a, Config: cfg}
}

// SeedConfig writes the security, alarm and trend databases into dir and
// returns a UTC configuration pointing at them. The approval store path is
// set but not created.
func SeedConfig(t *testing.T, dir string) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Report.Timezone = "UTC"
	cfg.API.CacheTTL = 0
	cfg.API.RateLimitPerSec = 0
	cfg.Stores.Security.Path = filepath.Join(dir, "seculog.db")
	cfg.Stores.Alarm.Path = filepath.Join(dir, "alarmlog.db")
	cfg.Stores.Trend.Path = filepath.Join(dir, "trendlog.db")
	cfg.Stores.Approval = filepath.Join(dir, "approval", "approval.db")

	seed(t, cfg.Stores.Security.Path,
		`CREATE TABLE TB_SECULOG (log_date INTEGER, log_time INTEGER, log_msg TEXT)`,
		`INSERT INTO TB_SECULOG VALUES
			(20240301, 70000000, ?),
			(20240301, 80000000, ?),
			(20240301, 81500000, 'Operator login: alice'),
			(20240301, 90000500, ?),
			(20240301, 100000000, ?),
			(20240301, 104500250, 'Setpoint changed'),
			(20240301, 113000000, ?)`,
		config.DefaultEndMarker, config.DefaultStartMarker, config.DefaultEndMarker,
		config.DefaultStartMarker, config.DefaultEndMarker,
	)
	seed(t, cfg.Stores.Alarm.Path,
		`CREATE TABLE TB_ALARMLOG (occur_date INTEGER, occur_time INTEGER, recover_date INTEGER, recover_time INTEGER, alarm_id TEXT)`,
		`INSERT INTO TB_ALARMLOG VALUES
			(20240301, 82000000, 20240301, 83000000, 'A100'),
			(20240301, 85000000, NULL, NULL, 'A200'),
			(20240301, 120000000, 20240301, 121000000, 'A300')`,
	)
	seed(t, cfg.Stores.Trend.Path,
		`CREATE TABLE TB_TRENDLOG (log_date INTEGER, log_time INTEGER, value1 REAL, value2 REAL, value3 REAL, process_code INTEGER)`,
		`INSERT INTO TB_TRENDLOG VALUES
			(20240301, 80000000, 20.5, 101.0, 4.0, 1),
			(20240301, 81000000, 45.0, 103.5, 6.0, 1),
			(20240301, 82000000, 80.0, 110.0, 8.0, 2),
			(20240301, 83000000, 78.5, NULL, 8.5, 2),
			(20240301, 84000000, 60.0, 104.0, 7.0, 3)`,
	)
	return cfg
}

func seed(t *testing.T, path, schema, insert string, args ...any) {
	t.Helper()
	db, err := sqlite.New(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schema)
	require.NoError(t, err)
	_, err = db.Exec(insert, args...)
	require.NoError(t, err)
}
