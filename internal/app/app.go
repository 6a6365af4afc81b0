// Package app opens the configured stores and wires the domain services
// shared by the server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/config"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/batchdata"
	"github.com/rpggio/batchreport/internal/domain/report"
	"github.com/rpggio/batchreport/internal/logging"
	"github.com/rpggio/batchreport/internal/mcp"
	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/internal/sqlite"
	"github.com/rpggio/batchreport/internal/timecodec"
	"github.com/rpggio/batchreport/internal/transport"
)

// mcpSessionTimeout bounds idle streamable MCP sessions.
const mcpSessionTimeout = 30 * time.Minute

// App holds the wired services.
type App struct {
	Codec     timecodec.Codec
	Batches   *batch.Service
	Data      *batchdata.Service
	Approvals *approval.Service
	Activity  *activity.Service
	Reports   *report.Service

	dbs []*sqlite.DB
}

// Options tunes how stores are opened.
type Options struct {
	// ReadOnly opens the approval store only if it already exists and never
	// migrates it. Listing commands use it so they leave no files behind.
	ReadOnly bool
}

// Open opens every configured store and builds the services. Log stores that
// do not exist are wired as absent rather than failing startup.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	codec := timecodec.New(loc)
	retry := sqlite.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}

	a := &App{Codec: codec}

	securityDB, err := a.openLog(cfg.Stores.Security.Path, retry, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	alarmDB, err := a.openLog(cfg.Stores.Alarm.Path, retry, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	trendDB, err := a.openLog(cfg.Stores.Trend.Path, retry, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	approvalDB, err := a.openApproval(ctx, cfg.Stores.Approval, retry, opts.ReadOnly, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	security := sqlite.NewSecurityLogRepository(securityDB, cfg.Stores.Security.Table)
	alarms := sqlite.NewAlarmLogRepository(alarmDB, cfg.Stores.Alarm.Table)
	trend := sqlite.NewTrendLogRepository(trendDB, cfg.Stores.Trend.Table)

	a.Activity = activity.NewService(sqlite.NewActivityRepository(approvalDB), logger)
	a.Batches = batch.NewService(security, codec, batch.NewClassifier(cfg.Markers.Start, cfg.Markers.End), logger)
	a.Data = batchdata.NewService(security, alarms, trend, codec, logger)
	a.Approvals = approval.NewService(sqlite.NewApprovalRepository(approvalDB, codec), a.Activity, logger)

	composer, err := report.NewComposer(a.Data, a.Approvals, ReportOptions(cfg))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Reports = report.NewService(a.Batches, composer, a.Activity, logger)
	return a, nil
}

// ReportOptions maps the report and chart sections of cfg onto composer options.
func ReportOptions(cfg config.Config) report.Options {
	opts := report.DefaultOptions()
	if cfg.Report.Title != "" {
		opts.Title = cfg.Report.Title
	}
	opts.RowsPerPage = cfg.Report.RowsPerPage
	for i := 0; i < chart.Channels && i < len(cfg.Chart.Channels); i++ {
		opts.Channels[i] = report.Channel{Name: cfg.Chart.Channels[i].Name, Unit: cfg.Chart.Channels[i].Unit}
	}
	if cfg.Chart.Width > 0 {
		opts.Chart.Width = float64(cfg.Chart.Width)
	}
	if cfg.Chart.Height > 0 {
		opts.Chart.Height = float64(cfg.Chart.Height)
	}
	return opts
}

// MCPServer builds the MCP server over the app's services.
func (a *App) MCPServer(cfg config.Config, version string, logger *slog.Logger) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Batches:   a.Batches,
			Approvals: a.Approvals,
			Reports:   a.Reports,
			Activity:  a.Activity,
		},
		Codec:         a.Codec,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})
}

// HTTPHandler builds the REST API with mcpServer mounted as a streamable
// endpoint on /mcp. A nil mcpServer leaves /mcp unmounted.
func (a *App) HTTPHandler(cfg config.Config, mcpServer *sdkmcp.Server, logger *slog.Logger) http.Handler {
	var mcpHandler http.Handler
	if mcpServer != nil {
		mcpHandler = sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: mcpSessionTimeout},
		)
	}
	return transport.NewServer(transport.Services{
		Batches:   a.Batches,
		Approvals: a.Approvals,
		Reports:   a.Reports,
		Activity:  a.Activity,
	}, transport.Options{
		Codec:       a.Codec,
		RateLimit:   cfg.API.RateLimitPerSec,
		Burst:       cfg.API.Burst,
		CacheTTL:    cfg.API.CacheTTL,
		CORSOrigins: cfg.API.CORSOrigins,
		MCP:         mcpHandler,
		Logger:      logger,
	})
}

// Close releases every open store.
func (a *App) Close() error {
	var errs []error
	for _, db := range a.dbs {
		errs = append(errs, db.Close())
	}
	a.dbs = nil
	return errors.Join(errs...)
}

func (a *App) openLog(path string, retry sqlite.RetryPolicy, logger *slog.Logger) (*sqlite.DB, error) {
	db, err := sqlite.OpenExisting(path)
	if err != nil {
		if errors.Is(err, repository.ErrStoreAbsent) {
			logger.Warn("log store absent", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("opening log store %s: %w", path, err)
	}
	a.dbs = append(a.dbs, db)
	return db.WithRetry(retry), nil
}

func (a *App) openApproval(ctx context.Context, path string, retry sqlite.RetryPolicy, readOnly bool, logger *slog.Logger) (*sqlite.DB, error) {
	if readOnly {
		return a.openLog(path, retry, logger)
	}
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("preparing approval store path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening approval store: %w", err)
	}
	a.dbs = append(a.dbs, db)
	current, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		logger.Info("migrating approval store", "path", path, "version", current, "pending", pending)
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return db.WithRetry(retry), nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
