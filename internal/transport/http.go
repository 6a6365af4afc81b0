package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/report"
	"github.com/rpggio/batchreport/internal/timecodec"
	"golang.org/x/time/rate"
)

// BatchService defines batch operations needed by the API.
type BatchService interface {
	List(ctx context.Context) ([]batch.Window, error)
	Find(ctx context.Context, key batch.Key) (batch.Window, error)
}

// ApprovalService defines approval operations needed by the API.
type ApprovalService interface {
	Request(ctx context.Context, in approval.RequestInput) (*approval.Record, error)
	Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (approval.Outcome, error)
	Get(ctx context.Context, key batch.Key) (*approval.Record, error)
	Statuses(ctx context.Context, windows []batch.Window) ([]approval.WindowStatus, error)
}

// ReportService defines report operations needed by the API.
type ReportService interface {
	Generate(ctx context.Context, key batch.Key) (*report.Tree, error)
	Chart(ctx context.Context, key batch.Key, channel int) (*chart.Drawing, error)
}

// ActivityService defines activity operations needed by the API.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains the domain services served over HTTP.
type Services struct {
	Batches   BatchService
	Approvals ApprovalService
	Reports   ReportService
	Activity  ActivityService
}

// Options configures middleware and extra mounts.
type Options struct {
	Codec     timecodec.Codec
	RateLimit float64
	Burst     int
	CacheTTL  time.Duration
	// CORSOrigins enables CORS for these browser origins.
	CORSOrigins []string
	// MCP, when set, is mounted on /mcp.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server holds the handlers of the REST API.
type Server struct {
	svc    Services
	codec  timecodec.Codec
	logger *slog.Logger
}

// NewServer creates the gin engine serving /api, /health and optionally /mcp.
func NewServer(svc Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{svc: svc, codec: opts.Codec, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", OperatorHeader, "Mcp-Session-Id"},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Cache", "Mcp-Session-Id"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if opts.MCP != nil {
		r.Any("/mcp", gin.WrapH(opts.MCP))
	}

	api := r.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(RateLimit(NewIPRateLimiter(rate.Limit(opts.RateLimit), max(opts.Burst, 1))))
	}
	api.Use(OperatorMiddleware())

	// Reports and activity bypass the cache so every report request is audited.
	cached := func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{h} }
	if opts.CacheTTL > 0 {
		mw := ResponseCache(cache.New(opts.CacheTTL, 2*opts.CacheTTL), opts.CacheTTL)
		cached = func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{mw, h} }
	}
	{
		api.GET("/batches", cached(s.listBatches)...)
		api.GET("/batches/:start/:end", cached(s.getBatch)...)
		api.GET("/batches/:start/:end/charts/:channel", cached(s.getChart)...)
		api.GET("/batches/:start/:end/report", s.getReport)
		api.POST("/batches/:start/:end/approval/request", cached(s.requestApproval)...)
		api.POST("/batches/:start/:end/approval/approve", cached(s.approveBatch)...)
		api.GET("/activity", s.listActivity)
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
