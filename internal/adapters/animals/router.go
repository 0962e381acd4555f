// Package animals exposes the animal store over HTTP using gin.
package animals

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"menagerie/internal/logging"
	"menagerie/internal/observability"
)

// DefaultServiceName names the otel server spans.
const DefaultServiceName = "menagerie"

// Options configures NewRouter. Zero values select a discard logger, no
// metrics endpoint and DefaultServiceName.
type Options struct {
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	ServiceName string
}

// NewRouter builds the gin engine serving the animals API, /healthz and, when
// metrics are configured, /metrics.
func NewRouter(store Store, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	service := opts.ServiceName
	if service == "" {
		service = DefaultServiceName
	}

	r := gin.New()
	r.Use(requestID(logger), accessLog())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(otelgin.Middleware(service), gin.CustomRecovery(recovery))

	h := NewHandler(store)
	api := r.Group("/api/animals")
	api.GET("", h.list)
	api.GET("/:id", h.get)
	api.POST("", h.create)

	r.GET("/healthz", h.health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	return r
}

func recovery(c *gin.Context, recovered any) {
	logging.From(c.Request.Context()).Error("panic serving request", "panic", recovered, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
