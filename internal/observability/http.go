package observability

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsPath is used when no scrape path is configured.
const DefaultMetricsPath = "/metrics"

// MetricsHandler serves the GCC-Pulse collectors in the Prometheus text
// format. A collector that fails to gather is reported in the scrape body
// instead of failing the whole response.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	return adaptor.HTTPHandler(promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer, handler))
}

// RegisterMetricsRoute mounts MetricsHandler at path, falling back to
// DefaultMetricsPath.
func RegisterMetricsRoute(router fiber.Router, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultMetricsPath
	}
	router.Get(path, MetricsHandler())
}
