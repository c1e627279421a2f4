package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Registry holds this service's collectors, kept separate from the default
// registry so the scrape surface only carries what we register here.
var Registry = prometheus.NewRegistry()

var (
	CallsStarted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "callcrm_calls_started_total",
		Help: "Number of call records opened.",
	})

	CallsCompleted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "callcrm_calls_completed_total",
		Help: "Number of call records closed with durations.",
	})

	SalesCreated = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "callcrm_sales_created_total",
		Help: "Number of sales registered.",
	})

	SalesValidated = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "callcrm_sales_validated_total",
		Help: "Number of pending sales resolved by a supervisor.",
	})

	HTTPRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "callcrm_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})
)

// PrometheusHandler exposes the registry in the text exposition format.
func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RequestCounter counts every request by method and response status.
func RequestCounter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		HTTPRequests.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
