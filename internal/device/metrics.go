package device

import (
	"net/http"
	"strconv"

	"github.com/clambin/go-common/http/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// NewCallMetrics returns the RequestMetrics used to instrument device calls.
// The returned metrics must be registered with a Prometheus registry.
func NewCallMetrics(namespace, subsystem string, labels prometheus.Labels) metrics.RequestMetrics {
	return metrics.NewRequestMetrics(metrics.Options{
		Namespace:   namespace,
		Subsystem:   subsystem,
		ConstLabels: labels,
		LabelValues: func(request *http.Request, statusCode int) (string, string, string) {
			return request.Method, request.URL.Host, strconv.Itoa(statusCode)
		},
	})
}
