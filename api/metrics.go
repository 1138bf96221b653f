package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry     *prometheus.Registry
	tasksSaved   prometheus.Counter
	httpRequests *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		tasksSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmon_user_tasks_saved_total",
			Help: "Number of user task records saved.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmon_http_requests_total",
			Help: "Number of HTTP requests served, by method, route and status code.",
		}, []string{"method", "path", "code"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.tasksSaved,
		m.httpRequests,
	)

	return m
}

func (m *metrics) observeRequest(method, path string, code int) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
}
