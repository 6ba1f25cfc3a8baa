package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "neobridge"

// Recorder counts cloud API activity. It implements the neo client's
// Observer interface and is safe for concurrent use.
type Recorder struct {
	apiRequests    *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
	commands       *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of cloud API requests",
			},
			[]string{"endpoint", "status"},
		),
		tokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "token_refreshes_total",
				Help:      "Total number of access token refresh attempts",
			},
			[]string{"result"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of blind commands dispatched",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(r.apiRequests, r.tokenRefreshes, r.commands)
	return r
}

// APIRequest counts one HTTP exchange against the cloud API.
func (r *Recorder) APIRequest(endpoint string, status int) {
	r.apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// TokenRefresh counts one refresh attempt.
func (r *Recorder) TokenRefresh(success bool) {
	r.tokenRefreshes.WithLabelValues(resultLabel(success)).Inc()
}

// CommandResult counts one dispatched blind command.
func (r *Recorder) CommandResult(success bool) {
	r.commands.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
