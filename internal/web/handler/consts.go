package handler

const (
	// APIPrefix is the path prefix of all JSON endpoints.
	APIPrefix = "/api"

	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/metrics"

	// ErrNilDepsFatalLogMsg is used if app, cfg or a required dependency is nil.
	ErrNilDepsFatalLogMsg = "app, cfg or a handler dependency is nil"
)
