package devproxy

import "log/slog"

// RequestObserver is notified of every proxied request. Implementations are
// diagnostic only and must not affect routing or response content.
type RequestObserver interface {
	ObserveRequest(method, path, target string)
}

// LogObserver records proxied requests through a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer that logs method, original path and
// rewritten target for each proxied request.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) ObserveRequest(method, path, target string) {
	o.logger.Info("Proxying request", "method", method, "path", path, "target", target)
}
