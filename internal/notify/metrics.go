package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus 指标。退化计数是静默兜底策略唯一的线上可见面，
// 必须单独成一条曲线，方便告警。
var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuecell_notifications_total",
		Help: "Notifications rendered, by kind.",
	}, []string{"kind"})

	notificationsDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuecell_notification_degraded_total",
		Help: "Notifications that fell back to the degraded literal, by kind.",
	}, []string{"kind"})

	dispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuecell_notification_dispatch_errors_total",
		Help: "Channel delivery failures, by kind.",
	}, []string{"kind"})

	payloadViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valuecell_chart_payload_violations_total",
		Help: "Chart payloads rejected by the schema guard.",
	})

	portfolioValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "valuecell_portfolio_value",
		Help: "Last portfolio total value pushed through the pipeline.",
	})
)

func countNotification(kind string, degraded bool) {
	notificationsTotal.WithLabelValues(kind).Inc()
	if degraded {
		notificationsDegraded.WithLabelValues(kind).Inc()
	}
}

func countDispatchError(kind string) {
	dispatchErrors.WithLabelValues(kind).Inc()
}

func countPayloadViolation() {
	payloadViolations.Inc()
}

func observePortfolioValue(v float64) {
	portfolioValue.Set(v)
}
