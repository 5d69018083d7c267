// Package metrics は会員 API の Prometheus メトリクスを提供します。
package metrics

import "github.com/prometheus/client_golang/prometheus"

// 結果ラベル
const (
	ResultSuccess            = "success"
	ResultDuplicate          = "duplicate"
	ResultNotFound           = "not_found"
	ResultInvalidCredentials = "invalid_credentials"
	ResultError              = "error"
	ResultRegistered         = "registered"
	ResultAvailable          = "available"
)

var (
	// Signups は会員登録の試行回数です。
	Signups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firstppt_member_signups_total",
			Help: "Total number of member signup attempts",
		},
		[]string{"result"},
	)

	// Logins はログインの試行回数です。
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firstppt_member_logins_total",
			Help: "Total number of member login attempts",
		},
		[]string{"result"},
	)

	// EmailChecks はメール重複確認の回数です。
	EmailChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firstppt_member_email_checks_total",
			Help: "Total number of email duplication checks",
		},
		[]string{"result"},
	)
)

// RegisterMetrics はメトリクスをレジストリに登録します。登録に失敗した場合は panic します。
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Signups, Logins, EmailChecks)
}

func RecordSignup(result string) {
	Signups.WithLabelValues(result).Inc()
}

func RecordLogin(result string) {
	Logins.WithLabelValues(result).Inc()
}

func RecordEmailCheck(result string) {
	EmailChecks.WithLabelValues(result).Inc()
}
