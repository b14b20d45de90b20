package assessment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 评估运行指标，nil 接收者上的调用不做任何事
type Metrics struct {
	RunDuration     *prometheus.HistogramVec
	Runs            *prometheus.CounterVec
	ParameterStates *prometheus.CounterVec
	AssetStatuses   *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，reg 为空时注册到默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metahub_assessment_run_duration_seconds",
			Help:    "Duration of assessment runs by adapter and methodology",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"adapter", "methodology"}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metahub_assessment_runs_total",
			Help: "Total assessment runs by outcome",
		}, []string{"outcome"}), // outcome: "completed", "failed", "rejected"

		ParameterStates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metahub_assessment_parameter_states_total",
			Help: "Evaluated parameter states",
		}, []string{"template", "state"}),

		AssetStatuses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metahub_assessment_asset_status_total",
			Help: "Assessed asset statuses",
		}, []string{"template", "status"}),
	}
}

// ObserveRun 记录一次完成的运行
func (m *Metrics) ObserveRun(out *Outcome, d time.Duration) {
	if m == nil || out == nil {
		return
	}
	m.RunDuration.WithLabelValues(out.Run.Adapter, out.Run.Methodology).Observe(d.Seconds())
	m.Runs.WithLabelValues("completed").Inc()

	states := make(map[string]int)
	for _, r := range out.ParameterResults {
		states[r.State]++
	}
	for state, n := range states {
		m.ParameterStates.WithLabelValues(out.Run.TemplateID, state).Add(float64(n))
	}
	for status, n := range out.StatusCounts() {
		m.AssetStatuses.WithLabelValues(out.Run.TemplateID, status).Add(float64(n))
	}
}

// IncrementOutcome 记录运行结果类型
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(outcome).Inc()
	}
}
