package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
)

const namespace = "histfeat"

// PrometheusMonitor 用 Prometheus 指标记录特征任务的运行情况，实现 feature.Monitor。
//
// 批处理任务不常驻，指标在任务结束时通过 WriteToTextfile 写出，
// 由 node_exporter 的 textfile collector 采集。
type PrometheusMonitor struct {
	registry *prometheus.Registry

	VectorsComputed *prometheus.CounterVec
	CalculatorErrs  *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec
	EventsLoaded    *prometheus.GaugeVec
	ClientsWritten  prometheus.Counter
	RunDuration     prometheus.Gauge
}

var _ feature.Monitor = (*PrometheusMonitor)(nil)

// NewPrometheusMonitor 创建监控并注册到独立的 Registry
func NewPrometheusMonitor() *PrometheusMonitor {
	m := &PrometheusMonitor{
		registry: prometheus.NewRegistry(),
		VectorsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_computed_total",
			Help:      "Total feature vectors computed per calculator",
		}, []string{"event_type", "calculator"}),
		CalculatorErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculator_errors_total",
			Help:      "Total calculator errors",
		}, []string{"event_type", "calculator"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "ComputeFeatures duration seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"event_type", "calculator"}),
		EventsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_loaded",
			Help:      "Events loaded per event type",
		}, []string{"event_type"}),
		ClientsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_written_total",
			Help:      "Total client vectors written to sinks",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
	}
	m.registry.MustRegister(
		m.VectorsComputed,
		m.CalculatorErrs,
		m.ComputeDuration,
		m.EventsLoaded,
		m.ClientsWritten,
		m.RunDuration,
	)
	return m
}

// Registry 返回指标所在的 Registry
func (m *PrometheusMonitor) Registry() *prometheus.Registry { return m.registry }

func (m *PrometheusMonitor) ObserveCompute(eventType core.EventType, calculator string, d time.Duration) {
	m.VectorsComputed.WithLabelValues(string(eventType), calculator).Inc()
	m.ComputeDuration.WithLabelValues(string(eventType), calculator).Observe(d.Seconds())
}

func (m *PrometheusMonitor) RecordError(eventType core.EventType, calculator string, err error) {
	m.CalculatorErrs.WithLabelValues(string(eventType), calculator).Inc()
}

// SetEventsLoaded 记录某事件类型加载的事件数
func (m *PrometheusMonitor) SetEventsLoaded(eventType core.EventType, n int) {
	m.EventsLoaded.WithLabelValues(string(eventType)).Set(float64(n))
}

// ObserveRun 记录整次运行的耗时
func (m *PrometheusMonitor) ObserveRun(start time.Time) {
	m.RunDuration.Set(time.Since(start).Seconds())
}

// WriteToTextfile 把当前指标写成 textfile collector 格式
func (m *PrometheusMonitor) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
