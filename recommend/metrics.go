package recommend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/novelrec/pipeline"
)

var (
	// RequestsTotal 按结果统计推荐请求：ok / empty / cancelled / degraded
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// RequestDuration 推荐请求耗时
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "novelrec_request_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// ResultSize 返回条数分布
	ResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "novelrec_result_size",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 10, 25, 50, 75, 100, 200},
		},
	)

	// CandidatesTotal 各召回源贡献的候选数
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_recall_candidates_total",
			Help: "Total number of candidates produced by each recall source",
		},
		[]string{"source"},
	)

	// NodeDuration 各 pipeline 节点耗时
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelrec_node_duration_seconds",
			Help:    "Duration of pipeline nodes in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind", "node", "status"},
	)
)

// metricsObserver 把 pipeline 节点耗时写入 NodeDuration。
type metricsObserver struct{}

func (metricsObserver) ObserveNode(node pipeline.Node, _, _ int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	NodeDuration.WithLabelValues(string(node.Kind()), node.Name(), status).Observe(elapsed.Seconds())
}
