// Package metrics 定义训练流水线与推理服务的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 训练流水线
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airsat_pipeline_stage_duration_seconds",
			Help:    "Duration of training pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"stage", "kind"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airsat_pipeline_runs_total",
			Help: "Total number of training pipeline runs",
		},
		[]string{"status"}, // "success", "failure"
	)

	ModelScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airsat_model_score",
			Help: "Evaluation scores of the last trained calibrated model",
		},
		[]string{"metric"},
	)

	// 推理服务
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airsat_predictions_total",
			Help: "Total number of predictions by decoded class",
		},
		[]string{"class"},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airsat_prediction_errors_total",
			Help: "Total number of rejected predictions by error code",
		},
		[]string{"code"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airsat_prediction_duration_seconds",
			Help:    "Duration of a single prediction in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airsat_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordStage 记录一个流水线节点的耗时
func RecordStage(stage, kind string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage, kind).Observe(d.Seconds())
}

// RecordRun 记录一次流水线运行结果
func RecordRun(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	PipelineRuns.WithLabelValues(status).Inc()
}

// RecordScores 更新模型评估分数
func RecordScores(scores map[string]float64) {
	for name, v := range scores {
		ModelScore.WithLabelValues(name).Set(v)
	}
}

// RecordPrediction 记录一次成功的预测
func RecordPrediction(class string, d time.Duration) {
	PredictionsTotal.WithLabelValues(class).Inc()
	PredictionDuration.Observe(d.Seconds())
}

// RecordPredictionError 按错误码记录被拒绝的预测
func RecordPredictionError(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	PredictionErrors.WithLabelValues(code).Inc()
}

// RecordAPIRequest 记录一次 HTTP 请求
func RecordAPIRequest(method, endpoint, status string, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, status).Observe(d.Seconds())
}
