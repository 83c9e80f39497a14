package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueJobsProcessedTotal) }

var queueJobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_jobs_processed_total",
		Help: "Total number of queued requests handled, labeled by work type and outcome.",
	},
	[]string{"work_type", "status"}, // 'completed', 'failed', 'timed_out', 'dead_lettered'
)

func IncJob(workType, status string) {
	queueJobsProcessedTotal.WithLabelValues(norm(workType), norm(status)).Inc()
}
