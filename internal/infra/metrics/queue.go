package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueEnqueuedTotal, queuePending, storeResetsTotal, consumerCyclesTotal) }

var (
	queueEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_enqueued_total",
			Help: "Requests appended to a request store.",
		},
		[]string{"work_type"},
	)

	queuePending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_pending",
			Help: "Unprocessed requests seen at the last scan.",
		},
		[]string{"work_type"},
	)

	storeResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_resets_total",
			Help: "Documents reset to empty after being found missing or malformed.",
		},
		[]string{"work_type", "document"},
	)

	consumerCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consumer_cycles_total",
			Help: "Completed scan/process cycles of the service loop.",
		},
	)
)

func IncEnqueued(workType string) {
	queueEnqueuedTotal.WithLabelValues(norm(workType)).Inc()
}

func SetPending(workType string, n int) {
	queuePending.WithLabelValues(norm(workType)).Set(float64(n))
}

func IncStoreReset(workType, document string) {
	storeResetsTotal.WithLabelValues(norm(workType), norm(document)).Inc()
}

func IncCycle() { consumerCyclesTotal.Inc() }
