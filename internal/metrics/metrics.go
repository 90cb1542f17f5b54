package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total processor RPC requests by method and result code (0 = ok)",
		},
		[]string{"method", "code"},
	)

	TransactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_completed_total",
			Help: "Total completed top-up transactions",
		},
	)
	TransactionsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Total transactions that failed at the upstream wallet API",
		},
	)

	SyncRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_sync_runs_total",
			Help: "Total completed roster synchronization runs",
		},
	)
	JobSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_skips_total",
			Help: "Ticks skipped because the previous run of the job was still in flight",
		},
		[]string{"job"},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(TransactionsFailed)
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(JobSkipsTotal)
	prometheus.MustRegister(WorkerQueueDepth)
}
