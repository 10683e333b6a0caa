package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики сборки pipeline.
var (
	PipelinesAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeflow_pipelines_assembled_total",
		Help: "Pipelines assembled successfully",
	})

	PipelineTasksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeflow_pipeline_tasks_skipped_total",
		Help: "Tasks for which no descriptor was produced",
	})

	SecretBlockMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeflow_secret_block_missing_total",
		Help: "Git pull tasks assembled without a secret block",
	})
)

// Метрики блокировок.
var (
	LockStatusResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeflow_lock_status_total",
		Help: "Resolved lock statuses",
	}, []string{"status"})

	LockStatusDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeflow_lock_status_degraded_total",
		Help: "Lock lookups answered without live engine state",
	})
)

// Метрики запросов к движку.
var (
	EngineRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeflow_engine_requests_total",
		Help: "Requests to the orchestration engine",
	}, []string{"endpoint", "outcome"})

	EngineRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeflow_engine_request_duration_seconds",
		Help:    "Orchestration engine request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	RunGraphSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeflow_run_graph_size",
		Help:    "Flow runs discovered per log collection",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
	})
)

// HTTPRequests — запросы к API по маршруту и статусу.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipeflow_http_requests_total",
	Help: "HTTP requests handled by the API",
}, []string{"route", "status"})

// BlockOperations — созданные и удалённые блоки движка.
var BlockOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipeflow_block_operations_total",
	Help: "Engine blocks created or deleted",
}, []string{"block_type", "op"})
