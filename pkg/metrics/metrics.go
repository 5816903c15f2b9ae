package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Пример запроса PromQL: rate(http_requests_total{service="catalog-service"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// HttpRequestsRateLimited - запросы, отклоненные лимитером
var HttpRequestsRateLimited = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_rate_limited_total",
		Help: "Total number of HTTP requests rejected by the rate limiter",
	},
	[]string{"service"},
)

// =============================================================================
// Storage Метрики (MongoDB / PostgreSQL)
// =============================================================================

// DbQueryDuration - время выполнения запросов к хранилищу
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"backend", "operation", "collection"},
)

// DbErrors - счётчик ошибок хранилища
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"backend", "operation", "collection"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business Метрики каталога
// =============================================================================

// CatalogWrites - операции записи по сущностям
var CatalogWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_writes_total",
		Help: "Total number of catalog write operations",
	},
	[]string{"entity", "operation"}, // operation: create, update, delete
)

// CatalogConflicts - отклоненные дубликаты (уникальность имени)
var CatalogConflicts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_conflicts_total",
		Help: "Total number of rejected duplicate catalog entries",
	},
	[]string{"entity"},
)

// CatalogEntities - количество сущностей в хранилище (обновляется cron задачей)
var CatalogEntities = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_entities",
		Help: "Number of catalog entities in storage",
	},
	[]string{"entity"},
)

// CatalogOrphans - сущности, чей родитель был удален
var CatalogOrphans = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_orphans",
		Help: "Number of catalog entities whose parent reference points to a missing entity",
	},
	[]string{"entity"},
)

// CatalogStatsRuns - запуски сборщика статистики
var CatalogStatsRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_stats_runs_total",
		Help: "Total number of catalog stats collector runs",
	},
	[]string{"status"}, // success, failed
)
