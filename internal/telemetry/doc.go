// Package telemetry обеспечивает наблюдаемость сервиса.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики сборки pipeline, блокировок и запросов к движку
//
// Метрики экспортируются на /metrics endpoint.
package telemetry
