// Package mq публикует и читает события pipeline через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация событий
//   - consumer.go   — чтение событий (pipeflow events tail)
//
// Типы событий:
//   - pipeline.assembled  — pipeline собран для dataflow
//   - deployment.created  — deployment создан в движке
//
// Exchanges:
//   - pipeflow.pipelines — события pipeline
//   - pipeflow.dlq       — отвергнутые события
package mq
