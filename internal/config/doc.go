// Package config загружает конфигурацию сервиса.
//
// Порядок: значения по умолчанию → YAML-файл (PIPEFLOW_CONFIG) → переменные окружения.
package config
