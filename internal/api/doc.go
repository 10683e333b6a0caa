// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go            — Handler и интерфейсы зависимостей
//   - routes.go             — регистрация маршрутов
//   - middleware.go         — middleware (logging, recovery)
//   - response.go           — JSON-ответы и отображение ошибок в статусы
//   - dto.go                — Data Transfer Objects и разбор параметров
//   - pipeline_handler.go   — сборка pipeline, deployment, блокировка
//   - run_handler.go        — логи run и история запусков deployment
//   - deployment_handler.go — deployments организации
//   - block_handler.go      — создание, просмотр и удаление блоков
package api
