// Package prefect — клиент REST API движка оркестрации (Prefect).
//
// Покрывает то, что нужно сервису:
//   - flow_runs.go   — статус run, граф run (task runs с дочерними runs), логи, история deployment
//   - deployments.go — flows и deployments
//   - blocks.go      — документы блоков: поиск, создание, удаление
//
// Каждый запрос ограничен таймаутом. Ошибки: ErrRequest (сеть/таймаут),
// ErrStatus (код >= 400, см. StatusError), ErrDecode (неожиданная форма ответа).
// Политику реакции на ошибки выбирает вызывающий.
package prefect
