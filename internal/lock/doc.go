// Package lock определяет статус блокировки dataflow.
//
// Resolver читает блокировку из хранилища и уточняет статус по живому
// состоянию run в движке:
//
//	нет блокировки          → nil
//	нет flow run id         → queued
//	SCHEDULED / PENDING     → queued
//	RUNNING                 → running
//	остальное / run пропал  → complete
//	держит другой dataflow  → locked
//
// Пакет только читает блокировки, захват и снятие — вне сервиса.
// Сбой запроса к движку не превращается в ошибку: доступность статуса
// важнее свежести. Сборщик логов (rungraph) ведёт себя наоборот.
package lock
