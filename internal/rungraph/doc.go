// Package rungraph собирает логи run вместе с дочерними runs.
//
// Run может запускать subflow; их логи не видны из родителя. Collector обходит
// граф в глубину: сначала сам run, затем каждый task run с child_flow_run_id.
// Потом делает один запрос логов по всем найденным run и отдаёт их
// по возрастанию timestamp.
package rungraph
