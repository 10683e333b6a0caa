// Package pipeline собирает конфигурацию задач dataflow для движка.
//
// Builder переводит одну OrgTask в TaskDescriptor по виду задачи:
//   - sync     → Airbyte Connection
//   - git-pull → Shell Operation (secret-блок опционален)
//   - всё остальное → dbt Core Operation
//
// Assembler проходит задачи в заданном порядке и нумерует дескрипторы
// подряд начиная со start_seq.
//
// Ошибки: ErrConfig — фатальна и возвращается вызывающему;
// ErrSkipTask от TaskBuilder — задача пропускается и фиксируется в Pipeline.Skipped.
package pipeline
