package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Slug известных задач.
const (
	TaskSlugAirbyteSync = "airbyte-sync"
	TaskSlugGitPull     = "git-pull"
)

// TaskKind — вид задачи в pipeline.
//
// Известных видов два: sync и git-pull. Всё остальное — transform.
type TaskKind int

const (
	// TaskKindTransform — dbt-команда. Вид по умолчанию.
	TaskKindTransform TaskKind = iota

	// TaskKindSync — синхронизация Airbyte connection.
	TaskKindSync

	// TaskKindGitPull — git pull в рабочей директории dbt-проекта.
	TaskKindGitPull
)

// String возвращает имя вида задачи.
func (k TaskKind) String() string {
	switch k {
	case TaskKindSync:
		return "sync"
	case TaskKindGitPull:
		return "git-pull"
	default:
		return "transform"
	}
}

// KindOf определяет вид задачи по её slug.
func KindOf(slug string) TaskKind {
	switch slug {
	case TaskSlugAirbyteSync:
		return TaskKindSync
	case TaskSlugGitPull:
		return TaskKindGitPull
	default:
		return TaskKindTransform
	}
}

// Task — определение задачи из общего каталога (например, "dbt-run", "git-pull").
type Task struct {
	// Slug — уникальное имя задачи.
	Slug string `json:"slug"`

	// Type — тип задачи: "airbyte", "git", "dbt".
	Type string `json:"type"`

	// Command — базовая команда ("run", "test", "pull", "docs generate").
	Command string `json:"command"`

	// IsSystem — задача создана системой, а не пользователем.
	IsSystem bool `json:"is_system"`
}

// TaskParams — пользовательские параметры задачи.
type TaskParams struct {
	// Flags — флаги без значения, рендерятся как --flag.
	Flags []string `json:"flags,omitempty"`

	// Options — опции со значением, рендерятся как --key value.
	Options map[string]any `json:"options,omitempty"`
}

// OrgTask — задача, настроенная для конкретной организации.
//
// Неизменяема в рамках одной сборки pipeline.
type OrgTask struct {
	// ID — уникальный идентификатор (orgtask uuid).
	ID uuid.UUID `json:"id"`

	// OrgID — организация-владелец.
	OrgID uuid.UUID `json:"org_id"`

	// Task — определение задачи из каталога.
	Task Task `json:"task"`

	// ConnectionID — Airbyte connection (только для sync).
	ConnectionID string `json:"connection_id,omitempty"`

	// Params — параметры команды.
	Params TaskParams `json:"parameters"`

	// Seq — подсказка порядка внутри dataflow.
	Seq int `json:"seq"`
}

// Kind возвращает вид задачи.
func (t *OrgTask) Kind() TaskKind {
	return KindOf(t.Task.Slug)
}

// TaskParameters рендерит команду задачи с флагами и опциями.
//
// Опции сортируются по ключу, чтобы результат был детерминированным.
func (t *OrgTask) TaskParameters() string {
	parts := make([]string, 0, 1+len(t.Params.Flags)+len(t.Params.Options))
	if t.Task.Command != "" {
		parts = append(parts, t.Task.Command)
	}

	for _, flag := range t.Params.Flags {
		parts = append(parts, "--"+flag)
	}

	keys := make([]string, 0, len(t.Params.Options))
	for key := range t.Params.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := t.Params.Options[key].(type) {
		case []any:
			for _, item := range v {
				parts = append(parts, "--"+key, stringify(item))
			}
		case []string:
			for _, item := range v {
				parts = append(parts, "--"+key, item)
			}
		default:
			parts = append(parts, "--"+key, stringify(v))
		}
	}

	return strings.Join(parts, " ")
}
