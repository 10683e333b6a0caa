package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunGraphNode — узел графа run: task run внутри flow run.
//
// ChildRunID заполнен, если task run запустил дочерний flow run (subflow).
type RunGraphNode struct {
	ID         uuid.UUID
	Name       string
	StateType  StateType
	ChildRunID *uuid.UUID
}

// LogEntry — запись лога run.
type LogEntry struct {
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// LogPage — страница логов всего графа run.
//
// Offset возвращается без изменений, пагинация на стороне вызывающего.
type LogPage struct {
	Offset int        `json:"offset"`
	Logs   []LogEntry `json:"logs"`
}

// FlowRunSummary — завершённый run deployment'а для истории запусков.
type FlowRunSummary struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Tags      []string   `json:"tags"`
	StartTime *time.Time `json:"startTime"`
	Status    StateType  `json:"status"`
}
