package prefect

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// FlowRun — flow run из движка.
type FlowRun struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	DeploymentID *uuid.UUID       `json:"deployment_id"`
	StateType    domain.StateType `json:"state_type"`
	StateName    string           `json:"state_name"`
	StartTime    *time.Time       `json:"start_time"`
	Tags         []string         `json:"tags"`
}

// State — состояние run в движке.
type State struct {
	Type         domain.StateType `json:"type"`
	Name         string           `json:"name"`
	StateDetails StateDetails     `json:"state_details"`
}

// StateDetails — детали состояния. Для subflow содержит ссылку на дочерний run.
type StateDetails struct {
	ChildFlowRunID *uuid.UUID `json:"child_flow_run_id"`
}

// TaskRun — task run внутри flow run, узел графа run.
type TaskRun struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	State *State    `json:"state"`
}

// Node переводит TaskRun в узел графа.
func (t TaskRun) Node() domain.RunGraphNode {
	node := domain.RunGraphNode{ID: t.ID, Name: t.Name}
	if t.State != nil {
		node.StateType = t.State.Type
		node.ChildRunID = t.State.StateDetails.ChildFlowRunID
	}
	return node
}

// LogRecord — сырая запись лога движка.
type LogRecord struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Level     int        `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	FlowRunID *uuid.UUID `json:"flow_run_id"`
	TaskRunID *uuid.UUID `json:"task_run_id"`
}

// Entry проецирует запись в {level, timestamp, message}.
func (r LogRecord) Entry() domain.LogEntry {
	return domain.LogEntry{
		Level:     r.Level,
		Timestamp: r.Timestamp,
		Message:   r.Message,
	}
}

// CronSchedule — расписание deployment.
type CronSchedule struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
}

// DeploymentCreate — тело запроса на создание deployment.
type DeploymentCreate struct {
	Name             string         `json:"name"`
	FlowID           uuid.UUID      `json:"flow_id"`
	WorkQueueName    string         `json:"work_queue_name"`
	Tags             []string       `json:"tags"`
	Parameters       map[string]any `json:"parameters"`
	Schedule         *CronSchedule  `json:"schedule,omitempty"`
	IsScheduleActive bool           `json:"is_schedule_active"`
}

// Deployment — deployment из движка.
type Deployment struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	FlowID   uuid.UUID     `json:"flow_id"`
	Tags     []string      `json:"tags"`
	Schedule *CronSchedule `json:"schedule"`
}

// Cron возвращает cron-выражение или пустую строку для ручных deployment.
func (d Deployment) Cron() string {
	if d.Schedule == nil {
		return ""
	}
	return d.Schedule.Cron
}

// Flow — flow из движка.
type Flow struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// anyOf — фильтр {"any_": [...]}.
type anyOf[T any] struct {
	Any []T `json:"any_"`
}

// allOf — фильтр {"all_": [...]}.
type allOf[T any] struct {
	All []T `json:"all_"`
}

type idFilter struct {
	ID anyOf[uuid.UUID] `json:"id"`
}

// BlockTypeRef — тип блока в движке.
type BlockTypeRef struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// BlockSchema — схема типа блока.
type BlockSchema struct {
	ID          uuid.UUID `json:"id"`
	BlockTypeID uuid.UUID `json:"block_type_id"`
}

// BlockDocument — сохранённый блок движка.
type BlockDocument struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	BlockTypeID   uuid.UUID      `json:"block_type_id"`
	BlockSchemaID uuid.UUID      `json:"block_schema_id"`
	Data          map[string]any `json:"data"`
	BlockType     *BlockTypeRef  `json:"block_type,omitempty"`
}

// BlockDocumentCreate — тело запроса на создание документа блока.
type BlockDocumentCreate struct {
	Name          string         `json:"name"`
	BlockTypeID   uuid.UUID      `json:"block_type_id"`
	BlockSchemaID uuid.UUID      `json:"block_schema_id"`
	Data          map[string]any `json:"data"`
}

// BlockRef — ссылка на другой документ блока внутри Data.
func BlockRef(id uuid.UUID) map[string]any {
	return map[string]any{"$ref": map[string]any{"block_document_id": id.String()}}
}
