package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lock — блокировка задачи на время run.
//
// Создаётся и снимается за пределами этого сервиса, здесь только читается.
// У dataflow не больше одной активной блокировки.
type Lock struct {
	// OrgTaskID — заблокированная задача.
	OrgTaskID uuid.UUID

	// LockedBy — email пользователя, запустившего run.
	LockedBy string

	// LockedAt — время захвата.
	LockedAt time.Time

	// FlowRunID — run в движке. Nil, пока движок не создал run.
	FlowRunID *uuid.UUID

	// LockingDataflowID — dataflow, который захватил блокировку.
	LockingDataflowID *uuid.UUID
}

// HeldBy проверяет, захвачена ли блокировка указанным dataflow.
func (l *Lock) HeldBy(dataflowID uuid.UUID) bool {
	return l.LockingDataflowID != nil && *l.LockingDataflowID == dataflowID
}

// LockView — состояние блокировки dataflow для клиентов.
type LockView struct {
	LockedBy  string     `json:"lockedBy"`
	LockedAt  time.Time  `json:"lockedAt"`
	FlowRunID *uuid.UUID `json:"flowRunId"`
	Status    LockStatus `json:"status"`

	// Stale — статус не подтверждён движком (запрос не удался).
	Stale bool `json:"stale,omitempty"`
}
