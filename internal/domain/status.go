package domain

// StateType — тип состояния flow run во внешнем движке.
//
// Жизненный цикл:
//
//	SCHEDULED → PENDING → RUNNING → COMPLETED
//	                             ↘ FAILED / CRASHED
//	          (или) → CANCELLING → CANCELLED
type StateType string

const (
	StateScheduled  StateType = "SCHEDULED"
	StatePending    StateType = "PENDING"
	StateRunning    StateType = "RUNNING"
	StatePaused     StateType = "PAUSED"
	StateCompleted  StateType = "COMPLETED"
	StateFailed     StateType = "FAILED"
	StateCrashed    StateType = "CRASHED"
	StateCancelling StateType = "CANCELLING"
	StateCancelled  StateType = "CANCELLED"
)

// IsTerminal возвращает true, если run больше не изменит состояние.
func (s StateType) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCrashed, StateCancelled:
		return true
	default:
		return false
	}
}

// LockStatus — статус блокировки dataflow, отдаваемый клиентам.
//
// Жизненный цикл:
//
//	queued → running → complete
//
// locked — блокировка принадлежит другому dataflow с общей задачей.
type LockStatus string

const (
	// LockStatusQueued — run создан, но ещё не запущен (или run id пока нет).
	LockStatusQueued LockStatus = "queued"

	// LockStatusRunning — run выполняется.
	LockStatusRunning LockStatus = "running"

	// LockStatusComplete — run завершён или движок про него не знает.
	LockStatusComplete LockStatus = "complete"

	// LockStatusLocked — задачу держит другой dataflow.
	LockStatusLocked LockStatus = "locked"
)

// LockStatusFromState переводит состояние движка в статус блокировки.
// Пустое или неизвестное состояние считается завершённым.
func LockStatusFromState(s StateType) LockStatus {
	switch s {
	case StateScheduled, StatePending:
		return LockStatusQueued
	case StateRunning:
		return LockStatusRunning
	default:
		return LockStatusComplete
	}
}
