package deployment

import "errors"

var (
	// ErrInvalidCron — cron-выражение не разбирается.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrEmptyPipeline — в pipeline нет ни одной задачи.
	ErrEmptyPipeline = errors.New("pipeline has no tasks")
)
