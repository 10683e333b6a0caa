package pipeline

import "errors"

// Ошибки сборки pipeline.
var (
	// ErrConfig — задаче или контексту выполнения не хватает обязательных полей.
	// Фатальна для задачи и для всей сборки.
	ErrConfig = errors.New("task configuration error")

	// ErrSkipTask — для задачи не строится дескриптор. Сборка продолжается,
	// пропуск фиксируется в Pipeline.Skipped и не расходует номер.
	ErrSkipTask = errors.New("task skipped")
)
