package rungraph

import "errors"

// Ошибки сборщика логов.
var (
	// ErrQuery — запрос графа или логов к движку не удался.
	ErrQuery = errors.New("run graph query failed")

	// ErrRunGraphCycle — движок вернул граф с циклом.
	ErrRunGraphCycle = errors.New("cycle in run graph")
)
