package blocks

import "errors"

// Ошибки управления блоками.
var (
	// ErrInvalidBlock — в запросе не хватает обязательных полей.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrBlockExists — блок с таким типом и именем уже есть в движке.
	ErrBlockExists = errors.New("block already exists")

	// ErrServerBlockNotFound — connection ссылается на несуществующий Airbyte server.
	ErrServerBlockNotFound = errors.New("airbyte server block not found")
)
