// Package blocks управляет блоками движка, зарегистрированными за организациями.
//
// Блок живёт в двух местах: документ в движке (block_documents) и регистрация
// в org_blocks. Manager держит их согласованными: создаёт документ, затем
// регистрацию, и удаляет документ обратно, если регистрация не удалась.
//
// Создаются блоки без секретов: Airbyte server, Airbyte connection, shell.
// Просмотр и удаление работают для любого зарегистрированного блока.
package blocks
