// Package cli реализует инструмент командной строки Pipeflow.
//
// # Обзор
//
// CLI — клиентская утилита для Pipeflow API. Команды pipeline, run,
// deployment и block работают через HTTP и не импортируют внутренние пакеты
// системы. Исключение — events: она читает очереди RabbitMQ напрямую
// через internal/mq.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Pipeflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (data, list, error) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	p, err := client.AssemblePipeline("acme", dataflowID, 0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: pipeflow run logs ID --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - pipeline: assemble, lock, deploy
//   - run: logs, history
//   - deployment: list
//   - block: show, delete, create-server, create-connection, create-shell
//   - events: tail
//
// Каждая группа создаётся через фабричную функцию (NewPipelineCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
