// Pipeflow CLI — инструмент командной строки для сборки pipeline,
// deployments и просмотра runs через HTTP API.
//
// Использование:
//
//	pipeflow [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	pipeline    Сборка pipeline, блокировка и deployment dataflow
//	run         Логи и история runs
//	deployment  Deployments организации
//	events      Чтение событий из RabbitMQ
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Pipeflow/internal/cli"
	"github.com/shaiso/Pipeflow/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var amqpURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "pipeflow",
		Short:         "Pipeflow CLI — dataflow pipelines on the orchestration engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultAMQP := config.Default().RabbitMQURL
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		defaultAMQP = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&amqpURL, "amqp-url", defaultAMQP, "RabbitMQ URL for events commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	amqpURLFn := func() string { return amqpURL }

	rootCmd.AddCommand(
		cli.NewPipelineCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewDeploymentCmd(clientFn, outputFn),
		cli.NewBlockCmd(clientFn, outputFn),
		cli.NewEventsCmd(amqpURLFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
