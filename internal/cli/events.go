package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Pipeflow/internal/mq"
)

// NewEventsCmd создаёт группу команд для событий брокера.
//
// В отличие от остальных команд, работает с RabbitMQ напрямую, минуя API.
func NewEventsCmd(amqpURLFn func() string, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read pipeline events from the broker",
	}

	cmd.AddCommand(newEventsTailCmd(amqpURLFn, outputFn))

	return cmd
}

func newEventsTailCmd(amqpURLFn func() string, outputFn func() *Output) *cobra.Command {
	var queue string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Consume events from a queue and print them until interrupted",
		Long: "Consume events from a queue and print them until interrupted.\n" +
			"Messages are acknowledged, so tail drains the queue.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := mq.Queue(queue)
			if !slices.Contains(mq.Queues(), q) {
				return fmt.Errorf("unknown queue %q, expected one of %v", queue, mq.Queues())
			}

			out := outputFn()
			// Логи соединения не смешиваются с событиями в stdout.
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			conn, err := mq.Dial(amqpURLFn(), logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := conn.Setup(ctx); err != nil {
				return err
			}

			consumer := mq.NewConsumer(conn, mq.ConsumerConfig{
				Queue:   q,
				Handler: printEvent(out),
				Logger:  logger,
			})

			out.Success(fmt.Sprintf("Tailing %s, press Ctrl+C to stop", q))
			err = consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&queue, "queue", string(mq.QueuePipelinesAssembled), "Queue to read")

	return cmd
}

// printEvent возвращает mq.Handler, который выводит событие одной строкой.
func printEvent(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if out.jsonMode {
			out.JSON(msg)
			return nil
		}
		out.Line(fmt.Sprintf("%s  %-18s  %s  %s",
			msg.Timestamp.Format(time.RFC3339), msg.Type, msg.ID, summarize(msg)))
		return nil
	}
}

// summarize кратко описывает payload известных событий.
// Неизвестный тип или битый payload выводится как есть.
func summarize(msg *mq.Message) string {
	switch msg.Type {
	case mq.MessageTypePipelineAssembled:
		p, err := mq.ParsePayload[mq.PipelineAssembledPayload](msg)
		if err != nil {
			break
		}
		return fmt.Sprintf("org=%s dataflow=%s tasks=%d skipped=%d",
			p.OrgSlug, p.DataflowID, len(p.Tasks), len(p.Skipped))
	case mq.MessageTypeDeploymentCreated:
		p, err := mq.ParsePayload[mq.DeploymentCreatedPayload](msg)
		if err != nil {
			break
		}
		return fmt.Sprintf("org=%s dataflow=%s deployment=%s cron=%s",
			p.OrgSlug, p.DataflowID, p.DeploymentName, valueOr(p.Cron, "manual"))
	}
	return string(msg.Payload)
}
