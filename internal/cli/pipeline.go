package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPipelineCmd создаёт группу команд для pipeline dataflow.
func NewPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Assemble, deploy and inspect dataflow pipelines",
	}

	cmd.AddCommand(
		newPipelineAssembleCmd(clientFn, outputFn),
		newPipelineLockCmd(clientFn, outputFn),
		newPipelineDeployCmd(clientFn, outputFn),
	)

	return cmd
}

func newPipelineAssembleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var startSeq int

	cmd := &cobra.Command{
		Use:   "assemble ORG DATAFLOW_ID",
		Short: "Assemble task descriptors for a dataflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.AssemblePipeline(args[0], args[1], startSeq)
			if err != nil {
				return err
			}

			headers := []string{"SEQ", "SLUG", "TYPE", "ORGTASK"}
			rows := make([][]string, len(p.Tasks))
			for i, t := range p.Tasks {
				rows[i] = []string{field(t, "seq"), field(t, "slug"), field(t, "type"), field(t, "orgtask_uuid")}
			}

			out.Print(headers, rows, p)
			for _, s := range p.Skipped {
				out.Success(fmt.Sprintf("Skipped %s (%s): %s", s.Slug, s.OrgTaskID, s.Reason))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&startSeq, "start-seq", 0, "Sequence number of the first task")

	return cmd
}

func newPipelineLockCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "lock DATAFLOW_ID",
		Short: "Show the run lock of a dataflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			lock, err := client.GetLock(args[0])
			if err != nil {
				return err
			}
			if lock == nil {
				out.Success("Dataflow is not locked")
				if out.jsonMode {
					out.JSON(nil)
				}
				return nil
			}

			status := lock.Status
			if lock.Stale {
				status += " (stale)"
			}

			out.Fields([][2]string{
				{"STATUS", status},
				{"LOCKED BY", lock.LockedBy},
				{"LOCKED AT", lock.LockedAt},
				{"FLOW RUN", valueOr(lock.FlowRunID, "-")},
			}, lock)
			return nil
		},
	}
}

func newPipelineDeployCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var cron string

	cmd := &cobra.Command{
		Use:   "deploy ORG DATAFLOW_ID",
		Short: "Create an engine deployment for a dataflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			d, err := client.Deploy(args[0], args[1], cron)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Deployment created: %s", d.DeploymentID))
			out.Fields([][2]string{
				{"ID", d.DeploymentID},
				{"NAME", d.DeploymentName},
				{"CRON", valueOr(d.Cron, "manual")},
				{"NEXT RUN", valueOr(d.NextRun, "-")},
			}, d)
			return nil
		},
	}

	cmd.Flags().StringVar(&cron, "cron", "", "Cron schedule (e.g. '0 2 * * *'); empty for manual runs only")

	return cmd
}

// field форматирует поле дескриптора для таблицы.
func field(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
