package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для flow runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect flow runs",
	}

	cmd.AddCommand(
		newRunLogsCmd(clientFn, outputFn),
		newRunHistoryCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunLogsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "logs RUN_ID",
		Short: "Show logs of a flow run and all its subflow runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			page, err := client.RunLogs(args[0], offset)
			if err != nil {
				return err
			}

			headers := []string{"TIMESTAMP", "LEVEL", "MESSAGE"}
			rows := make([][]string, len(page.Logs))
			for i, l := range page.Logs {
				rows[i] = []string{l.Timestamp, levelName(l.Level), l.Message}
			}

			out.Print(headers, rows, page)
			if len(page.Logs) > 0 {
				out.Success(fmt.Sprintf("Next page: --offset %d", page.Offset+len(page.Logs)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of log records to skip")

	return cmd
}

func newRunHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history DEPLOYMENT_ID",
		Short: "List finished runs of a deployment, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.RunHistory(args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "STARTED", "TAGS"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.Name, r.Status, r.StartTime, strings.Join(r.Tags, ",")}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs (0 for all)")

	return cmd
}

// levelName переводит числовой уровень лога движка в имя.
func levelName(level int) string {
	switch {
	case level >= 50:
		return "CRITICAL"
	case level >= 40:
		return "ERROR"
	case level >= 30:
		return "WARNING"
	case level >= 20:
		return "INFO"
	case level >= 10:
		return "DEBUG"
	default:
		return strconv.Itoa(level)
	}
}
