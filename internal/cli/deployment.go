package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewDeploymentCmd создаёт группу команд для deployments.
func NewDeploymentCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Inspect engine deployments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list ORG",
		Short: "List deployments of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			deployments, err := client.ListDeployments(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CRON", "TAGS"}
			rows := make([][]string, len(deployments))
			for i, d := range deployments {
				rows[i] = []string{d.ID, d.Name, valueOr(d.Cron, "manual"), strings.Join(d.Tags, ",")}
			}

			out.Print(headers, rows, deployments)
			return nil
		},
	})

	return cmd
}
