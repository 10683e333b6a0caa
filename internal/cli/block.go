package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// NewBlockCmd создаёт группу команд для блоков движка.
func NewBlockCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage engine blocks of an organization",
	}

	cmd.AddCommand(
		newBlockShowCmd(clientFn, outputFn),
		newBlockDeleteCmd(clientFn, outputFn),
		newBlockCreateServerCmd(clientFn, outputFn),
		newBlockCreateConnectionCmd(clientFn, outputFn),
		newBlockCreateShellCmd(clientFn, outputFn),
	)

	return cmd
}

func newBlockShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ORG BLOCK_ID",
		Short: "Show an engine block document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			doc, err := client.GetBlock(args[0], args[1])
			if err != nil {
				return err
			}

			pairs := [][2]string{
				{"ID", doc.ID},
				{"NAME", doc.Name},
				{"TYPE", valueOr(doc.BlockType, "-")},
			}
			for _, key := range slices.Sorted(maps.Keys(doc.Data)) {
				pairs = append(pairs, [2]string{strings.ToUpper(key), field(doc.Data, key)})
			}

			out.Fields(pairs, doc)
			return nil
		},
	}
}

func newBlockDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ORG BLOCK_ID",
		Short: "Delete a block from the engine and the organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteBlock(args[0], args[1]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Block %s deleted", args[1]))
			return nil
		},
	}
}

func newBlockCreateServerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		host       string
		port       int
		apiVersion string
	)

	cmd := &cobra.Command{
		Use:   "create-server ORG BLOCK_NAME",
		Short: "Create an Airbyte server block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"block_name":  args[1],
				"host":        host,
				"port":        port,
				"api_version": apiVersion,
			}
			return createBlock(clientFn(), outputFn(), args[0], "airbyte-server", body)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Airbyte server host")
	cmd.Flags().IntVar(&port, "port", 8000, "Airbyte server port")
	cmd.Flags().StringVar(&apiVersion, "api-version", "v1", "Airbyte API version")
	cmd.MarkFlagRequired("host")

	return cmd
}

func newBlockCreateConnectionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var server, connectionID string

	cmd := &cobra.Command{
		Use:   "create-connection ORG BLOCK_NAME",
		Short: "Create an Airbyte connection block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"block_name":        args[1],
				"server_block_name": server,
				"connection_id":     connectionID,
			}
			return createBlock(clientFn(), outputFn(), args[0], "airbyte-connection", body)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Name of the Airbyte server block")
	cmd.Flags().StringVar(&connectionID, "connection-id", "", "Airbyte connection ID")
	cmd.MarkFlagRequired("server")
	cmd.MarkFlagRequired("connection-id")

	return cmd
}

func newBlockCreateShellCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		commands   []string
		env        map[string]string
		workingDir string
	)

	cmd := &cobra.Command{
		Use:   "create-shell ORG BLOCK_NAME",
		Short: "Create a shell operation block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"block_name":  args[1],
				"commands":    commands,
				"env":         env,
				"working_dir": workingDir,
			}
			return createBlock(clientFn(), outputFn(), args[0], "shell", body)
		},
	}

	cmd.Flags().StringArrayVar(&commands, "command", nil, "Shell command (repeatable)")
	cmd.Flags().StringToStringVar(&env, "env", nil, "Environment variables KEY=VALUE")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory")
	cmd.MarkFlagRequired("command")

	return cmd
}

func createBlock(client *Client, out *Output, org, kind string, body map[string]any) error {
	b, err := client.CreateBlock(org, kind, body)
	if err != nil {
		return err
	}

	out.Success(fmt.Sprintf("Block created: %s", b.BlockID))
	out.Fields([][2]string{
		{"BLOCK ID", b.BlockID},
		{"NAME", b.BlockName},
		{"TYPE", b.BlockType},
	}, b)
	return nil
}
