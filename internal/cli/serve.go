package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve entries to agents over MCP on stdio",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if err := mcpserver.New(a).ServeStdio(Version); err != nil {
		exitErr("serve", err)
	}
}
