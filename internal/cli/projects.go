package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with entry counts and branches",
		Run:   runProjects,
	}

	RootCmd.AddCommand(cmd)
}

func runProjects(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	rows, err := a.Store.Projects(cmd.Context())
	if err != nil {
		exitErr("list projects", err)
	}

	render(cmd.OutOrStdout(), rows)
}
