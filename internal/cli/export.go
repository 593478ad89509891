package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries",
		Long:  "Export every live entry in wire form. Filter by project with -p. The output can be fed to import.",
		Run:   runExport,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	entries, err := a.Store.ExportAll(cmd.Context(), project)
	if err != nil {
		exitErr("export", err)
	}

	render(cmd.OutOrStdout(), entries)
}
