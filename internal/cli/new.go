package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/app"
	"github.com/rcliao/memory-fabric/internal/model"
)

func init() {
	var types []string
	for _, t := range model.EntryTypes() {
		types = append(types, string(t))
	}

	cmd := &cobra.Command{
		Use:       "new <type>",
		Short:     "Print a draft entry to fill in",
		Long:      "Print a valid draft entry of the given type as YAML. Types: " + strings.Join(types, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: types,
		Run:       runNew,
	}

	cmd.Flags().StringP("project", "p", "my-project", "Project name")
	cmd.Flags().StringP("branch", "b", "main", "Branch name")

	RootCmd.AddCommand(cmd)
}

func runNew(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")

	e, err := app.Template(model.EntryType(args[0]), project, branch, time.Now())
	if err != nil {
		exitErr("new", err)
	}
	out, err := app.EncodeYAML(e)
	if err != nil {
		exitErr("new", err)
	}
	cmd.OutOrStdout().Write(out)
}
