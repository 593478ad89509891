package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble relevant entries for a task",
		Long: "Score a project's entries by relevance, recency, status and branch, " +
			"then greedily pack them into a token budget.",
		Run: runContext,
	}

	cmd.Flags().StringP("project", "p", "", "Project (required)")
	cmd.Flags().StringP("branch", "b", "", "Current branch; its entries rank higher")
	cmd.Flags().String("type", "", "Filter by entry type")
	cmd.Flags().Int("budget", 4000, "Max tokens in output")

	cmd.MarkFlagRequired("project")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	typ, _ := cmd.Flags().GetString("type")
	budget, _ := cmd.Flags().GetInt("budget")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	result, err := a.Context(cmd.Context(), store.ContextParams{
		Project: project,
		Branch:  branch,
		Type:    model.EntryType(typ),
		Query:   strings.Join(args, " "),
		Budget:  budget,
	})
	if err != nil {
		exitErr("context", err)
	}

	render(cmd.OutOrStdout(), result)
}
