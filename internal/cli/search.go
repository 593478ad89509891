package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/app"
	"github.com/rcliao/memory-fabric/internal/index"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search entries by keyword or meaning",
		Long: "Full-text search over entry content and tags. With --semantic the query is embedded " +
			"and matched against the vector index instead.",
		Args: cobra.MinimumNArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().StringP("branch", "b", "", "Filter by branch")
	cmd.Flags().String("type", "", "Filter by entry type")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("semantic", false, "Search by embedding similarity")
	cmd.Flags().Float64("threshold", 0, "Minimum similarity for --semantic (0 to 1)")
	cmd.Flags().StringP("tags", "t", "", "Require these tags with --semantic (comma-separated)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	semantic, _ := cmd.Flags().GetBool("semantic")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	tagsStr, _ := cmd.Flags().GetString("tags")
	query := strings.Join(args, " ")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if semantic {
		results, err := a.SemanticSearch(cmd.Context(), app.SemanticParams{
			Query:     query,
			Filter:    index.Filter{Project: project, Branch: branch, Type: model.EntryType(typ)},
			Tags:      splitTags(tagsStr),
			Threshold: threshold,
			Limit:     limit,
		})
		if err != nil {
			exitErr("search", err)
		}
		render(cmd.OutOrStdout(), results)
		return
	}

	results, err := a.Store.Search(cmd.Context(), store.SearchParams{
		Project: project,
		Branch:  branch,
		Type:    model.EntryType(typ),
		Query:   query,
		Limit:   limit,
	})
	if err != nil {
		exitErr("search", err)
	}
	render(cmd.OutOrStdout(), results)
}
