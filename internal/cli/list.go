package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Run:   runList,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().StringP("branch", "b", "", "Filter by branch")
	cmd.Flags().String("type", "", "Filter by entry type")
	cmd.Flags().String("status", "", "Filter by status: draft, verified, archived")
	cmd.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output entry ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	typ, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	tagsStr, _ := cmd.Flags().GetString("tags")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	records, err := a.Store.List(cmd.Context(), store.ListParams{
		Project: project,
		Branch:  branch,
		Type:    model.EntryType(typ),
		Status:  model.Status(status),
		Tags:    splitTags(tagsStr),
		Limit:   limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s/%s\n", r.Entry.ID, r.Entry.Type, r.Entry.Project, r.Entry.Branch)
		}
		return
	}

	render(cmd.OutOrStdout(), records)
}
