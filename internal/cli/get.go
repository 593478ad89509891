package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve an entry",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("history", false, "Return all revisions (newest first)")
	cmd.Flags().Bool("links", false, "Include the entry's links")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	history, _ := cmd.Flags().GetBool("history")
	withLinks, _ := cmd.Flags().GetBool("links")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	records, err := a.Store.Get(cmd.Context(), store.GetParams{ID: args[0], History: history})
	if err != nil {
		exitErr("get", err)
	}

	if withLinks {
		links, err := a.Store.GetLinks(cmd.Context(), args[0])
		if err != nil {
			exitErr("get links", err)
		}
		render(cmd.OutOrStdout(), map[string]any{"records": records, "links": links})
		return
	}

	if history || len(records) > 1 {
		render(cmd.OutOrStdout(), records)
	} else {
		render(cmd.OutOrStdout(), records[0])
	}
}
