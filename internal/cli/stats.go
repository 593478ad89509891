package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	stats, err := a.Store.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	render(cmd.OutOrStdout(), map[string]any{
		"store":         stats,
		"index_path":    cfg.IndexPath,
		"index_entries": a.Index.Count(),
		"embedder":      cfg.Embed.Provider,
	})
}
