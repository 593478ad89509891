package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index from stored embeddings",
		Run:   runReindex,
	}

	RootCmd.AddCommand(cmd)
}

func runReindex(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	n, err := a.Reindex(cmd.Context())
	if err != nil {
		exitErr("reindex", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"indexed":%d}`+"\n", n)
}
