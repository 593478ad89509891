package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an entry",
		Long:  "Soft-delete an entry. Storing the same id again revives it as a new revision.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	cmd.Flags().Bool("hard", false, "Permanent delete of every revision, chunk and link (irreversible)")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	hard, _ := cmd.Flags().GetBool("hard")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if err := a.Remove(cmd.Context(), args[0], hard); err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q,"hard":%t}`+"\n", args[0], hard)
}
