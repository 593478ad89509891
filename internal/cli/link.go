package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Create or remove relations between entries",
		Long:  "Link two entries. compresses links come from summary checkpoints and cannot be set here.",
		Run:   runLink,
	}

	cmd.Flags().String("from", "", "Source entry id")
	cmd.Flags().String("to", "", "Target entry id")
	cmd.Flags().StringP("rel", "r", "", "Relation: relates_to, contradicts, depends_on, refines")
	cmd.Flags().Bool("rm", false, "Remove the link")

	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("rel")

	RootCmd.AddCommand(cmd)
}

func runLink(cmd *cobra.Command, args []string) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	rel, _ := cmd.Flags().GetString("rel")
	rm, _ := cmd.Flags().GetBool("rm")

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	link, err := a.Store.Link(cmd.Context(), store.LinkParams{
		FromID: from,
		ToID:   to,
		Rel:    rel,
		Remove: rm,
	})
	if err != nil {
		exitErr("link", err)
	}

	render(cmd.OutOrStdout(), link)
}
