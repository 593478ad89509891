package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [file]",
		Short: "Validate and store entries",
		Long: "Store entries read from a JSON or YAML file, or piped via stdin. " +
			"An existing id gets a new revision; its type cannot change.",
		Args: cobra.MaximumNArgs(1),
		Run:  runPut,
	}

	cmd.Flags().Bool("embed", false, "Compute embeddings for entries without one")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	embed, _ := cmd.Flags().GetBool("embed")
	cands := readCandidates(args)

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	records := make([]*store.Record, 0, len(cands))
	for _, c := range cands {
		rec, err := a.Put(cmd.Context(), c, embed)
		if err != nil {
			if rec != nil {
				logger.Warn("entry stored but not indexed", "id", rec.Entry.ID, "err", err)
			} else {
				a.Close()
				exitInvalid(cmd, err)
				exitErr("put", err)
			}
		}
		records = append(records, rec)
	}

	if len(records) == 1 {
		render(cmd.OutOrStdout(), records[0])
		return
	}
	render(cmd.OutOrStdout(), records)
}
