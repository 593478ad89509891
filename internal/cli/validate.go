package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate entries without storing them",
		Long: "Validate one or more entries (JSON or YAML, file or stdin) and print a result for each. " +
			"Exits with status 2 when any entry is invalid.",
		Args: cobra.MaximumNArgs(1),
		Run:  runValidate,
	}

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	v := validate.New(cfg.Limits())
	cands := readCandidates(args)

	results := make([]validate.Result[model.MemoryEntry], 0, len(cands))
	failed := 0
	for _, c := range cands {
		r := v.Validate(c)
		if !r.Success {
			failed++
		}
		results = append(results, r)
	}

	if len(results) == 1 {
		render(cmd.OutOrStdout(), results[0])
	} else {
		render(cmd.OutOrStdout(), results)
	}
	logger.Debug("validated entries", "count", len(cands), "failed", failed)
	if failed > 0 {
		os.Exit(2)
	}
}
