package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import entries",
		Long: "Import entries from JSON or YAML (file or stdin), as produced by export. " +
			"Each entry is validated; rejected entries are reported and skipped.",
		Args: cobra.MaximumNArgs(1),
		Run:  runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	cands := readCandidates(args)

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	report, err := a.Import(cmd.Context(), cands)
	if err != nil {
		exitErr("import", err)
	}

	render(cmd.OutOrStdout(), report)
}
