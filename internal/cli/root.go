// Package cli implements the memfabric CLI commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-fabric/internal/app"
	"github.com/rcliao/memory-fabric/internal/config"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// Version is set at build time.
var Version = "dev"

var (
	dbPath     string
	indexPath  string
	envFile    string
	logLevel   string
	formatFlag string

	cfg    *config.Config
	logger *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memfabric",
	Short: "Validated development memory for AI agents",
	Long: "A memory fabric for coding agents. Entries are validated against their type's schema, " +
		"stored in SQLite with full revision history, and optionally indexed by embedding.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMFABRIC_DB or ~/.memfabric/memory.db)")
	RootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "Vector index directory (default: $MEMFABRIC_INDEX or ~/.memfabric/index)")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this file instead of ./.env")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $MEMFABRIC_LOG_LEVEL or warn)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
	RootCmd.Version = Version
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if envFile != "" {
		cfg, err = config.LoadFile(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if indexPath != "" {
		cfg.IndexPath = indexPath
	}
	if logLevel != "" {
		if cfg.LogLevel, err = config.ParseLevel(logLevel); err != nil {
			return err
		}
	}
	switch formatFlag {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", formatFlag)
	}
	logger = config.NewLogger(os.Stderr, cfg.LogLevel)
	return nil
}

func openApp() (*app.App, error) {
	return app.Open(cfg, logger)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// exitInvalid prints the failed result and exits with status 2.
func exitInvalid(cmd *cobra.Command, err error) {
	var ve *validate.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	render(cmd.OutOrStdout(), validate.Result[model.MemoryEntry]{Errors: ve.Errors})
	os.Exit(2)
}

// render writes v as indented JSON, or as YAML with the same field names.
func render(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	if formatFlag != "yaml" {
		fmt.Fprintln(w, string(b))
		return
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		exitErr("encode output", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		exitErr("encode output", err)
	}
	enc.Close()
}

// readInput returns the named file, or stdin when no file or "-" is given.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
		return nil, errors.New("no input: pass a file or pipe an entry on stdin")
	}
	return io.ReadAll(os.Stdin)
}

func readCandidates(args []string) []any {
	data, err := readInput(args)
	if err != nil {
		exitErr("read input", err)
	}
	cands, err := app.DecodeCandidates(data)
	if err != nil {
		exitErr("decode input", err)
	}
	return cands
}

// splitTags parses a comma-separated tag list, dropping blanks.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
