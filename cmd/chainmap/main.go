package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// GlobalOptions hold flags shared by every command.
type GlobalOptions struct {
	Config string
	Debug  bool
}

var globalOptions GlobalOptions

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:     "chainmap",
	Short:   "Exercise the concurrent chained hash map",
	Version: version,
	Long: `
chainmap runs the hash map through a fixed demonstration sequence or a
concurrent stress workload and reports how the bucket table evolved.

Settings come from --config, a .env file and CHAINMAP_* variables.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVar(&globalOptions.Config, "config", "", "path to a YAML config file")
	f.BoolVar(&globalOptions.Debug, "debug", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if globalOptions.Debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
