package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/config"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
)

var (
	// Global flags
	configFile string
	debugLog   bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schedd",
	Short: "schedd - block-height deferred-execution scheduler",
	Long: `schedd runs calls at future ticks within a hard per-tick weight budget.
Tasks are placed into fixed-capacity agendas keyed by tick, optionally named
and periodic, and serviced in priority order every tick. Work that does not
fit is postponed deterministically to the next tick.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default: ./schedd.toml when present)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

// loadConfig reads the configuration selected by --conf.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}
	return config.LoadDefaultConfig()
}

// newLogger builds the process logger, honouring --debug and --quiet.
func newLogger(cfg *config.Config) log.Logger {
	lc := cfg.Log
	switch {
	case debugLog:
		lc.Level = "debug"
	case quiet:
		lc.Level = "warn"
	}
	return log.New(lc, os.Stderr)
}
