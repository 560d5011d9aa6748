// =============================================================================
// Purchase Order Form Engine - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration and logger set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (poform)
//   ├── processCmd  (poform process)   batch export of the input directory
//   ├── exportCmd   (poform export)    one form to XML
//   ├── reorderCmd  (poform reorder)   swap columns, rows, sections or pairs
//   ├── populateCmd (poform populate)  fill a form from a field source
//   ├── validateCmd (poform validate)  check a form or the configuration
//   ├── templateCmd (poform template)  write a blank form or field workbook
//   ├── serveCmd    (poform serve)     HTTP editor API
//   └── versionCmd  (poform version)
//
// CONFIGURATION:
//   1. .env is loaded into the environment when present
//   2. The YAML file named by --config is loaded (missing file = defaults)
//   3. PO_* environment variables and bound flags override it
//   4. The zap logger is built from the final log settings
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/converter"
	"github.com/ginjaninja78/purchase-order-xml/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the dotenv file.
var envFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set by the persistent pre-run.
var (
	mainConfig *config.MainConfig
	logger     *zap.Logger
)

// flagKeys binds command flags to configuration keys. A flag overrides the
// file and the environment only when it is set on the command line.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"addr":       "server.addr",
	"input-dir":  "input_dir",
	"output-dir": "output_dir",
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "poform",
	Short: "Purchase order form engine - edit, populate and export PO forms to XML",
	Long: `poform edits HTML purchase order forms and exports them as XML reports.

Key Features:
  - Column, row, section and pair reordering with recalculated totals
  - Layout-aware field extraction and XML export
  - Population from random data, ChatGPT, CSV, XLSX or JSON field sources
  - Optional XLSX and PDF side outputs
  - Concurrent batch export with archival
  - HTTP editor API

Example Usage:
  poform export order.html -o order.xml
  poform populate --random --seed 7 -o filled.html
  poform process --config ./config.yaml
  poform serve --addr :8080`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a dotenv file loaded before the configuration",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
	rootCmd.PersistentFlags().String(
		"log-level",
		"",
		"Override the configured log level (debug, info, warn, error)",
	)
}

// setup loads the environment, configuration and logger.
func setup(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	v := config.NewViper()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}
	if err := config.ApplyOverrides(cfg, v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return err
	}

	mainConfig, logger = cfg, log
	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("command", cmd.Name()))
	return nil
}

// newExporter builds the exporter from the loaded configuration.
func newExporter() (*converter.Exporter, error) {
	exporter, err := converter.NewExporter(mainConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid export configuration: %w", err)
	}
	return exporter, nil
}
