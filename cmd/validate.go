// =============================================================================
// Purchase Order Form Engine - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   poform validate               check the configuration only
//   poform validate <form.html>   check the configuration and a form
//
// Form warnings are reported but never make the command fail; a broken
// configuration or an unreadable form does.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/purchase-order-xml/internal/form"
	"github.com/ginjaninja78/purchase-order-xml/internal/validation"
)

// errorLog is the path of the optional warning log.
var errorLog string

var validateCmd = &cobra.Command{
	Use:   "validate [form.html]",
	Short: "Validate the configuration and optionally a form",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var formPath string
		if len(args) == 1 {
			formPath = args[0]
		}
		return runValidate(formPath)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&errorLog, "error-log", "", "Also write the warnings to this file")
}

func runValidate(formPath string) error {
	// Building the exporter checks the column rules and field transforms.
	exporter, err := newExporter()
	if err != nil {
		return err
	}
	fmt.Printf("Configuration OK (%s)\n", cfgFile)
	if formPath == "" {
		return nil
	}

	doc, err := form.Load(formPath)
	if err != nil {
		return err
	}
	snap, err := exporter.Extract(doc)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", formPath, err)
	}

	result := validation.Validate(snap)
	fmt.Print(validation.FormatReport(result))
	if errorLog != "" && len(result.Errors) > 0 {
		if err := validation.WriteErrorLog(result, errorLog); err != nil {
			return err
		}
		fmt.Printf("Warnings written to %s\n", errorLog)
	}
	return nil
}
