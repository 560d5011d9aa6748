// =============================================================================
// Purchase Order Form Engine - Process Command
// =============================================================================
//
// This file defines the 'process' command, which exports every form in the
// input directory to XML.
//
// COMMAND USAGE:
//   poform process [flags]
//
// FLAGS:
//   --pattern         : Glob of the forms to pick up (default *.html)
//   --input-dir       : Override the configured input directory
//   --output-dir      : Override the configured output directory
//   --archive-subdirs : Archive into yyyy/mm/dd subdirectories
//
// PROCESSING PIPELINE:
//   1. Create the working directories
//   2. Discover forms in the input directory
//   3. For each form (bounded concurrency):
//      a. Load the form
//      b. Extract, transform and export the snapshot
//      c. Validate (warnings only)
//      d. Write the XML and side outputs
//      e. Archive the form and outputs
//   4. Write the summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/purchase-order-xml/internal/converter"
	"github.com/ginjaninja78/purchase-order-xml/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// formPattern selects the forms in the input directory.
var formPattern string

// archiveSubdirs archives into dated subdirectories.
var archiveSubdirs bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Export every form in the input directory to XML",
	Long: `The process command scans the input directory for HTML purchase order
forms and exports each one to XML in the output directory.

Forms are exported concurrently, bounded by max_concurrency. Validation
warnings are logged but never block an export.

On success:
  - The XML (and XLSX/PDF when enabled) is written to the output directory
  - The form is moved to the input archive
  - The outputs are copied to the output archive

On error:
  - The form stays in the input directory
  - Processing continues for other forms unless continue_on_error is false`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&formPattern, "pattern", utils.FormPattern, "Glob of the forms to process")
	processCmd.Flags().String("input-dir", "", "Override the configured input directory")
	processCmd.Flags().String("output-dir", "", "Override the configured output directory")
	processCmd.Flags().BoolVar(&archiveSubdirs, "archive-subdirs", false, "Archive into yyyy/mm/dd subdirectories")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the batch export.
func runProcess(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	// =========================================================================
	// STEP 1: PREPARE
	// =========================================================================

	fmt.Println("=== Purchase Order Export ===")
	if err := mainConfig.EnsureDirectories(); err != nil {
		return err
	}
	exporter, err := newExporter()
	if err != nil {
		return err
	}

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.UseTimestampSubdirs = archiveSubdirs

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	forms, err := files.DiscoverForms(formPattern)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(forms) == 0 {
		fmt.Println("No forms found in the input directory.")
		return nil
	}
	summary.TotalFiles = len(forms)
	fmt.Printf("Found %d form(s) to process\n", len(forms))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := make([]converter.Result, len(forms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(mainConfig.MaxConcurrency, 1))

	for i, formPath := range forms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = converter.Result{FilePath: formPath, Error: fmt.Errorf("skipped: %w", err)}
				return nil
			}
			results[i] = converter.New(formPath, exporter, mainConfig, files, logger).Run()
			if !results[i].Success && !mainConfig.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(formPath), results[i].Error)
			}
			return nil
		})
	}
	batchErr := g.Wait()

	// =========================================================================
	// STEP 4: COLLECT RESULTS AND WRITE SUMMARY
	// =========================================================================

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalLineItems += result.Stats.LineItems
			summary.ValidationWarnings += result.Stats.ValidationWarnings
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   name,
				OutputFile:  filepath.Base(result.OutputFile),
				LineItems:   result.Stats.LineItems,
				Warnings:    result.Stats.ValidationWarnings,
				ProcessTime: result.Stats.ProcessingTime,
			})
			fmt.Printf("  ✓ %s -> %s\n", name, result.OutputFile)
			continue
		}
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    name,
			ErrorMessage: fmt.Sprint(result.Error),
		})
		fmt.Printf("  ✗ %s: %v\n", name, result.Error)
	}
	summary.EndTime = time.Now()

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Line items:      %d\n", summary.TotalLineItems)
	fmt.Printf("Warnings:        %d\n", summary.ValidationWarnings)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
	if err != nil {
		logger.Warn("failed to write summary log", zap.Error(err))
	} else {
		fmt.Printf("Summary:         %s\n", summaryPath)
	}

	return batchErr
}
