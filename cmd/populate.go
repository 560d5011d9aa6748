// =============================================================================
// Purchase Order Form Engine - Populate Command
// =============================================================================
//
// COMMAND USAGE:
//   poform populate [form.html] [flags]
//
// Without a form argument the embedded blank form is populated.
//
// SOURCES (exactly one):
//   --random   : Generated data (--seed, --lines, --options)
//   --chatgpt  : OpenAI generated data (--industry, --company-type)
//   --fields   : CSV, TSV, XLSX or JSON field file
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/purchase-order-xml/internal/calc"
	"github.com/ginjaninja78/purchase-order-xml/internal/fieldsource"
	"github.com/ginjaninja78/purchase-order-xml/internal/generator"
	"github.com/ginjaninja78/purchase-order-xml/internal/llm"
	"github.com/ginjaninja78/purchase-order-xml/internal/populate"
)

var (
	populateOutput      string
	populateRandom      bool
	populateSeed        uint64
	populateLines       int
	populateOptions     bool
	populateChatGPT     bool
	populateIndustry    string
	populateCompanyType string
	populateFields      string
	populateClear       bool
)

var populateCmd = &cobra.Command{
	Use:   "populate [form.html]",
	Short: "Fill a form from random data, ChatGPT or a field file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var formPath string
		if len(args) == 1 {
			formPath = args[0]
		}
		return runPopulate(cmd, formPath)
	},
}

func init() {
	rootCmd.AddCommand(populateCmd)

	f := populateCmd.Flags()
	f.StringVarP(&populateOutput, "output", "o", "", "Destination of the populated form (default stdout)")
	f.BoolVar(&populateRandom, "random", false, "Fill with generated data")
	f.Uint64Var(&populateSeed, "seed", 0, "Seed for --random (0 picks one)")
	f.IntVar(&populateLines, "lines", 0, "Line items for --random (0 fills every row)")
	f.BoolVar(&populateOptions, "options", false, "Also fill the line-item options with --random")
	f.BoolVar(&populateChatGPT, "chatgpt", false, "Fill with OpenAI generated data")
	f.StringVar(&populateIndustry, "industry", "", "Industry for --chatgpt")
	f.StringVar(&populateCompanyType, "company-type", "", "Company type for --chatgpt")
	f.StringVar(&populateFields, "fields", "", "CSV, TSV, XLSX or JSON field file")
	f.BoolVar(&populateClear, "clear", false, "Clear every field before populating")
	populateCmd.MarkFlagsMutuallyExclusive("random", "chatgpt", "fields")
	populateCmd.MarkFlagsOneRequired("random", "chatgpt", "fields")
}

func runPopulate(cmd *cobra.Command, formPath string) error {
	exporter, err := newExporter()
	if err != nil {
		return err
	}
	doc, err := loadForm(formPath)
	if err != nil {
		return err
	}

	var fields map[string]string
	switch {
	case populateRandom:
		gen := generator.NewRandom()
		if populateSeed != 0 {
			gen = generator.New(populateSeed)
		}
		if populateLines > 0 {
			gen.LineItems = populateLines
		}
		gen.WithOptions = populateOptions
		fields = gen.Generate()
	case populateChatGPT:
		fields, err = newLLMClient().Generate(cmd.Context(), populateIndustry, populateCompanyType)
	default:
		fields, err = fieldsource.Load(populateFields)
	}
	if err != nil {
		return fmt.Errorf("failed to get field values: %w", err)
	}

	if populateClear {
		logger.Debug("cleared form", zap.Int("fields", populate.Clear(doc)))
	}
	mapper, locator := exporter.Mapper(), exporter.Locator()
	rep := populate.New(mapper, locator, logger).Apply(doc, fields)
	calc.New(mapper, locator, logger).RecalculateAll(doc)

	if len(rep.Unknown) > 0 {
		logger.Warn("unknown fields ignored", zap.String("fields", strings.Join(rep.Unknown, ", ")))
	}
	if len(rep.Missing) > 0 {
		logger.Warn("fields missing from the form", zap.String("fields", strings.Join(rep.Missing, ", ")))
	}
	logger.Info("populated form", zap.Int("applied", len(rep.Applied)))

	return writeForm(doc, populateOutput)
}

// newLLMClient builds the OpenAI client from the loaded configuration.
func newLLMClient() *llm.Client {
	o := mainConfig.OpenAI
	return llm.New(llm.Config{
		APIKey:       o.APIKey,
		BaseURL:      o.BaseURL,
		Model:        o.Model,
		MaxTokens:    o.MaxTokens,
		Temperature:  o.Temperature,
		Timeout:      o.Timeout,
		MaxRetries:   o.MaxRetries,
		RetryBackoff: o.RetryBackoff,
	}, logger)
}
