// =============================================================================
// Purchase Order Form Engine - Validation Report
// =============================================================================
//
// This module reports on the state of a purchase order snapshot. It never
// blocks export; everything it finds is informational:
//   - Filled/empty status of every label-located field
//   - Monetary values that do not parse as numbers
//   - Quantities that are not numbers and dates that do not parse
//   - Line amounts that differ from Quantity x Rate (manual overrides)
//   - Totals that disagree with the line items
//
// SEVERITIES:
//   - "warning" = a value that will export as typed but is probably wrong
//   - "info"    = a notice, such as a manual amount override
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// Severity levels of a ValidationError.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// tolerance is the largest difference treated as equal for money, in
// dollars.
const tolerance = 0.005

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single finding.
type ValidationError struct {
	// Severity is SeverityWarning or SeverityInfo.
	Severity string `json:"severity"`

	// Field is the field name in the snapshot vocabulary.
	Field string `json:"field"`

	// Value is the value that triggered the finding.
	Value string `json:"value"`

	// Rule is the check that produced the finding.
	Rule string `json:"rule"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// LineItemID is the 1-based line item, or 0 for header fields.
	LineItemID int `json:"lineItem,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.LineItemID > 0 {
		return fmt.Sprintf("[%s] LineItem %d, Field '%s': %s (value: '%s')",
			strings.ToUpper(e.Severity), e.LineItemID, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("[%s] Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), e.Field, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// FieldStatus is the filled/empty state of one field.
type FieldStatus struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Filled  bool   `json:"filled"`
	Value   string `json:"value,omitempty"`
}

// ValidationResult contains the report for one snapshot.
type ValidationResult struct {
	// Fields is the status of every label-located field in canonical order.
	Fields []FieldStatus `json:"fields"`

	// Errors contains every finding, warnings and notices alike.
	Errors []*ValidationError `json:"errors"`

	// FilledCount and EmptyCount summarize Fields.
	FilledCount int `json:"filled"`
	EmptyCount  int `json:"empty"`

	// WarningCount is the number of warning-level findings.
	WarningCount int `json:"warnings"`

	// LineItems is the number of non-empty line items.
	LineItems int `json:"lineItems"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// CheckTotals compares subtotal and total against the line items.
	// Default: true
	CheckTotals bool

	// DateFormats are the accepted layouts of the PO date.
	// Default: MM/DD/YYYY and a few common alternatives
	DateFormats []string
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		CheckTotals: true,
		DateFormats: []string{
			"01/02/2006",
			"1/2/2006",
			"2006-01-02",
			"Jan 2, 2006",
			"January 2, 2006",
		},
	}
}

// Validator inspects snapshots.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate builds the report for snap with default options.
func Validate(snap *types.Snapshot) *ValidationResult {
	return NewValidator().ValidateSnapshot(snap)
}

// ValidateSnapshot builds the full report for snap.
//
// PARAMETERS:
//   - snap: The extracted form state. Nil is treated as an empty form.
//
// RETURNS:
//   - The report. It is never nil.
func (v *Validator) ValidateSnapshot(snap *types.Snapshot) *ValidationResult {
	if snap == nil {
		snap = &types.Snapshot{}
	}
	result := &ValidationResult{
		Fields:    make([]FieldStatus, 0, len(types.Fields)),
		Errors:    make([]*ValidationError, 0),
		LineItems: len(snap.LineItems),
	}

	for _, spec := range types.Fields {
		value := strings.TrimSpace(*spec.Ref(snap))
		status := FieldStatus{Name: spec.Name, Section: spec.Section, Filled: value != "", Value: value}
		result.Fields = append(result.Fields, status)
		if status.Filled {
			result.FilledCount++
		} else {
			result.EmptyCount++
		}

		if spec.Monetary {
			v.add(result, validateMoney(spec.Name, value, 0))
		}
	}
	v.add(result, v.validateDate("poDate", snap.PODate))

	for i := range snap.LineItems {
		v.add(result, v.ValidateLineItem(i+1, &snap.LineItems[i])...)
	}
	if v.options.CheckTotals {
		v.add(result, v.validateTotals(snap)...)
	}
	return result
}

func (v *Validator) add(result *ValidationResult, errs ...*ValidationError) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		result.Errors = append(result.Errors, err)
		if err.Severity == SeverityWarning {
			result.WarningCount++
		}
	}
}

// ValidateLineItem checks one line item. id is the 1-based row number.
func (v *Validator) ValidateLineItem(id int, item *types.LineItem) []*ValidationError {
	var errs []*ValidationError

	qtyName := types.LineItemField(id, columns.Quantity)
	rateName := types.LineItemField(id, columns.Rate)
	amountName := types.LineItemField(id, columns.Amount)

	if msg := validateDecimal(item.Quantity); msg != "" {
		errs = append(errs, &ValidationError{
			Severity:   SeverityWarning,
			Field:      qtyName,
			Value:      item.Quantity,
			Rule:       "numeric",
			Message:    msg,
			LineItemID: id,
		})
	}
	if err := validateMoney(rateName, item.Rate, id); err != nil {
		errs = append(errs, err)
	}
	if err := validateMoney(amountName, item.Amount, id); err != nil {
		errs = append(errs, err)
	}

	qty, qtyOK := currency.ParseStrict(item.Quantity)
	rate, rateOK := currency.ParseStrict(item.Rate)
	amount, amountOK := currency.ParseStrict(item.Amount)
	if qtyOK && rateOK && amountOK && math.Abs(qty*rate-amount) > tolerance {
		errs = append(errs, &ValidationError{
			Severity: SeverityInfo,
			Field:    amountName,
			Value:    item.Amount,
			Rule:     "manual_override",
			Message: fmt.Sprintf("Amount differs from Quantity x Rate (%s); the typed value is kept",
				currency.FormatAmount(qty*rate)),
			LineItemID: id,
		})
	}
	return errs
}

// validateTotals compares subtotal and total with what the line items and
// charges add up to.
func (v *Validator) validateTotals(snap *types.Snapshot) []*ValidationError {
	var errs []*ValidationError

	var sum float64
	for _, item := range snap.LineItems {
		sum += currency.Parse(item.Amount)
	}
	if sub, ok := currency.ParseStrict(snap.Totals.Subtotal); ok && math.Abs(sub-sum) > tolerance {
		errs = append(errs, &ValidationError{
			Severity: SeverityWarning,
			Field:    "subtotal",
			Value:    snap.Totals.Subtotal,
			Rule:     "subtotal_mismatch",
			Message:  fmt.Sprintf("Subtotal does not match the line items (%s)", currency.FormatAmount(sum)),
		})
	}

	want := currency.Parse(snap.Totals.Subtotal) +
		currency.Parse(snap.Totals.Tax) +
		currency.Parse(snap.Totals.Shipping) +
		currency.Parse(snap.Totals.Other)
	if total, ok := currency.ParseStrict(snap.Totals.Total); ok && math.Abs(total-want) > tolerance {
		errs = append(errs, &ValidationError{
			Severity: SeverityWarning,
			Field:    "total",
			Value:    snap.Totals.Total,
			Rule:     "total_mismatch",
			Message:  fmt.Sprintf("Total does not equal subtotal plus charges (%s)", currency.FormatAmount(want)),
		})
	}
	return errs
}

// =============================================================================
// DATA TYPE VALIDATORS
// =============================================================================

// validateMoney reports a monetary value that is filled but not numeric.
func validateMoney(field, value string, lineItem int) *ValidationError {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, ok := currency.ParseStrict(value); ok {
		return nil
	}
	return &ValidationError{
		Severity:   SeverityWarning,
		Field:      field,
		Value:      value,
		Rule:       "currency",
		Message:    fmt.Sprintf("Value '%s' is not a valid amount and will be exported as typed", value),
		LineItemID: lineItem,
	}
}

// validateDecimal validates that a value is a valid decimal number.
func validateDecimal(value string) string {
	value = strings.TrimSpace(value)

	// Allow empty values.
	if value == "" {
		return ""
	}

	if _, ok := currency.ParseStrict(value); !ok {
		return fmt.Sprintf("Value '%s' is not a valid number", value)
	}
	return ""
}

// validateDate validates the PO date against the configured layouts.
func (v *Validator) validateDate(field, value string) *ValidationError {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, f := range v.options.DateFormats {
		if _, err := time.Parse(f, value); err == nil {
			return nil
		}
	}
	return &ValidationError{
		Severity: SeverityWarning,
		Field:    field,
		Value:    value,
		Rule:     "date",
		Message:  fmt.Sprintf("Value '%s' is not a recognized date", value),
	}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatReport formats a report for display.
func FormatReport(result *ValidationResult) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Fields: %d filled, %d empty; %d line item(s)\n\n",
		result.FilledCount, result.EmptyCount, result.LineItems))
	for _, f := range result.Fields {
		mark := "✗"
		if f.Filled {
			mark = "✓"
		}
		builder.WriteString(fmt.Sprintf("  %s %-16s %s\n", mark, f.Name, f.Value))
	}
	builder.WriteString("\n")
	builder.WriteString(FormatErrors(result.Errors))
	return builder.String()
}

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation warnings.\n"
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes a formatted report to filePath.
func WriteErrorLog(result *ValidationResult, filePath string) error {
	header := fmt.Sprintf("Validation report generated %s\n\n", time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(header+FormatReport(result)), 0o644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
