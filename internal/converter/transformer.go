// =============================================================================
// Purchase Order Form Engine - Export Transformation Engine
// =============================================================================
//
// This module rewrites extracted field values before they are written to the
// XML report. The form itself is never modified.
//
// TRANSFORMATION TYPES:
//   - String manipulations (prepend, append, trim, case conversion)
//   - Numeric formatting (padding, precision)
//   - Date conversions
//   - Lookup table replacements
//   - Empty-value fallbacks
//   - Regular expression replacements
//
// TYPICAL RULES:
//   - PO number formatting (prefixes, zero-padding)
//   - Date format conversions for the receiving system
//   - Vendor name normalization
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

var (
	digitsPattern     = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// knownActions lists every supported action type.
var knownActions = map[string]bool{
	"prepend_string":       true,
	"append_string":        true,
	"trim":                 true,
	"trim_left":            true,
	"trim_right":           true,
	"uppercase":            true,
	"lowercase":            true,
	"title_case":           true,
	"replace":              true,
	"regex_replace":        true,
	"substring":            true,
	"pad_zeros_to_length":  true,
	"ensure_length":        true,
	"format_number":        true,
	"remove_leading_zeros": true,
	"format_date":          true,
	"lookup":               true,
	"lookup_with_default":  true,
	"if_empty_use_default": true,
	"if_empty_use_field":   true,
	"extract_digits":       true,
	"normalize_whitespace": true,
	"format_currency":      true,
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer handles field value transformations.
type Transformer struct {
	rules []config.TransformationRule
}

// NewTransformer creates a Transformer after checking every rule: field
// names must be known and action types supported. Regex patterns are
// compiled up front.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	for _, rule := range rules {
		if !types.IsKnownField(rule.Field) {
			return nil, fmt.Errorf("transform %q: %w", rule.Field, types.ErrUnknownField)
		}
		for _, action := range rule.Actions {
			if !knownActions[action.Type] {
				return nil, fmt.Errorf("transform %q: unknown transformation type: %s", rule.Field, action.Type)
			}
			if action.Type == "regex_replace" && action.Find != "" {
				if _, err := regexp.Compile(action.Find); err != nil {
					return nil, fmt.Errorf("transform %q: invalid regex pattern: %w", rule.Field, err)
				}
			}
		}
	}
	return &Transformer{rules: rules}, nil
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return t == nil || len(t.rules) == 0
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// Apply runs every rule, in order, against the snapshot. Fallback actions
// read the other fields as they were before this call. Rules on line-item
// rows the form left empty are skipped, and rows a rule empties are
// dropped, so the report never carries blank line items.
//
// PARAMETERS:
//   - snap: The extracted snapshot; modified in place.
//
// RETURNS:
//   - An error naming the first failing field and action.
func (t *Transformer) Apply(snap *types.Snapshot) error {
	if t.Empty() || snap == nil {
		return nil
	}
	allFields := snap.Fields()

	for _, rule := range t.rules {
		if row, _, ok := types.ParseLineItemField(rule.Field); ok && row > len(snap.LineItems) {
			continue
		}
		value, err := snap.Get(rule.Field)
		if err != nil {
			return err
		}
		for _, action := range rule.Actions {
			value, err = ApplyTransformation(value, action, allFields)
			if err != nil {
				return fmt.Errorf("failed to apply %s to field %s: %w", action.Type, rule.Field, err)
			}
		}
		if err := snap.Set(rule.Field, value); err != nil {
			return err
		}
	}

	items := snap.LineItems[:0]
	for _, item := range snap.LineItems {
		if !item.IsEmpty() {
			items = append(items, item)
		}
	}
	snap.LineItems = items
	return nil
}

// ApplyTransformation applies a single transformation action.
//
// PARAMETERS:
//   - value: The current value.
//   - action: The transformation action to apply.
//   - allFields: All snapshot fields (for fallback actions).
//
// RETURNS:
//   - The transformed value.
//   - An error if the transformation fails.
func ApplyTransformation(value string, action config.TransformationAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		// "123456" + "PO-" -> "PO-123456"
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "title_case":
		// Casers are stateful; one per call.
		return cases.Title(language.English).String(strings.ToLower(value)), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		// "ABC-123-DEF" with find "[A-Z]+" and value "X" -> "X-123-X"
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "substring":
		// VALUE FORMAT: "start,end" (0-indexed, end is exclusive)
		parts := strings.Split(action.Value, ",")
		if len(parts) != 2 {
			return value, nil
		}
		start, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, _ := strconv.Atoi(strings.TrimSpace(parts[1]))

		runes := []rune(value)
		start = max(start, 0)
		end = min(end, len(runes))
		if start >= end {
			return "", nil
		}
		return string(runes[start:end]), nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// "123" with "8" -> "00000123"
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "ensure_length":
		// Truncates from the right, pads with leading zeros.
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		runes := []rune(value)
		if len(runes) > targetLength {
			return string(runes[:targetLength]), nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "format_number":
		// "1234.5" with "2" -> "1234.50"
		decimalPlaces, err := strconv.Atoi(action.Value)
		if err != nil || decimalPlaces < 0 {
			return value, nil
		}
		num, ok := currency.ParseStrict(value)
		if !ok {
			return value, nil
		}
		return strconv.FormatFloat(num, 'f', decimalPlaces, 64), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	case "format_currency":
		// "1234.5" -> "$1,234.50"; non-numeric values are kept.
		if _, ok := currency.ParseStrict(value); !ok {
			return value, nil
		}
		return currency.Format(value), nil

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		// VALUE FORMAT: "input_layout|output_layout"
		// "01/15/2024" with "01/02/2006|2006-01-02" -> "2024-01-15"
		parts := strings.Split(action.Value, "|")
		if len(parts) != 2 {
			return value, nil
		}
		t, err := time.Parse(strings.TrimSpace(parts[0]), strings.TrimSpace(value))
		if err != nil {
			return value, nil
		}
		return t.Format(strings.TrimSpace(parts[1])), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// EMPTY-VALUE FALLBACKS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		// VALUE: the name of the field to copy, e.g. "shipToCompany".
		if strings.TrimSpace(value) == "" {
			if otherValue, exists := allFields[action.Value]; exists {
				return otherValue, nil
			}
		}
		return value, nil

	// =========================================================================
	// SPECIAL TRANSFORMATIONS
	// =========================================================================

	case "extract_digits":
		// "(555) 123-4567" -> "5551234567"
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	case "normalize_whitespace":
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " ")), nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target
// length in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
