// =============================================================================
// Purchase Order Form Engine - Field Sources
// =============================================================================
//
// Loads field maps (field name -> value) from files so that a form can be
// populated from data prepared elsewhere:
//   - CSV  : two columns, field and value
//   - XLSX : columns A and B of the first sheet
//   - JSON : one flat object; nested objects are flattened by inner key
//
// A first row whose key is not a known field name (e.g. "field,value") is
// treated as a header and skipped. Unknown keys further down are kept; the
// populator reports them.
//
// =============================================================================

package fieldsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// ErrUnsupportedFormat is returned for file extensions Load does not know.
var ErrUnsupportedFormat = errors.New("unsupported field source format")

// Load reads a field map, choosing the format from the file extension.
func Load(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return LoadCSV(path, CSVSettings{Delimiter: delimiterFor(path)})
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	case ".json":
		return LoadJSON(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func delimiterFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return "tab"
	}
	return ","
}

// fromRows turns key/value rows into a field map. Rows with an empty key
// are skipped, as is a leading header row.
func fromRows(rows [][]string) map[string]string {
	out := make(map[string]string, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if key == "" {
			continue
		}
		if i == 0 && !types.IsKnownField(key) && isHeaderKey(key) {
			continue
		}
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}
		out[key] = value
	}
	return out
}

func isHeaderKey(key string) bool {
	switch strings.ToLower(key) {
	case "field", "fields", "name", "key", "field name", "fieldname":
		return true
	}
	return false
}

// =============================================================================
// JSON
// =============================================================================

// LoadJSON reads a field map from a JSON file.
func LoadJSON(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes a flat JSON object of strings, numbers and booleans.
func ReadJSON(r io.Reader) (map[string]string, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	out := make(map[string]string, len(raw))
	flattenJSON(raw, out)
	return out, nil
}

func flattenJSON(m map[string]any, out map[string]string) {
	for k, v := range m {
		switch v := v.(type) {
		case map[string]any:
			flattenJSON(v, out)
		case string:
			out[k] = strings.TrimSpace(v)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(v)
		case nil:
			out[k] = ""
		}
	}
}
