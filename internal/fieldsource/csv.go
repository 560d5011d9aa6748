package fieldsource

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSettings configures the CSV reader.
type CSVSettings struct {
	// Delimiter is the field separator. "tab", "pipe" and "semicolon" are
	// accepted by name. Default: ","
	Delimiter string
}

// LoadCSV reads a field,value CSV file.
func LoadCSV(path string, settings CSVSettings) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadCSV(bufio.NewReader(file), settings)
}

// ReadCSV reads field,value records from r.
func ReadCSV(r io.Reader, settings CSVSettings) (map[string]string, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fromRows(rows), nil
}

// configureReader applies settings to a csv.Reader.
func configureReader(reader *csv.Reader, settings CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Rows may have one or two cells.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
}
