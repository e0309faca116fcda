package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"moviedash/pkg/models"
)

// ReadCSV reads a whole CSV file into raw records keyed by lowercased
// header name. Rows shorter or longer than the header are tolerated;
// hostile input is the normalizer's problem, not the reader's.
func ReadCSV(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// ReadRecords decodes CSV rows from r into raw records.
func ReadRecords(r io.Reader) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.ToLower(name))
	}

	var out []models.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		rec := make(models.RawRecord, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			rec[name] = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}
