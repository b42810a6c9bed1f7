// Package metadata builds the disease description and precaution lookup
// from the two tabular reference files. The index is assembled once at load
// and read-only afterward.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry holds the reference data for one disease. Precautions preserve the
// column declaration order of the source table.
type Entry struct {
	Description string   `json:"description"`
	Precautions []string `json:"precautions"`
}

// Index maps disease name to its reference entry.
type Index struct {
	entries map[string]Entry
}

// LoadIndex reads the precaution and description tables and joins them on
// disease name. Diseases present in either table get an entry; incomplete
// reference data never blocks ranking.
func LoadIndex(precautionsPath, descriptionsPath string) (*Index, error) {
	pf, err := os.Open(precautionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open precautions table: %w", err)
	}
	defer pf.Close()

	df, err := os.Open(descriptionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open descriptions table: %w", err)
	}
	defer df.Close()

	idx, err := buildIndex(pf, df)
	if err != nil {
		return nil, fmt.Errorf("failed to build disease metadata: %w", err)
	}
	return idx, nil
}

func buildIndex(precautions, descriptions io.Reader) (*Index, error) {
	precautionRows, precautionHeader, err := readTable(precautions)
	if err != nil {
		return nil, fmt.Errorf("precautions table: %w", err)
	}
	descriptionRows, descriptionHeader, err := readTable(descriptions)
	if err != nil {
		return nil, fmt.Errorf("descriptions table: %w", err)
	}

	diseaseCol, err := findColumn(precautionHeader, "disease")
	if err != nil {
		return nil, fmt.Errorf("precautions table: %w", err)
	}
	// Precaution value columns, in declaration order.
	var precautionCols []int
	for i, name := range precautionHeader {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "precaution") {
			precautionCols = append(precautionCols, i)
		}
	}

	descDiseaseCol, err := findColumn(descriptionHeader, "disease")
	if err != nil {
		return nil, fmt.Errorf("descriptions table: %w", err)
	}
	descCol, err := findColumn(descriptionHeader, "description")
	if err != nil {
		return nil, fmt.Errorf("descriptions table: %w", err)
	}

	descByDisease := make(map[string]string, len(descriptionRows))
	for _, row := range descriptionRows {
		disease := strings.TrimSpace(cell(row, descDiseaseCol))
		if disease == "" {
			continue
		}
		descByDisease[disease] = strings.TrimSpace(cell(row, descCol))
	}

	entries := make(map[string]Entry, len(precautionRows))
	for _, row := range precautionRows {
		disease := strings.TrimSpace(cell(row, diseaseCol))
		if disease == "" {
			continue
		}
		var values []string
		for _, col := range precautionCols {
			value := strings.TrimSpace(cell(row, col))
			if value == "" || strings.EqualFold(value, "nan") {
				continue
			}
			values = append(values, value)
		}
		entries[disease] = Entry{
			Description: descByDisease[disease],
			Precautions: values,
		}
	}

	// Diseases that only appear in the description table still get an entry.
	for disease, description := range descByDisease {
		if _, ok := entries[disease]; !ok {
			entries[disease] = Entry{Description: description}
		}
	}

	return &Index{entries: entries}, nil
}

// readTable parses a CSV table into header and data rows. Ragged rows are
// tolerated; short rows read as empty cells.
func readTable(r io.Reader) (rows [][]string, header []string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("table has no header row")
	}
	return all[1:], all[0], nil
}

func findColumn(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("missing required column %q", name)
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// Lookup returns the entry for a disease. Unknown diseases return a zero
// entry rather than an error so incomplete reference data never fails a
// prediction.
func (idx *Index) Lookup(disease string) Entry {
	return idx.entries[disease]
}

// Diseases returns all indexed disease names, sorted.
func (idx *Index) Diseases() []string {
	out := make([]string, 0, len(idx.entries))
	for disease := range idx.entries {
		out = append(out, disease)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of indexed diseases.
func (idx *Index) Len() int { return len(idx.entries) }
