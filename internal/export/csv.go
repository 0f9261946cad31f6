package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// WriteCSV renders t with a header line of its column names.
func WriteCSV(t Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(t.Columns); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		record := row.Record()
		if len(record) != len(t.Columns) {
			return nil, fmt.Errorf("%s row %d: %d fields for %d columns", t.Name, i, len(record), len(t.Columns))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
