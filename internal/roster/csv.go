package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// attributeHeaders are the fixed employee columns of the exported grid, using
// the column titles the printed roster has always carried.
var attributeHeaders = []string{"N°", "APELLIDOS Y NOMBRES", "CC", "CARGO", "DEPARTAMENTO", "ESTADO"}

// WriteCSV renders the wide month grid as CSV: the employee attribute columns
// followed by one column per calendar day, cells holding the shift code or "".
func WriteCSV(w io.Writer, rows []Row, year, month int) error {
	days := DaysInMonth(year, month)
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(attributeHeaders)+days)
	header = append(header, attributeHeaders...)
	for day := 1; day <= days; day++ {
		header = append(header, FormatDayKey(day, month, year))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record,
			strconv.Itoa(row.Sequence),
			row.FullName,
			row.NationalID,
			row.Title,
			row.Department,
			string(row.Status),
		)
		for day := 1; day <= days; day++ {
			record = append(record, row.Cells[day])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.NationalID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
