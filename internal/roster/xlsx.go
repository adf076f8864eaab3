package roster

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/shift-roster/internal/persistence"
)

const sheetName = "Malla"

// WriteXLSX renders the wide month grid as a styled spreadsheet. Day cells are
// filled with the configured color of their shift code so the download matches
// the on-screen grid.
func WriteXLSX(w io.Writer, rows []Row, codes map[string]persistence.ShiftCode, year, month int) error {
	days := DaysInMonth(year, month)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"305496"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build header style: %w", err)
	}

	header := make([]any, 0, len(attributeHeaders)+days)
	for _, h := range attributeHeaders {
		header = append(header, h)
	}
	for day := 1; day <= days; day++ {
		header = append(header, FormatDayKey(day, month, year))
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("failed to resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	// One style per configured code color, built lazily.
	codeStyles := make(map[string]int, len(codes))
	styleFor := func(code string) (int, bool) {
		if style, ok := codeStyles[code]; ok {
			return style, true
		}
		sc, ok := codes[code]
		if !ok {
			return 0, false
		}
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(sc.Color, "#")}},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
		})
		if err != nil {
			return 0, false
		}
		codeStyles[code] = style
		return style, true
	}

	for i, row := range rows {
		rowNumber := i + 2
		record := []any{row.Sequence, row.FullName, row.NationalID, row.Title, row.Department, string(row.Status)}
		for day := 1; day <= days; day++ {
			record = append(record, row.Cells[day])
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNumber)
		if err != nil {
			return fmt.Errorf("failed to resolve row cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
		}

		for day := 1; day <= days; day++ {
			code := row.Cells[day]
			if code == "" {
				continue
			}
			style, ok := styleFor(code)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(len(attributeHeaders)+day, rowNumber)
			if err != nil {
				return fmt.Errorf("failed to resolve day cell: %w", err)
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return fmt.Errorf("failed to style day cell: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size name column: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
