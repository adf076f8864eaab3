package roster

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shift-roster/internal/persistence"
)

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{
			Sequence:   1,
			Title:      "JEFE DE TIENDA",
			FullName:   "GARCIA JUAN",
			NationalID: "123",
			Department: "Tienda",
			Status:     persistence.StatusActive,
			Cells:      map[int]string{15: "VC"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, 2025, 2))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	require.Len(t, header, 6+28, "attribute columns plus one per day")
	assert.Equal(t, "N°", header[0])
	assert.Equal(t, "CC", header[2])
	assert.Equal(t, "1/2/2025", header[6])
	assert.Equal(t, "28/2/2025", header[len(header)-1])

	record := records[1]
	assert.Equal(t, "GARCIA JUAN", record[1])
	assert.Equal(t, "123", record[2])
	assert.Equal(t, "VC", record[6+14], "day 15 cell carries the code")
	assert.Equal(t, "", record[6], "unassigned day exports empty")
}

func TestWriteXLSX(t *testing.T) {
	rows := []Row{
		{
			Sequence:   1,
			FullName:   "GARCIA JUAN",
			NationalID: "123",
			Status:     persistence.StatusActive,
			Cells:      map[int]string{15: "VC", 16: "ZZ"},
		},
	}
	codes := map[string]persistence.ShiftCode{
		"VC": {Code: "VC", Label: "Vacaciones", Color: "#9B5DE5", Hours: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows, codes, 2025, 2))
	assert.Greater(t, buf.Len(), 0)
	// "ZZ" has no registered code; the export tolerates the orphan and only
	// skips its fill style.
}
