package roster

import (
	"sort"

	"github.com/example/shift-roster/internal/persistence"
)

// Row is one employee's line in the wide month grid. Cells always carries
// exactly DaysInMonth(year, month) keys; unassigned days hold the empty string.
type Row struct {
	EmployeeID string
	Sequence   int
	Title      string
	FullName   string
	NationalID string
	Department string
	Status     persistence.EmployeeStatus
	Cells      map[int]string
}

// EmployeeResolver maps a national ID to the employee's store ID. A false
// return marks the row as unmatched; callers report those, never drop them.
type EmployeeResolver func(nationalID string) (string, bool)

// AssignmentsToGrid builds the wide table for one month: one row per employee
// in sequence order, one cell per calendar day. Assignments for employees not
// in the list and assignments outside the month are ignored.
func AssignmentsToGrid(employees []persistence.Employee, assignments []persistence.Assignment, year, month int) []Row {
	days := DaysInMonth(year, month)

	byEmployee := make(map[string]map[int]string, len(employees))
	for _, a := range assignments {
		if a.Year != year || a.Month != month {
			continue
		}
		if a.Day < 1 || a.Day > days || a.Code == nil || *a.Code == "" {
			continue
		}
		cells, ok := byEmployee[a.EmployeeID]
		if !ok {
			cells = make(map[int]string)
			byEmployee[a.EmployeeID] = cells
		}
		cells[a.Day] = *a.Code
	}

	ordered := make([]persistence.Employee, len(employees))
	copy(ordered, employees)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Sequence == ordered[j].Sequence {
			return ordered[i].FullName < ordered[j].FullName
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	rows := make([]Row, 0, len(ordered))
	for _, e := range ordered {
		cells := make(map[int]string, days)
		for day := 1; day <= days; day++ {
			cells[day] = byEmployee[e.ID][day]
		}
		rows = append(rows, Row{
			EmployeeID: e.ID,
			Sequence:   e.Sequence,
			Title:      e.Title,
			FullName:   e.FullName,
			NationalID: e.NationalID,
			Department: e.Department,
			Status:     e.Status,
			Cells:      cells,
		})
	}

	return rows
}

// GridToAssignments decomposes an edited wide table into per-day upserts. Every
// day of the month produces one assignment per matched row; a blank cell maps
// to a nil code so saving clears the cell instead of deleting history. Rows
// whose national ID the resolver cannot match are collected in skipped.
func GridToAssignments(rows []Row, year, month int, resolve EmployeeResolver) (assignments []persistence.Assignment, skipped []string) {
	days := DaysInMonth(year, month)

	for _, row := range rows {
		employeeID, ok := resolve(row.NationalID)
		if !ok {
			skipped = append(skipped, row.NationalID)
			continue
		}

		for day := 1; day <= days; day++ {
			var code *string
			if value := row.Cells[day]; value != "" {
				v := value
				code = &v
			}
			assignments = append(assignments, persistence.Assignment{
				EmployeeID: employeeID,
				Year:       year,
				Month:      month,
				Day:        day,
				Code:       code,
			})
		}
	}

	return assignments, skipped
}

// NonEmpty filters out assignments whose code is nil or blank.
func NonEmpty(assignments []persistence.Assignment) []persistence.Assignment {
	filtered := make([]persistence.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Code != nil && *a.Code != "" {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
