// Package spreadsheet exports both stores to an XLSX workbook and imports
// equipment rows from one.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/store"
)

// Sheet names used by Export and Import.
const (
	EquipmentSheet = "Equipment"
	EmployeesSheet = "Employees"
)

var (
	equipmentHeader = []string{"ID", "Name", "Category", "Assigned to", "Last audit"}
	employeesHeader = []string{"ID", "First name", "Last name", "Company"}
)

// Export writes every equipment record and every employee as two sheets.
func Export(ctx context.Context, svc *inventory.Service, w io.Writer) error {
	items, err := svc.ListEquipment(ctx, store.EquipmentFilter{})
	if err != nil {
		return fmt.Errorf("listing equipment: %w", err)
	}
	employees, err := svc.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}

	f := xlsx.NewFile()

	sh, err := f.AddSheet(EquipmentSheet)
	if err != nil {
		return fmt.Errorf("adding %s sheet: %w", EquipmentSheet, err)
	}
	addRow(sh, equipmentHeader...)
	for _, e := range items {
		audit := ""
		if e.LastAudit != nil {
			audit = e.LastAudit.UTC().Format(time.RFC3339)
		}
		row := sh.AddRow()
		row.AddCell().SetInt64(e.ID)
		row.AddCell().SetString(e.Name)
		row.AddCell().SetString(string(e.Category))
		row.AddCell().SetString(e.AssignedTo)
		row.AddCell().SetString(audit)
	}

	sh, err = f.AddSheet(EmployeesSheet)
	if err != nil {
		return fmt.Errorf("adding %s sheet: %w", EmployeesSheet, err)
	}
	addRow(sh, employeesHeader...)
	for _, e := range employees {
		row := sh.AddRow()
		row.AddCell().SetInt64(e.ID)
		row.AddCell().SetString(e.FirstName)
		row.AddCell().SetString(e.LastName)
		row.AddCell().SetString(e.Company)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func addRow(sh *xlsx.Sheet, values ...string) {
	row := sh.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
