package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
)

// ImportOptions configures Import.
type ImportOptions struct {
	// DryRun validates every row without storing anything.
	DryRun bool
}

// RowError is a row that could not be imported. Row is 1-based, as shown by
// spreadsheet programs.
type RowError struct {
	Row     int    `json:"row" yaml:"row"`
	Message string `json:"message" yaml:"message"`
}

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	Inserted int        `json:"inserted" yaml:"inserted"`
	Skipped  int        `json:"skipped" yaml:"skipped"`
	Errors   []RowError `json:"errors" yaml:"errors"`
	DryRun   bool       `json:"dry_run" yaml:"dry_run"`
}

// ErrMissingColumn is returned when the Equipment sheet lacks a required header.
var ErrMissingColumn = errors.New("missing required column")

// Import adds one equipment record per data row of the Equipment sheet.
// Columns are located by header (Name, Category and optionally Assigned to),
// so a workbook written by Export can be read back. A bad row is recorded
// and the import carries on.
func Import(ctx context.Context, svc *inventory.Service, r io.Reader, opts ImportOptions) (*ImportSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}

	sh, ok := f.Sheet[EquipmentSheet]
	if !ok {
		return nil, fmt.Errorf("workbook has no %q sheet", EquipmentSheet)
	}
	if sh.MaxRow == 0 {
		return nil, fmt.Errorf("%s sheet is empty", EquipmentSheet)
	}

	header, err := sh.Row(0)
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}
	cols := map[string]int{}
	for i := 0; i < sh.MaxCol; i++ {
		name := strings.ToLower(strings.TrimSpace(header.GetCell(i).String()))
		if name != "" {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	for _, required := range []string{"name", "category"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	summary := &ImportSummary{DryRun: opts.DryRun, Errors: []RowError{}}

	for i := 1; i < sh.MaxRow; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		row, err := sh.Row(i)
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		cell := func(column string) string {
			idx, ok := cols[column]
			if !ok {
				return ""
			}
			return row.GetCell(idx).String()
		}
		name, category, assignee := cell("name"), cell("category"), cell("assigned to")

		if strings.TrimSpace(name+category+assignee) == "" {
			summary.Skipped++
			continue
		}

		var e *model.Equipment
		if opts.DryRun {
			e, err = svc.ValidateEquipment(ctx, name, category, assignee)
		} else {
			e, err = svc.AddEquipment(ctx, name, category, assignee)
		}
		if err != nil {
			if !errors.Is(err, model.ErrValidation) {
				return summary, fmt.Errorf("importing row %d: %w", i+1, err)
			}
			summary.Errors = append(summary.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		summary.Inserted++
		slog.Debug("imported equipment row", "row", i+1, "equipment", e.Name, "dry_run", opts.DryRun)
	}

	slog.Info("spreadsheet import finished",
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"dry_run", opts.DryRun,
	)
	return summary, nil
}
