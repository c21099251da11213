package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/backup"
	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/spreadsheet"
	"github.com/erazemk/oprema/internal/store"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func wantArgs(args []string, n int, synopsis string) error {
	if len(args) != n {
		return fmt.Errorf("usage: oprema %s", synopsis)
	}
	return nil
}

func (a *app) employee(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: oprema employee add|list|show|delete")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "add":
		if err := wantArgs(args, 3, "employee add <first> <last> <company>"); err != nil {
			return err
		}
		e, err := a.svc.AddEmployee(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return a.out.employee(e)

	case "list":
		list, err := a.svc.ListEmployees(ctx)
		if err != nil {
			return err
		}
		return a.out.employees(list)

	case "show":
		if err := wantArgs(args, 1, "employee show <id>"); err != nil {
			return err
		}
		id, err := parseID(args[0], "employee")
		if err != nil {
			return err
		}
		e, err := a.svc.Employee(ctx, id)
		if err != nil {
			return err
		}
		items, err := a.svc.AssignedEquipment(ctx, id)
		if err != nil {
			return err
		}
		if items == nil {
			items = []model.Equipment{}
		}
		if a.out.format != formatTable {
			return a.out.print(struct {
				model.Employee `yaml:",inline"`
				Label          string            `json:"label" yaml:"label"`
				Equipment      []model.Equipment `json:"equipment" yaml:"equipment"`
			}{*e, e.Label(), items}, nil)
		}
		if err := a.out.employee(e); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout)
		return a.out.equipmentList(items)

	case "delete":
		if err := wantArgs(args, 1, "employee delete <id>"); err != nil {
			return err
		}
		id, err := parseID(args[0], "employee")
		if err != nil {
			return err
		}
		e, err := a.svc.DeleteEmployee(ctx, id)
		if err != nil {
			return err
		}
		return a.out.message("deleted employee %d (%s)", e.ID, e.Label())
	}
	return fmt.Errorf("unknown employee command %q", sub)
}

func (a *app) equipment(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: oprema equipment add|list|show|delete|assign|unassign|audit")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "add":
		fs := flag.NewFlagSet("equipment add", flag.ContinueOnError)
		assignedTo := fs.String("assigned-to", "", "employee label")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if err := wantArgs(pos, 2, "equipment add [-assigned-to label] <name> <category>"); err != nil {
			return err
		}
		e, err := a.svc.AddEquipment(ctx, pos[0], pos[1], *assignedTo)
		if err != nil {
			return err
		}
		return a.out.equipment(e)

	case "list":
		fs := flag.NewFlagSet("equipment list", flag.ContinueOnError)
		search := fs.String("search", "", "case-sensitive name substring")
		category := fs.String("category", string(model.AllCategories), "category name")
		if _, err := parseArgs(fs, args); err != nil {
			return err
		}
		filter := store.EquipmentFilter{Search: *search}
		if *category != "" && *category != string(model.AllCategories) {
			c, err := model.ParseCategory(*category)
			if err != nil {
				return err
			}
			filter.Category = c
		}
		list, err := a.svc.ListEquipment(ctx, filter)
		if err != nil {
			return err
		}
		return a.out.equipmentList(list)

	case "show", "delete", "unassign", "audit":
		if err := wantArgs(args, 1, "equipment "+sub+" <id>"); err != nil {
			return err
		}
		id, err := parseID(args[0], "equipment")
		if err != nil {
			return err
		}
		var e *model.Equipment
		switch sub {
		case "show":
			e, err = a.svc.GetEquipment(ctx, id)
		case "delete":
			e, err = a.svc.DeleteEquipment(ctx, id)
			if err == nil {
				return a.out.message("deleted equipment %d (%s)", e.ID, e.Name)
			}
		case "unassign":
			e, err = a.svc.Unassign(ctx, id)
		case "audit":
			e, err = a.svc.RecordAudit(ctx, id)
		}
		if err != nil {
			return err
		}
		return a.out.equipment(e)

	case "assign":
		if err := wantArgs(args, 2, "equipment assign <id> <employee-id>"); err != nil {
			return err
		}
		id, err := parseID(args[0], "equipment")
		if err != nil {
			return err
		}
		empID, err := parseID(args[1], "employee")
		if err != nil {
			return err
		}
		e, err := a.svc.AssignToEmployee(ctx, id, empID)
		if err != nil {
			return err
		}
		return a.out.equipment(e)
	}
	return fmt.Errorf("unknown equipment command %q", sub)
}

var errInconsistent = errors.New("inconsistencies found")

func (a *app) check(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "check"); err != nil {
		return err
	}
	report, err := a.svc.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	err = a.out.print(report, func(w io.Writer) {
		if report.OK() {
			fmt.Fprintln(w, "No inconsistencies found.")
			return
		}
		for _, e := range report.Orphaned {
			fmt.Fprintf(w, "orphaned\tequipment %d\t%s\t%s\n", e.ID, e.Name, e.AssignedTo)
		}
		for label, ids := range report.Ambiguous {
			fmt.Fprintf(w, "ambiguous\t%s\temployees %s\n", label, joinIDs(ids))
		}
	})
	if err != nil {
		return err
	}
	if !report.OK() {
		return errInconsistent
	}
	return nil
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(s, ", ")
}

func (a *app) exportWorkbook(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "export <file.xlsx>"); err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating %s: %w", args[0], err)
	}
	if err := spreadsheet.Export(ctx, a.svc, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", args[0], err)
	}
	return a.out.message("exported to %s", args[0])
}

func (a *app) importWorkbook(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "validate rows without storing them")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 1, "import [-dry-run] <file.xlsx>"); err != nil {
		return err
	}

	f, err := os.Open(pos[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", pos[0], err)
	}
	defer f.Close()

	summary, err := spreadsheet.Import(ctx, a.svc, f, spreadsheet.ImportOptions{DryRun: *dryRun})
	if err != nil {
		return err
	}

	err = a.out.print(summary, func(w io.Writer) {
		verb := "Imported"
		if summary.DryRun {
			verb = "Would import"
		}
		fmt.Fprintf(w, "%s %d rows, skipped %d empty rows, %d errors.\n", verb, summary.Inserted, summary.Skipped, len(summary.Errors))
		for _, e := range summary.Errors {
			fmt.Fprintf(w, "row %d:\t%s\n", e.Row, e.Message)
		}
	})
	if err != nil {
		return err
	}
	if len(summary.Errors) > 0 {
		return fmt.Errorf("%d rows could not be imported", len(summary.Errors))
	}
	return nil
}

func (a *app) backup(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "backup"); err != nil {
		return err
	}
	if !a.cfg.Backup.Enabled() {
		return errors.New("backup.bucket is not configured")
	}

	up, err := backup.NewS3Uploader(ctx, a.cfg.Backup)
	if err != nil {
		return err
	}
	return a.runBackup(ctx, up)
}

func (a *app) runBackup(ctx context.Context, up backup.Uploader) error {
	res, err := backup.Run(ctx, up, a.cfg.Backup.Prefix, storeSources(a.svc), time.Now())
	if err != nil {
		return err
	}
	return a.out.print(res, func(w io.Writer) {
		fmt.Fprintf(w, "Backup %s taken at %s\n", res.ID, res.Taken.Format(time.RFC3339))
		for _, o := range res.Objects {
			fmt.Fprintf(w, "  %s\t%d bytes\n", o.Key, o.Size)
		}
	})
}

func storeSources(svc *inventory.Service) []backup.Source {
	return []backup.Source{
		{Name: "employees.sqlite3", DB: svc.Employees},
		{Name: "equipment.sqlite3", DB: svc.Equipment},
	}
}
