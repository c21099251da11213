package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/oprema/internal/model"
)

// Output formats accepted by -o.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return &printer{w: w, format: format}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// print writes v as JSON or YAML, or calls table to render it for humans.
func (p *printer) print(v any, table func(w io.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func (p *printer) employees(list []model.Employee) error {
	if list == nil {
		list = []model.Employee{}
	}
	return p.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tFIRST NAME\tLAST NAME\tCOMPANY")
		for _, e := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.FirstName, e.LastName, e.Company)
		}
	})
}

func (p *printer) employee(e *model.Employee) error {
	return p.print(e, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Name:\t%s %s\n", e.FirstName, e.LastName)
		fmt.Fprintf(w, "Company:\t%s\n", e.Company)
		fmt.Fprintf(w, "Label:\t%s\n", e.Label())
	})
}

func (p *printer) equipmentList(list []model.Equipment) error {
	if list == nil {
		list = []model.Equipment{}
	}
	return p.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tASSIGNED TO\tLAST AUDIT")
		for _, e := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Category, e.AssignedTo, auditText(e.LastAudit))
		}
	})
}

func (p *printer) equipment(e *model.Equipment) error {
	return p.print(e, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Name:\t%s\n", e.Name)
		fmt.Fprintf(w, "Category:\t%s\n", e.Category)
		fmt.Fprintf(w, "Assigned to:\t%s\n", e.AssignedTo)
		fmt.Fprintf(w, "Last audit:\t%s\n", auditText(e.LastAudit))
		fmt.Fprintf(w, "Photo:\t%t\n", e.HasImage)
	})
}

func (p *printer) message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return p.print(map[string]string{"status": "success", "message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

func auditText(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
