package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/inventory"
)

const usage = `Usage: oprema [flags] <command> [args]

Commands:
  serve [-a addr]                                  run the HTTP API
  employee add <first> <last> <company>            add an employee
  employee list                                    list employees
  employee show <id>                               show an employee and their equipment
  employee delete <id>                             delete an employee
  equipment add [-assigned-to label] <name> <category>
                                                   add equipment
  equipment list [-search text] [-category name]   list equipment
  equipment show <id>                              show equipment
  equipment delete <id>                            delete equipment
  equipment assign <id> <employee-id>              assign equipment to an employee
  equipment unassign <id>                          mark equipment as unassigned
  equipment audit <id>                             record an audit of equipment
  check                                            report dangling and ambiguous labels
  export <file.xlsx>                               export both stores to a workbook
  import [-dry-run] <file.xlsx>                    import equipment from a workbook
  backup                                           upload store snapshots to S3

Flags:
  -c, -config <path>        config file (default: oprema.yaml if present)
  -employees-db <path>      employee store (default: employees.sqlite3)
  -equipment-db <path>      equipment store (default: equipment.sqlite3)
  -l, -log <path>           log file path (default: no file, stdout/stderr only)
  -o, -output <format>      table, json or yaml (default: table)
  -h, -help                 show this help and exit

Settings can also come from OPREMA_* environment variables, e.g.
OPREMA_HTTP_ADDR or OPREMA_BACKUP_BUCKET.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	svc    *inventory.Service
	out    *printer
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("oprema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }

	var configPath, employeesDB, equipmentDB, logPath, format string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&employeesDB, "employees-db", "", "")
	fs.StringVar(&equipmentDB, "equipment-db", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.StringVar(&format, "output", formatTable, "")
	fs.StringVar(&format, "o", formatTable, "")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "employees-db":
			cfg.EmployeesDB = employeesDB
		case "equipment-db":
			cfg.EquipmentDB = equipmentDB
		case "log", "l":
			cfg.Log.File = logPath
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out, err := newPrinter(stdout, format)
	if err != nil {
		return err
	}

	command, rest := fs.Arg(0), fs.Args()[1:]

	// Only the server logs routine events; one-shot commands keep stdout
	// for their output.
	level := slog.LevelWarn
	if command == "serve" {
		level = slog.LevelInfo
	}
	closeLog, err := setupLogger(stdout, stderr, cfg.Log.File, level)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	a := &app{cfg: cfg, svc: svc, out: out, stdout: stdout}

	switch command {
	case "serve":
		return a.serve(ctx, rest)
	case "employee", "employees":
		return a.employee(ctx, rest)
	case "equipment":
		return a.equipment(ctx, rest)
	case "check":
		return a.check(ctx, rest)
	case "export":
		return a.exportWorkbook(ctx, rest)
	case "import":
		return a.importWorkbook(ctx, rest)
	case "backup":
		return a.backup(ctx, rest)
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", command)
}

// openStores opens both SQLite files once, creating and migrating them as
// needed. The returned function closes both.
func openStores(cfg *config.Config) (*inventory.Service, func(), error) {
	employees, err := db.Open(cfg.EmployeesDB)
	if err != nil {
		return nil, nil, fmt.Errorf("opening employee store: %w", err)
	}
	if err := db.EnsureEmployeesSchema(employees); err != nil {
		employees.Close()
		return nil, nil, fmt.Errorf("ensuring employee schema: %w", err)
	}

	equipment, err := db.Open(cfg.EquipmentDB)
	if err != nil {
		employees.Close()
		return nil, nil, fmt.Errorf("opening equipment store: %w", err)
	}
	if err := db.EnsureEquipmentSchema(equipment); err != nil {
		employees.Close()
		equipment.Close()
		return nil, nil, fmt.Errorf("ensuring equipment schema: %w", err)
	}

	slog.Info("stores ready", "employees", cfg.EmployeesDB, "equipment", cfg.EquipmentDB)

	return inventory.New(employees, equipment), func() {
		employees.Close()
		equipment.Close()
	}, nil
}

// parseArgs parses flags that may appear before, between or after positional
// arguments and returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
