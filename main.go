package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/mymonth/internal/config"
	"github.com/sadopc/mymonth/internal/export"
	"github.com/sadopc/mymonth/internal/logger"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
	"github.com/sadopc/mymonth/internal/tui"
)

var version = "dev"

const usage = `mymonth - daily time allocation tracker

Usage:
  mymonth                                  start the terminal UI
  mymonth import <days.csv> [history.csv]  load days and monthly history
  mymonth export [dir]                     write days CSV and summary JSON
  mymonth -h | --help
  mymonth -v | --version
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			fmt.Print(usage)
			return nil
		case "-v", "--version", "version":
			fmt.Println("mymonth", version)
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := logger.Setup(cfg.LogPath, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer closer.Close()

	s, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	settings, err := s.SettingsMap()
	if err != nil {
		return err
	}
	domain, err := report.ConfigFromSettings(settings)
	if err != nil {
		return err
	}
	svc := report.NewService(s, domain)

	if len(args) > 0 {
		switch args[0] {
		case "import":
			return runImport(s, domain, args[1:])
		case "export":
			dir := cfg.ExportDir
			if len(args) > 1 {
				dir = args[1]
			}
			return runExport(s, svc, dir, cfg.HistoryYears)
		default:
			fmt.Fprint(os.Stderr, usage)
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	logger.Info("starting tui", "db", cfg.DatabasePath)
	app := tui.NewApp(s, svc, tui.Options{ExportDir: cfg.ExportDir, HistoryYears: cfg.HistoryYears})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// runImport loads a days CSV and, optionally, a monthly history CSV that is
// expanded into per-day rows. Recorded days win over expanded history.
func runImport(s *store.Store, cfg report.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("import: missing days CSV path")
	}

	days, err := export.FromCSV(args[0])
	if err != nil {
		return err
	}

	var historical []store.DailyRecord
	if len(args) > 1 {
		rows, err := export.ReadHistoricalCSV(args[1])
		if err != nil {
			return err
		}
		historical, err = export.ExpandHistorical(rows, cfg)
		if err != nil {
			return err
		}
	}

	records := export.Import(days, historical)
	if err := s.UpsertRecords(records); err != nil {
		return err
	}
	logger.Info("imported", "days", len(days), "historical", len(historical), "stored", len(records))
	fmt.Printf("imported %d days\n", len(records))
	return nil
}

func runExport(s *store.Store, svc *report.Service, dir string, years int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	today := svc.Today()

	records, err := s.ListRecords()
	if err != nil {
		return err
	}
	csvPath := filepath.Join(dir, export.FileName("days", "csv", today))
	if err := export.ToCSV(records, csvPath); err != nil {
		return err
	}

	sums, err := svc.History(today, years)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, export.FileName("summary", "json", today))
	if err := export.SummaryToJSON(sums, svc.Config(), jsonPath); err != nil {
		return err
	}

	logger.Info("exported", "csv", csvPath, "json", jsonPath)
	fmt.Println(csvPath)
	fmt.Println(jsonPath)
	return nil
}
