package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/checkouts"
)

// SweepOverdueCommand flags overdue checkouts once, outside the cron schedule.
type SweepOverdueCommand struct {
	DatabasePath string
	Verbose      bool
}

// NewSweepOverdueCommand creates a new SweepOverdueCommand
func NewSweepOverdueCommand() *SweepOverdueCommand {
	return &SweepOverdueCommand{}
}

// ParseFlags parses command line flags
func (cmd *SweepOverdueCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep-overdue", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List the flagged checkouts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep-overdue [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Mark open checkouts past their due date as late.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *SweepOverdueCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	repo := checkouts.NewRepository(db.DB, checkouts.Config{
		LoanDays:     cfg.Lending.LoanDays,
		MaxOpenLoans: cfg.Lending.MaxOpenLoans,
		LateFeeCents: cfg.Lending.LateFeeCents,
	})

	if cmd.Verbose {
		overdue, err := repo.ListOverdue()
		if err != nil {
			return fmt.Errorf("list overdue checkouts: %w", err)
		}
		for _, c := range overdue {
			fmt.Printf("checkout %d: book %d due %s\n", c.ID, c.BookID, c.DueAt.Format("2006-01-02"))
		}
	}

	flagged, err := repo.FlagOverdue()
	if err != nil {
		return fmt.Errorf("flag overdue checkouts: %w", err)
	}

	fmt.Printf("Flagged %d overdue checkout(s)\n", flagged)
	return nil
}
