package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/entities"
)

// CreateAdminCommand creates an administrator account from the terminal.
// Useful for bootstrapping a deployment without going through /setup.
type CreateAdminCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
}

// NewCreateAdminCommand creates a new CreateAdminCommand
func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new administrator")
	fs.StringVar(&cmd.Email, "email", "", "Email for the new administrator")
	fs.StringVar(&cmd.Password, "password", "", "Password (prompted interactively if not given)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username head-librarian -email admin@example.com\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *CreateAdminCommand) Run() error {
	reader := bufio.NewReader(os.Stdin)

	if cmd.Username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		cmd.Username = strings.TrimSpace(line)
	}

	if cmd.Email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		cmd.Email = strings.TrimSpace(line)
	}

	if cmd.Password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		cmd.Password = string(raw)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}

	fmt.Printf("Created administrator %q (id %d)\n", user.Username, user.ID)
	return nil
}
