package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dharitri/backend/internal/buildinfo"
	"github.com/dharitri/backend/internal/server/config"
	"github.com/dharitri/backend/internal/server/repositories/repomanager"
	"github.com/dharitri/backend/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// loadConfig reads the server configuration (JSON file, .env, environment)
// and applies the database overrides given on the command line.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.LoadConfig()
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		cfg.DatabaseDSN = v
	}
	return cfg
}

func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", "", "database driver (sqlite or pgx)")
	cmd.Flags().String("dsn", "", "database DSN")
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	m, err := repomanager.NewRepositoryManager(cfg.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, m, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			db, _, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
	addDBFlags(cmd)
	return cmd
}

func createUserCmd() *cobra.Command {
	var username, email, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account; the password is read from the terminal or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cfg := loadConfig(cmd)
			db, m, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := services.NewUserService(db, m, cfg).Register(cmd.Context(), username, password, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&role, "role", "Patient", "Patient or Doctor")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	addDBFlags(cmd)
	return cmd
}

// promptPassword reads the password without echo when in is a terminal,
// otherwise it takes the first line of in.
func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
