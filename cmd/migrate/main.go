package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/institute-erp/institute/internal/platform/migrations"
)

type migrator interface {
	Up() error
	Down(steps int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

type openFunc func(dsn string) (migrator, error)

func openRunner(dsn string) (migrator, error) {
	return migrations.New(dsn)
}

func main() {
	if err := newRootCmd(openRunner, os.Stdout).Execute(); err != nil {
		slog.Default().Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd(open openFunc, out io.Writer) *cobra.Command {
	var dsn string
	var runner migrator

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the embedded PostgreSQL schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("no database dsn: set --dsn or PG_DSN")
			}
			m, err := open(dsn)
			if err != nil {
				return err
			}
			runner = m
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return nil
			}
			return runner.Close()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("PG_DSN"), "PostgreSQL connection string")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runner.Up(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default: 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}
			if err := runner.Down(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			if err := runner.Force(v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", v)
			return nil
		},
	})

	return root
}
