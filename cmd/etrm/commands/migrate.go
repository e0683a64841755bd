package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/migrations"
	"github.com/etrm-io/backoffice/pkg/database"
)

// migrateCmd applies the embedded schema migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Applies the embedded SQL migrations in lexical order. Statements are
written to be idempotent (CREATE TABLE IF NOT EXISTS), so re-running is
safe.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("migrate")
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Infof("applying migration %s", name)
		if _, err := db.Pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	log.Infof("applied %d migrations", len(names))
	return nil
}
