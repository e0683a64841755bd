package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/etrm-io/backoffice/internal/bus"
	"github.com/etrm-io/backoffice/internal/objectstore"
	"github.com/etrm-io/backoffice/pkg/database"
)

// statusCmd checks connectivity to the pipeline's backing services.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to backing services",
	Long: `Checks the database, event bus and object store and reports one line
per service. Exits non-zero if any check fails. The database check is
skipped when DATABASE_URL is unset.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup("status")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := false

	if cfg.Database.URL == "" {
		fmt.Println("database:     skipped (DATABASE_URL unset)")
	} else if db, err := database.New(cfg); err != nil {
		fmt.Printf("database:     FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Println("database:     ok")
		db.Close()
	}

	if b, err := bus.Connect(cfg.NATS.URL, log); err != nil {
		fmt.Printf("event bus:    FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Println("event bus:    ok")
		b.Close()
	}

	store, err := objectstore.New(cfg.S3, log)
	if err != nil {
		fmt.Printf("object store: FAIL (%v)\n", err)
		failed = true
	} else if exists, err := store.BucketExists(ctx); err != nil {
		fmt.Printf("object store: FAIL (%v)\n", err)
		failed = true
	} else if !exists {
		fmt.Printf("object store: reachable, bucket %s missing (run the importer to create it)\n", cfg.S3.Bucket)
	} else {
		fmt.Printf("object store: ok (bucket %s)\n", cfg.S3.Bucket)
	}

	if failed {
		return fmt.Errorf("one or more services unavailable")
	}
	return nil
}
