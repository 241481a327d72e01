package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcndt/noteshare.space/internal/config"
	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/filter"
	"github.com/mcndt/noteshare.space/internal/gc"
	"github.com/mcndt/noteshare.space/internal/platform/factory"
	"github.com/mcndt/noteshare.space/internal/platform/logger"
	"github.com/mcndt/noteshare.space/internal/store"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "notectl",
		Short: "Admin CLI for the noteshare server",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Note server base URL")

	rootCmd.AddCommand(gcCmd(), filterCmd(), healthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// gcCmd runs one garbage collection pass against the configured storage.
// Run it against a live server's database only when that server's own
// collector is stopped: GC passes are not coordinated across processes.
func gcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Run one expired-note collection pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, filters, log, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			collector := gc.New(st, filters, events.NewLogRecorder(log), log)
			count := collector.Run(cmd.Context())
			if count == gc.FailedRun {
				return fmt.Errorf("collection pass failed, see log output")
			}
			fmt.Fprintf(os.Stdout, "deleted %d expired notes\n", count)
			return nil
		},
	}
}

// filterCmd probes the tombstone filters for a note id.
func filterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter NOTE_ID",
		Short: "Check the tombstone filters for a note id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, filters, _, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			id := args[0]
			fmt.Fprintf(os.Stdout, "deleted: %v\nexpired: %v\n",
				filters.Deleted.Has(id), filters.Expired.Has(id))
			return nil
		},
	}
}

// healthCmd probes a running server over HTTP.
func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := resty.New().R().
				SetContext(cmd.Context()).
				Get(apiFlag + "/api/health/db")
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%d %s\n", resp.StatusCode(), resp.String())
			return nil
		},
	}
}

func openStore() (store.Store, *filter.Set, zerolog.Logger, error) {
	_ = godotenv.Load()
	log := logger.New("notectl")

	cfg, err := config.New()
	if err != nil {
		return nil, nil, log, err
	}
	st, err := factory.NewStore(cfg)
	if err != nil {
		return nil, nil, log, err
	}
	filters, err := filter.OpenSet(context.Background(), st.Filters())
	if err != nil {
		_ = st.Close()
		return nil, nil, log, err
	}
	return st, filters, log, nil
}
