// eventsctl corre el export y el pipeline de reportes fuera del servidor HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"event-reports/internal/app"
	"event-reports/internal/config"
	"event-reports/internal/domain/events"
	"event-reports/internal/domain/reports"
	"event-reports/internal/platform/logger"

	"github.com/spf13/cobra"
)

var (
	filterUserID    string
	filterEventType string
	filterName      string
	limit           int

	outputFile string
	email      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "eventsctl",
	Short:         "Export stored events as CSV or build a zipped report",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Stream matching events as CSV",
	Long: `Stream the events matching the filters as CSV, header included.

Examples:
  eventsctl export --event-type click > clicks.csv
  eventsctl export --user-id u1 --limit 100 -o u1.csv`,
	RunE: runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a zipped CSV report and print its link",
	Long: `Run the report pipeline synchronously: query, archive, publish and,
when --email is given, send the link to that address.`,
	RunE: runReport,
}

func init() {
	for _, cmd := range []*cobra.Command{exportCmd, reportCmd} {
		cmd.Flags().StringVar(&filterUserID, "user-id", "", "Only events of this user")
		cmd.Flags().StringVar(&filterEventType, "event-type", "", "Only events of this type")
		cmd.Flags().StringVar(&filterName, "name", "", "Only events with this name")
		cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (0 = configured cap)")
	}
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	reportCmd.Flags().StringVar(&email, "email", "", "Send the link to this address")

	rootCmd.AddCommand(exportCmd, reportCmd)
}

func filter() events.Filter {
	return events.Filter{
		UserID:    filterUserID,
		EventType: filterEventType,
		Name:      filterName,
		Limit:     limit,
	}
}

func build(ctx context.Context, opts ...app.Option) (*app.App, error) {
	// Los logs van a stderr: stdout queda para el CSV.
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: logger.ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    "eventsctl",
		Writer: os.Stderr,
	})

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, log, opts...)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, app.WithNotifier(discardNotifier{}))
	if err != nil {
		return err
	}
	defer a.Close()

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	f := filter().Capped(a.Config.Reports.ExportMaxRows)
	stream := reports.EncodeCSV(a.Events.Stream(ctx, f))
	defer stream.Close()

	if _, err := io.Copy(out, stream); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d rows\n", stream.Rows())
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if email == "" {
		opts = append(opts, app.WithNotifier(discardNotifier{}))
	}

	a, err := build(ctx, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := a.Orchestrator.RunNow(ctx, email, filter())
	if err != nil {
		return fmt.Errorf("report %s: %w", job.ID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\t%s\n", job.ID, job.Rows, job.ArchiveURL)
	return nil
}

// discardNotifier deja el link solo en la salida del comando.
type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, string, string) error { return nil }
