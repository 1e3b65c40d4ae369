package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/billleddy/finapp/internal/app"
	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/services/deck"
)

type rootArgs struct {
	ConfigPath string
	EnvFile    string
}

type generateArgs struct {
	Ticker       string
	Company      string
	From         string
	To           string
	NarrationOut string
}

func newRootCmd() *cobra.Command {
	args := &rootArgs{}
	root := &cobra.Command{
		Use:          "finapp",
		Short:        "Render equity research charts and narration for a ticker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(args.EnvFile)
		},
	}
	root.PersistentFlags().StringVar(&args.ConfigPath, "config", "", "path to finapp.toml (default: FINAPP_CONFIG, then beside the binary)")
	root.PersistentFlags().StringVar(&args.EnvFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(newGenerateCmd(args), newScheduleCmd(args), newVersionCmd())
	return root
}

func newGenerateCmd(root *rootArgs) *cobra.Command {
	args := &generateArgs{}
	cmd := &cobra.Command{
		Use:   "generate --ticker TSLA [--company Tesla]",
		Short: "Generate the chart deck and narration for one ticker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, root, args)
		},
	}
	cmd.Flags().StringVar(&args.Ticker, "ticker", "", "ticker symbol (required)")
	cmd.Flags().StringVar(&args.Company, "company", "", "company name used in narration (default: [[companies]] entry or ticker)")
	cmd.Flags().StringVar(&args.From, "from", "", "first date, YYYY-MM-DD (default: history_years before --to)")
	cmd.Flags().StringVar(&args.To, "to", "", "last date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&args.NarrationOut, "narration-out", "-", "narration JSON destination, - for stdout")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootArgs, args *generateArgs) error {
	from, err := parseDate(args.From)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDate(args.To)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("--from %s is after --to %s", args.From, args.To)
	}

	a, err := app.NewApp(root.ConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()
	common.PrintBanner(cmd.ErrOrStderr(), a.Config, a.Logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Generate(ctx, args.Ticker, app.GenerateOptions{
		Company: args.Company,
		From:    from,
		To:      to,
	})
	if err != nil {
		return err
	}

	if err := writeNarration(cmd.OutOrStdout(), args.NarrationOut, report.Narration); err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), report)

	if report.Status() == deck.StatusFailed {
		return fmt.Errorf("no charts generated for %s", report.Ticker)
	}
	return nil
}

func newScheduleCmd(root *rootArgs) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Regenerate decks for the configured tickers on the schedule.cron expression",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.NewApp(root.ConfigPath)
			if err != nil {
				return err
			}
			defer a.Close()
			common.PrintBanner(cmd.ErrOrStderr(), a.Config, a.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.StartScheduler(ctx)
			if err != nil {
				return err
			}
			if runNow {
				s.RunNow()
			}

			<-ctx.Done()
			a.Logger.Info().Msg("Shutdown signal received")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "generate every deck once before waiting for the schedule")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			common.LoadVersionFromFile()
			fmt.Fprintln(cmd.OutOrStdout(), "finapp "+common.GetFullVersion())
		},
	}
}

// loadEnvFile loads a dotenv file if present; existing variables win
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", models.ErrMalformedInput, v)
	}
	return t, nil
}

// writeNarration writes the narration mapping as indented JSON to stdout
// ("-" or empty) or a file
func writeNarration(stdout io.Writer, dest string, n models.Narration) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal narration: %w", err)
	}
	data = append(data, '\n')

	if dest == "" || dest == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write narration: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, report *deck.Report) {
	fmt.Fprintf(w, "%s: %d charts, %d failed, %d narration keys (run %s)\n",
		report.Ticker, len(report.Artifacts), len(report.Failures), len(report.Narration), report.RunID)
	for _, a := range report.Artifacts {
		fmt.Fprintf(w, "  %-22s %s\n", a.Name, a.Path)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %-22s skipped: %s\n", f.Name, f.Message)
	}
}
