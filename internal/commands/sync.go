package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/logger"
	"github.com/totallynotjon/actual-flow/internal/reconcile"
	"github.com/totallynotjon/actual-flow/internal/synclog"
	"github.com/totallynotjon/actual-flow/internal/wizard"
)

func newSyncCommand() *cobra.Command {
	var configPath string
	var since string
	var dryRun bool
	var yes bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch, map, duplicate-check, and import transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			return runSync(cmd, path, since, dryRun, yes, verbose)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&since, "since", "", "fetch window start (YYYY-MM-DD, default: lookback_days ago)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without importing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "import without asking")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runSync(cmd *cobra.Command, configPath, since string, dryRun, yes, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sinceTime, err := syncWindow(since, cfg.Sync.LookbackDays, time.Now())
	if err != nil {
		return err
	}

	log := logger.New(verbose)
	ctx := logger.WithContext(cmd.Context(), log)

	source, dest, err := clientsFromConfig(cfg)
	if err != nil {
		return err
	}
	syncer := reconcile.New(source, dest, cfg)

	// Always start with a detection-only pass so the preview and the
	// confirmation come before anything hits the Actual server.
	summary, err := syncer.Run(ctx, reconcile.RunOptions{Since: sinceTime, DryRun: true})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderPreview(out, summary)

	if dryRun {
		fmt.Fprintln(out, "Dry run: nothing imported.")
		appendSyncLog(configPath, cfg, summary, "dry-run")
		return nil
	}

	toImport := len(reconcile.FilterDuplicates(summary.Transactions))
	if toImport == 0 {
		fmt.Fprintln(out, "Nothing new to import.")
		appendSyncLog(configPath, cfg, summary, "sync")
		return nil
	}

	if !yes {
		p := wizard.NewPrompter(cmd.InOrStdin(), out)
		proceed, err := p.Confirm(fmt.Sprintf("Import %d transactions?", toImport), true)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	imported, err := syncer.Import(ctx, summary.Transactions)
	if err != nil {
		return err
	}
	summary.Imported = imported
	color.New(color.FgGreen).Fprintf(out, "Imported %d transactions.\n", imported)
	appendSyncLog(configPath, cfg, summary, "sync")
	return nil
}

// syncWindow computes the fetch floor: an explicit --since wins, otherwise
// today minus the configured lookback. Zero lookback means full history.
func syncWindow(since string, lookbackDays int, now time.Time) (time.Time, error) {
	if since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --since %q: want YYYY-MM-DD", since)
		}
		return t, nil
	}
	if lookbackDays <= 0 {
		return time.Time{}, nil
	}
	y, m, d := now.UTC().AddDate(0, 0, -lookbackDays).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func renderPreview(w io.Writer, s *reconcile.Summary) {
	if len(s.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions in the sync window.")
	} else {
		inflow := color.New(color.FgGreen)
		outflow := color.New(color.FgRed)
		dim := color.New(color.Faint)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPAYEE\tAMOUNT\tSTATUS")
		for _, t := range s.Transactions {
			amount := decimal.New(t.Amount, -2).StringFixed(2)
			if t.Amount < 0 {
				amount = outflow.Sprint(amount)
			} else {
				amount = inflow.Sprint(amount)
			}
			status := "new"
			switch {
			case t.IsDuplicate:
				status = dim.Sprint("duplicate")
			case t.IsPending:
				status = "pending"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date.Format("2006-01-02"), t.PayeeName, amount, status)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\n%d fetched, %d mapped, %d skipped, %d duplicates\n",
		s.Fetched, s.Mapped, s.Skipped, s.Duplicates)
	if s.DedupeDegraded {
		color.New(color.FgYellow).Fprintln(w, "Warning: could not fetch existing transactions; duplicate detection skipped.")
	}
}

// appendSyncLog records the run next to the config file. Log trouble is a
// warning, never a sync failure.
func appendSyncLog(configPath string, cfg *config.Config, s *reconcile.Summary, mode string) {
	note := ""
	if s.DedupeDegraded {
		note = "dedupe degraded"
	}
	entry := synclog.Entry{
		RunID:      s.RunID,
		Timestamp:  time.Now().UTC(),
		Mode:       mode,
		Accounts:   len(cfg.AccountMappings),
		Fetched:    s.Fetched,
		Mapped:     s.Mapped,
		Skipped:    s.Skipped,
		Duplicates: s.Duplicates,
		Imported:   s.Imported,
		Note:       note,
	}
	if err := synclog.Append(filepath.Dir(configPath), []synclog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write sync log: %v\n", err)
	}
}
