package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/totallynotjon/actual-flow/internal/actual"
	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/lunchflow"
)

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and link accounts",
	}
	cmd.AddCommand(newAccountsListCommand())
	cmd.AddCommand(newAccountsLinkCommand())
	return cmd
}

func newAccountsListCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show Lunch Flow accounts and their Actual links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			return runAccountsList(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	return cmd
}

func runAccountsList(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	source, dest, err := clientsFromConfig(cfg)
	if err != nil {
		return err
	}

	sourceAccounts, err := source.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("listing Lunch Flow accounts: %w", err)
	}
	destAccounts, err := dest.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("listing Actual accounts: %w", err)
	}
	destNames := make(map[string]string, len(destAccounts))
	for _, a := range destAccounts {
		destNames[a.ID] = a.Name
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLUNCH FLOW ACCOUNT\tSTATUS\tACTUAL ACCOUNT")
	for _, sa := range sourceAccounts {
		linked := "-"
		if m, ok := cfg.MappingFor(sa.ID); ok {
			linked = destNames[m.ActualAccountID]
			if linked == "" {
				linked = m.ActualAccountID
			}
		}
		fmt.Fprintf(tw, "%d\t%s (%s)\t%s\t%s\n", sa.ID, sa.Name, sa.Institution, sa.Status, linked)
	}
	return tw.Flush()
}

func newAccountsLinkCommand() *cobra.Command {
	var configPath string
	var startDate string
	var includePending bool

	cmd := &cobra.Command{
		Use:   "link <lunchflow-account-id> <actual-account-id>",
		Short: "Link a Lunch Flow account to an Actual account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid Lunch Flow account id %q", args[0])
			}
			if startDate != "" {
				if _, err := time.Parse("2006-01-02", startDate); err != nil {
					return fmt.Errorf("invalid --start-date %q: want YYYY-MM-DD", startDate)
				}
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg.SetMapping(config.AccountMapping{
				LunchFlowAccountID: accountID,
				ActualAccountID:    args[1],
				SyncStartDate:      startDate,
				IncludePending:     includePending,
			})
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked Lunch Flow account %d to Actual account %s\n", accountID, args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&startDate, "start-date", "", "ignore transactions before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includePending, "include-pending", false, "also sync pending transactions")

	return cmd
}

// clientsFromConfig builds both API clients, checking that credentials are
// present first so the error points at setup instead of a failed request.
func clientsFromConfig(cfg *config.Config) (*lunchflow.Client, *actual.Client, error) {
	if cfg.LunchFlow.APIKey == "" {
		return nil, nil, fmt.Errorf("lunchflow.api_key is not set (run actual-flow setup)")
	}
	if cfg.Actual.ServerURL == "" || cfg.Actual.APIKey == "" || cfg.Actual.BudgetSyncID == "" {
		return nil, nil, fmt.Errorf("actual connection is not configured (run actual-flow setup)")
	}
	source := lunchflow.NewClient(cfg.LunchFlow.BaseURL, cfg.LunchFlow.APIKey)
	dest := actual.NewClient(cfg.Actual.ServerURL, cfg.Actual.APIKey, cfg.Actual.BudgetSyncID)
	return source, dest, nil
}
