package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/totallynotjon/actual-flow/internal/actual"
	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/lunchflow"
	"github.com/totallynotjon/actual-flow/internal/model"
	"github.com/totallynotjon/actual-flow/internal/wizard"
)

func newSetupCommand() *cobra.Command {
	var configPath string
	var lunchflowURL string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup: credentials and account links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			return runSetup(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path, lunchflowURL)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&lunchflowURL, "lunchflow-url", "", "Lunch Flow API base URL (default: production)")

	return cmd
}

func runSetup(ctx context.Context, in io.Reader, out io.Writer, configPath, lunchflowURL string) error {
	p := wizard.NewPrompter(in, out)
	ok := color.New(color.FgGreen)

	// Lunch Flow side: the key is verified before anything gets written.
	fmt.Fprintln(out, "Lunch Flow")
	lfKey, err := p.Ask("API key")
	if err != nil {
		return err
	}
	source := lunchflow.NewClient(lunchflowURL, lfKey)
	user, err := source.Me(ctx)
	if err != nil {
		return fmt.Errorf("verifying Lunch Flow key: %w", err)
	}
	ok.Fprintf(out, "Connected as %s\n", user.Name)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Actual Budget")
	serverURL, err := p.AskDefault("Server URL", "http://localhost:5006")
	if err != nil {
		return err
	}
	actualKey, err := p.Ask("API key")
	if err != nil {
		return err
	}
	budgetID, err := p.Ask("Budget sync ID")
	if err != nil {
		return err
	}
	dest := actual.NewClient(serverURL, actualKey, budgetID)
	destAccounts, err := dest.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("connecting to Actual: %w", err)
	}
	open := openAccounts(destAccounts)
	if len(open) == 0 {
		return fmt.Errorf("budget %s has no open accounts", budgetID)
	}
	ok.Fprintf(out, "Found %d open accounts\n", len(open))

	sourceAccounts, err := source.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("listing Lunch Flow accounts: %w", err)
	}

	cfg := config.Default()
	cfg.LunchFlow = config.LunchFlowConfig{APIKey: lfKey, BaseURL: lunchflowURL}
	cfg.Actual = config.ActualConfig{ServerURL: serverURL, APIKey: actualKey, BudgetSyncID: budgetID}

	names := make([]string, len(open))
	for i, a := range open {
		names[i] = a.Name
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Account links")
	for _, sa := range sourceAccounts {
		if sa.Status == "inactive" {
			continue
		}
		link, err := p.Confirm(fmt.Sprintf("Link %s (%s)?", sa.Name, sa.Institution), true)
		if err != nil {
			return err
		}
		if !link {
			continue
		}
		idx, err := p.Select("Actual account", names)
		if err != nil {
			return err
		}
		start, err := askStartDate(p, out)
		if err != nil {
			return err
		}
		pending, err := p.Confirm("Include pending transactions?", false)
		if err != nil {
			return err
		}
		cfg.SetMapping(config.AccountMapping{
			LunchFlowAccountID: sa.ID,
			ActualAccountID:    open[idx].ID,
			SyncStartDate:      start,
			IncludePending:     pending,
		})
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintln(out)
	ok.Fprintf(out, "Wrote %s (%d account links)\n", configPath, len(cfg.AccountMappings))
	if len(cfg.AccountMappings) == 0 {
		fmt.Fprintln(out, "Link accounts later with: actual-flow accounts link")
	}
	return nil
}

// askStartDate asks until it gets a well-formed date or an empty answer
// (no floor).
func askStartDate(p *wizard.Prompter, out io.Writer) (string, error) {
	for {
		start, err := p.AskDefault("Sync start date (YYYY-MM-DD, empty for full history)", "")
		if err != nil {
			return "", err
		}
		if start == "" {
			return "", nil
		}
		if _, err := time.Parse("2006-01-02", start); err == nil {
			return start, nil
		}
		fmt.Fprintln(out, "Dates look like 2024-01-31.")
	}
}

func openAccounts(accounts []model.DestinationAccount) []model.DestinationAccount {
	open := make([]model.DestinationAccount, 0, len(accounts))
	for _, a := range accounts {
		if !a.Closed {
			open = append(open, a)
		}
	}
	return open
}
