package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/app"
	"github.com/kevin07696/payflow-reconciler/internal/config"
	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/services/payment"
	"github.com/kevin07696/payflow-reconciler/pkg/security"
)

var errImportNotClean = errors.New("import finished with anomalies or errors")

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history PROFILEID",
		Short: "Print the gateway's payment history for one recurring profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			scope, err := scopeFlag(cmd)
			if err != nil {
				return err
			}

			gateway, _, err := app.BuildGateway(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			history, err := gateway.RecurringHistory(cmd.Context(), args[0], scope)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), history)
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}
	cmd.Flags().StringP("type", "t", "", "History type: Y (all), N (new) or O (optional); defaults to PAYFLOW_HISTORY_TYPE")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [PROFILEID...]",
		Short: "Reconcile the local ledger against gateway history",
		Long:  "Reconciles every recurring profile with a gateway id, or only the listed ones. Exits non-zero when any profile reports an anomaly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			scope, err := scopeFlag(cmd)
			if err != nil {
				return err
			}

			components, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			summary, err := components.Reconciler.ImportLatestRecurPayments(cmd.Context(), args, scope)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if !summary.Clean() {
				return errImportNotClean
			}
			return nil
		},
	}
	cmd.Flags().StringP("type", "t", "", "History type: Y (all), N (new) or O (optional); defaults to PAYFLOW_HISTORY_TYPE")
	return cmd
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and gateway credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gateway, creds, err := app.BuildGateway(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			svc := payment.NewService(gateway, nil, creds, security.NewZapLogger(logger))
			if err := svc.CheckConfig(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK\n  Gateway:  %s\n  Vendor:   %s\n  Mode:     %s\n  Secrets:  %s\n",
				cfg.Gateway.URL, cfg.Gateway.VendorID, mode(cfg.Gateway.IsTest), cfg.Secrets.Backend)
			return nil
		},
	}
}

func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := security.BuildZapLogger(level, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func scopeFlag(cmd *cobra.Command) (domain.HistoryScope, error) {
	value, _ := cmd.Flags().GetString("type")
	if value == "" {
		return "", nil
	}
	scope := domain.HistoryScope(strings.ToUpper(value))
	if !scope.Valid() {
		return "", fmt.Errorf("--type must be Y, N or O, got %q", value)
	}
	return scope, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHistory(w io.Writer, history *domain.PaymentHistory) {
	fmt.Fprintf(w, "Profile %s: %d records\n\n", history.ProfileID, len(history.Records))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPNREF\tTIME (UTC)\tAMOUNT\tSTATE\tSTATUS")
	for _, r := range history.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Index, r.TrxnID, r.TrxnTimestamp.Format("2006-01-02 15:04"),
			r.Amount.StringFixed(2), r.TransactionStateCode, r.MappedStatus)
	}
	_ = tw.Flush()

	for _, a := range history.Anomalies {
		fmt.Fprintf(w, "skipped record %s (%s): %s\n", a.Index, a.TrxnID, a.Message)
	}
}

func printSummary(w io.Writer, summary *domain.ImportSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tPROCESSOR ID\tCREATED\tMATCHED\tCOMPLETED\tFAILED\tPENDING\tANOMALIES\tERROR")
	for _, o := range summary.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			o.ProfileID, o.ProcessorID, len(o.Created), len(o.Matched), len(o.Completed),
			len(o.Failed), len(o.Pending), len(o.Anomalies), o.Error)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d profiles, %d entries created in %s\n",
		len(summary.Outcomes), summary.CreatedCount(), summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))

	for _, o := range summary.Outcomes {
		for _, a := range o.Anomalies {
			fmt.Fprintf(w, "anomaly %s record %s (%s): %s\n", o.ProcessorID, a.Index, a.TrxnID, a.Message)
		}
	}
}

func mode(isTest bool) string {
	if isTest {
		return "test"
	}
	return "live"
}
