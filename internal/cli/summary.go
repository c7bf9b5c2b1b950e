package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"incentive-engine/internal/series"
	"incentive-engine/internal/upstream"
)

var summaryKinds = []string{"recruitment", "transfers", "wallet", "incentives", "permissions", "dashboard"}

func newSummaryCmd(app *App) *cobra.Command {
	var token, period string

	cmd := &cobra.Command{
		Use:       "summary <" + strings.Join(summaryKinds, "|") + ">",
		Short:     "Print one view-model as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: summaryKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if !slices.Contains(summaryKinds, kind) {
				return fmt.Errorf("unknown summary %q (want one of %s)", kind, strings.Join(summaryKinds, ", "))
			}
			p, err := series.ParsePeriod(period)
			if err != nil {
				return err
			}

			creds := upstream.Credentials{Token: token, RequestID: uuid.NewString()}
			view, err := fetchSummary(cmd.Context(), app, kind, creds, p)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("encode %s: %w", kind, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Authorization header value forwarded to upstream services")
	cmd.Flags().StringVar(&period, "period", "daily", "Chart period: daily, monthly or yearly")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func fetchSummary(ctx context.Context, app *App, kind string, creds upstream.Credentials, p series.Period) (any, error) {
	v := app.Views
	switch kind {
	case "recruitment":
		return v.RecruitmentSummary(ctx, creds, p), nil
	case "transfers":
		s, err := v.TransferSummary(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("transfer summary: %w", err)
		}
		return s, nil
	case "wallet":
		return v.WalletSummary(ctx, creds), nil
	case "incentives":
		return v.IncentiveSummary(ctx, creds), nil
	case "permissions":
		return v.Permissions(ctx, creds), nil
	default:
		return v.Dashboard(ctx, creds, p), nil
	}
}
