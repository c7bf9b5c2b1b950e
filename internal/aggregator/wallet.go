package aggregator

import (
	"context"

	"github.com/shopspring/decimal"

	"incentive-engine/internal/model"
	"incentive-engine/internal/upstream"
)

const viewWallet = "wallet"

// WalletSummary reads balances from the account service and falls back to a
// zeroed wallet when it is unavailable.
func (a *Aggregator) WalletSummary(ctx context.Context, creds upstream.Credentials) model.WalletSummary {
	ctx, span := tracer.Start(ctx, "aggregator.WalletSummary")
	defer span.End()

	acct := settle(func() (model.AccountBalances, error) { return a.accounts.FetchBalances(ctx, creds) })
	return a.buildWallet(creds, acct)
}

func (a *Aggregator) buildWallet(creds upstream.Credentials, acct upstream.Result[model.AccountBalances]) model.WalletSummary {
	if !acct.OK() {
		a.degraded(creds, viewWallet, upstream.ServiceAccount, acct.Err)
		return model.WalletSummary{
			RebateBalance:  decimal.Zero,
			CurrentBalance: decimal.Zero,
			Degraded:       true,
		}
	}
	return model.WalletSummary{
		RebateBalance:  acct.Value.RebateBalance,
		CurrentBalance: acct.Value.CurrentBalance,
		Currency:       acct.Value.Currency,
	}
}
