package aggregator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"incentive-engine/internal/model"
	"incentive-engine/internal/upstream"
)

// TransferSummary lists reward-wallet movements next to the account
// balances. Any upstream failure is returned to the caller.
func (a *Aggregator) TransferSummary(ctx context.Context, creds upstream.Credentials) (model.TransferSummary, error) {
	ctx, span := tracer.Start(ctx, "aggregator.TransferSummary")
	defer span.End()

	var (
		acct upstream.Result[model.AccountBalances]
		dash upstream.Result[model.DashboardSnapshot]
	)

	var g errgroup.Group
	goSettle(&g, &acct, func() (model.AccountBalances, error) { return a.accounts.FetchBalances(ctx, creds) })
	goSettle(&g, &dash, func() (model.DashboardSnapshot, error) { return a.dashboard.FetchDashboard(ctx, creds) })
	_ = g.Wait()

	var err error
	switch {
	case !acct.OK():
		err = fmt.Errorf("fetch account balances: %w", acct.Err)
	case !dash.OK():
		err = fmt.Errorf("fetch reward wallet: %w", dash.Err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream unavailable")
		return model.TransferSummary{}, err
	}

	summary := model.TransferSummary{
		RebateBalance:  acct.Value.RebateBalance,
		CurrentBalance: acct.Value.CurrentBalance,
		RewardBalance:  dash.Value.RewardBalance,
		Currency:       acct.Value.Currency,
		Transfers:      make([]model.TransferView, 0, len(dash.Value.Transactions)),
	}
	for _, tx := range dash.Value.Transactions {
		summary.Transfers = append(summary.Transfers, classifyTransfer(tx))
	}
	return summary, nil
}

// classifyTransfer decides direction from the sign of the amount alone:
// negative is money leaving the wallet.
func classifyTransfer(tx model.WalletTransaction) model.TransferView {
	view := model.TransferView{
		ID:          tx.ID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
	if tx.Amount.IsNegative() {
		view.Direction = model.DirectionOutbound
		view.Status = model.StatusSent
		view.Category = model.CategoryTransferOut
	} else {
		view.Direction = model.DirectionInbound
		view.Status = model.StatusReceived
		view.Category = model.CategoryTransferIn
	}
	return view
}
