package upstream

import (
	"context"

	"incentive-engine/internal/config"
	"incentive-engine/internal/model"
)

const (
	ServiceAccount   = "account"
	ServiceDashboard = "dashboard"
	ServiceIncentive = "incentive"
	ServiceReseller  = "reseller"
)

type AccountClient struct{ c *client }

func NewAccountClient(baseURL string, opts Options) *AccountClient {
	return &AccountClient{c: newClient(ServiceAccount, baseURL, opts)}
}

func (a *AccountClient) FetchBalances(ctx context.Context, creds Credentials) (model.AccountBalances, error) {
	var w accountWire
	if err := a.c.get(ctx, creds, "/account/balances", nil, &w); err != nil {
		return model.AccountBalances{}, err
	}
	return normalizeAccount(w), nil
}

type DashboardClient struct{ c *client }

func NewDashboardClient(baseURL string, opts Options) *DashboardClient {
	return &DashboardClient{c: newClient(ServiceDashboard, baseURL, opts)}
}

func (d *DashboardClient) FetchDashboard(ctx context.Context, creds Credentials) (model.DashboardSnapshot, error) {
	var w dashboardWire
	if err := d.c.get(ctx, creds, "/dashboard/summary", nil, &w); err != nil {
		return model.DashboardSnapshot{}, err
	}
	return normalizeDashboard(w), nil
}

// FetchDownstreamChart returns downstream sign-ups bucketed by period
// (daily, monthly or yearly).
func (d *DashboardClient) FetchDownstreamChart(ctx context.Context, creds Credentials, period string) ([]model.SeriesPoint, error) {
	var w []seriesPointWire
	if err := d.c.get(ctx, creds, "/dashboard/downstream-chart", map[string]string{"period": period}, &w); err != nil {
		return nil, err
	}
	return normalizeSeries(w), nil
}

type IncentiveClient struct{ c *client }

func NewIncentiveClient(baseURL string, opts Options) *IncentiveClient {
	return &IncentiveClient{c: newClient(ServiceIncentive, baseURL, opts)}
}

func (i *IncentiveClient) FetchIncentives(ctx context.Context, creds Credentials) (model.IncentiveSnapshot, error) {
	var w incentiveWire
	if err := i.c.get(ctx, creds, "/incentive/summary", nil, &w); err != nil {
		return model.IncentiveSnapshot{}, err
	}
	return normalizeIncentive(w), nil
}

type ResellerClient struct{ c *client }

func NewResellerClient(baseURL string, opts Options) *ResellerClient {
	return &ResellerClient{c: newClient(ServiceReseller, baseURL, opts)}
}

func (r *ResellerClient) FetchProfile(ctx context.Context, creds Credentials) (model.ResellerProfile, error) {
	var w resellerWire
	if err := r.c.get(ctx, creds, "/reseller/profile", nil, &w); err != nil {
		return model.ResellerProfile{}, err
	}
	return normalizeReseller(w), nil
}

type Clients struct {
	Account   *AccountClient
	Dashboard *DashboardClient
	Incentive *IncentiveClient
	Reseller  *ResellerClient
}

func NewClients(cfg config.Upstream, opts Options) *Clients {
	return &Clients{
		Account:   NewAccountClient(cfg.AccountURL, opts),
		Dashboard: NewDashboardClient(cfg.DashboardURL, opts),
		Incentive: NewIncentiveClient(cfg.IncentiveURL, opts),
		Reseller:  NewResellerClient(cfg.ResellerURL, opts),
	}
}
