package aggregator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"incentive-engine/internal/model"
	"incentive-engine/internal/permission"
	"incentive-engine/internal/series"
	"incentive-engine/internal/upstream"
)

const viewPermissions = "permissions"

// Permissions resolves the caller's tier from the reseller profile, or from
// the dashboard profile when the reseller service has no usable answer. An
// unknown tier unlocks nothing.
func (a *Aggregator) Permissions(ctx context.Context, creds upstream.Credentials) model.TierPermission {
	ctx, span := tracer.Start(ctx, "aggregator.Permissions")
	defer span.End()

	profile := settle(func() (model.ResellerProfile, error) { return a.resellers.FetchProfile(ctx, creds) })
	perm := a.resolvePermission(creds, profile, func() upstream.Result[model.DashboardSnapshot] {
		return settle(func() (model.DashboardSnapshot, error) { return a.dashboard.FetchDashboard(ctx, creds) })
	})
	span.SetAttributes(attribute.Int("tier.priority", perm.TierPriority), attribute.String("layout", perm.Layout))
	return perm
}

// resolvePermission only calls dashboard when the reseller profile carries
// no tier.
func (a *Aggregator) resolvePermission(
	creds upstream.Credentials,
	profile upstream.Result[model.ResellerProfile],
	dashboard func() upstream.Result[model.DashboardSnapshot],
) model.TierPermission {
	priority := 0
	if profile.OK() {
		priority = profile.Value.TierPriority
	} else {
		a.degraded(creds, viewPermissions, upstream.ServiceReseller, profile.Err)
	}

	if priority <= 0 {
		dash := dashboard()
		if dash.OK() {
			priority = dash.Value.Profile.TierPriority
		} else {
			a.degraded(creds, viewPermissions, upstream.ServiceDashboard, dash.Err)
		}
	}
	return permission.Resolve(priority, a.policy)
}

// Dashboard composes one screen: the wallet for everyone, plus the
// recruitment and incentive blocks the caller's tier may see. Each upstream
// is called at most once, so both blocks are built from the same incentive
// payload.
func (a *Aggregator) Dashboard(ctx context.Context, creds upstream.Credentials, period series.Period) model.DashboardView {
	ctx, span := tracer.Start(ctx, "aggregator.Dashboard")
	defer span.End()

	var (
		profile upstream.Result[model.ResellerProfile]
		dash    upstream.Result[model.DashboardSnapshot]
		acct    upstream.Result[model.AccountBalances]
		inc     upstream.Result[model.IncentiveSnapshot]
		chart   upstream.Result[[]model.SeriesPoint]
	)

	var first errgroup.Group
	goSettle(&first, &profile, func() (model.ResellerProfile, error) { return a.resellers.FetchProfile(ctx, creds) })
	goSettle(&first, &dash, func() (model.DashboardSnapshot, error) { return a.dashboard.FetchDashboard(ctx, creds) })
	goSettle(&first, &acct, func() (model.AccountBalances, error) { return a.accounts.FetchBalances(ctx, creds) })
	_ = first.Wait()

	perm := a.resolvePermission(creds, profile, func() upstream.Result[model.DashboardSnapshot] { return dash })
	showRecruitment := perm.CanRecruit || perm.IsMilestoneEligible

	var second errgroup.Group
	if showRecruitment || perm.CanViewIncentives {
		goSettle(&second, &inc, func() (model.IncentiveSnapshot, error) { return a.incentives.FetchIncentives(ctx, creds) })
	}
	if showRecruitment {
		goSettle(&second, &chart, func() ([]model.SeriesPoint, error) {
			return a.dashboard.FetchDownstreamChart(ctx, creds, string(period))
		})
	}
	_ = second.Wait()

	view := model.DashboardView{
		RequestID:   creds.RequestID,
		GeneratedAt: a.now().UTC().Format(time.RFC3339),
		Permission:  perm,
		Wallet:      a.buildWallet(creds, acct),
	}
	if showRecruitment {
		r := a.buildRecruitment(creds, dash, inc, chart, period)
		view.Recruitment = &r
	}
	if perm.CanViewIncentives {
		i := a.buildIncentives(creds, inc)
		view.Incentives = &i
	}
	span.SetAttributes(attribute.Int("tier.priority", perm.TierPriority), attribute.String("layout", perm.Layout))
	return view
}
