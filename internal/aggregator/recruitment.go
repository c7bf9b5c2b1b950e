package aggregator

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"incentive-engine/internal/config"
	"incentive-engine/internal/engine"
	"incentive-engine/internal/model"
	"incentive-engine/internal/series"
	"incentive-engine/internal/upstream"
)

const (
	viewRecruitment = "recruitment"
	sourceChart     = "downstream_chart"
)

// RecruitmentSummary never fails. The milestone schedule comes from the
// incentive service when it supplies one, otherwise from dashboard counters
// with the fallback ladder, otherwise it is zeroed.
func (a *Aggregator) RecruitmentSummary(ctx context.Context, creds upstream.Credentials, period series.Period) model.RecruitmentSummary {
	ctx, span := tracer.Start(ctx, "aggregator.RecruitmentSummary",
		trace.WithAttributes(attribute.String("period", string(period))))
	defer span.End()

	var (
		dash  upstream.Result[model.DashboardSnapshot]
		inc   upstream.Result[model.IncentiveSnapshot]
		chart upstream.Result[[]model.SeriesPoint]
	)

	var g errgroup.Group
	goSettle(&g, &dash, func() (model.DashboardSnapshot, error) { return a.dashboard.FetchDashboard(ctx, creds) })
	goSettle(&g, &inc, func() (model.IncentiveSnapshot, error) { return a.incentives.FetchIncentives(ctx, creds) })
	goSettle(&g, &chart, func() ([]model.SeriesPoint, error) {
		return a.dashboard.FetchDownstreamChart(ctx, creds, string(period))
	})
	_ = g.Wait()

	summary := a.buildRecruitment(creds, dash, inc, chart, period)
	span.SetAttributes(
		attribute.String("schedule.source", summary.Source),
		attribute.Bool("chart.degraded", summary.ChartDegraded),
	)
	return summary
}

func (a *Aggregator) buildRecruitment(
	creds upstream.Credentials,
	dash upstream.Result[model.DashboardSnapshot],
	inc upstream.Result[model.IncentiveSnapshot],
	chart upstream.Result[[]model.SeriesPoint],
	period series.Period,
) model.RecruitmentSummary {
	summary := model.RecruitmentSummary{
		DepositVolume: decimal.Zero,
		Period:        string(period),
	}

	if dash.OK() {
		d := dash.Value
		summary.DirectReferrals = d.DirectReferrals
		summary.AgentsToPartner = d.AgentsToPartner
		summary.DownstreamAgents = d.DownstreamAgents
		summary.DepositVolume = d.DepositVolume
	} else {
		a.degraded(creds, viewRecruitment, upstream.ServiceDashboard, dash.Err)
	}

	var schedule model.AchievementSchedule
	switch {
	case inc.OK() && hasLadder(inc.Value.Achievement):
		schedule = a.scheduleFromAchievement(*inc.Value.Achievement)
		summary.Source = model.SourceIncentive
	case dash.OK():
		a.incentiveMissing(creds, inc)
		schedule = a.fallbackSchedule(dash.Value.ActiveDirectReferrals)
		summary.Source = model.SourceFallback
	default:
		a.incentiveMissing(creds, inc)
		schedule = a.fallbackSchedule(0)
		summary.Source = model.SourceNone
	}
	summary.Schedule = scheduleView(schedule, summary.Source == model.SourceIncentive)

	if chart.OK() {
		summary.Chart = series.Format(chart.Value, period)
	} else {
		a.degraded(creds, viewRecruitment, sourceChart, chart.Err)
		summary.Chart = series.ZeroFilled(period, a.now())
		summary.ChartDegraded = true
	}
	return summary
}

func (a *Aggregator) incentiveMissing(creds upstream.Credentials, inc upstream.Result[model.IncentiveSnapshot]) {
	if !inc.OK() {
		a.degraded(creds, viewRecruitment, upstream.ServiceIncentive, inc.Err)
		return
	}
	a.log.Info("Incentive payload has no milestone ladder, using fallback schedule",
		zap.String("request_id", creds.RequestID))
	a.metrics.RecordDegraded(viewRecruitment, upstream.ServiceIncentive)
}

// hasLadder reports whether the achievement payload can drive the schedule.
// An empty ladder is treated like a missing one.
func hasLadder(ach *model.MilestoneAchievement) bool {
	return ach != nil && len(ach.Milestones) > 0
}

func (a *Aggregator) scheduleFromAchievement(ach model.MilestoneAchievement) model.AchievementSchedule {
	target := ach.TargetUsers
	if target <= 0 {
		target = a.fallbackTarget()
	}
	return model.AchievementSchedule{
		ActivatedCount: ach.ActivatedUsers,
		TargetCount:    target,
		CompletedAt:    ach.CompleteAt,
		Milestones:     ach.Milestones,
	}
}

// fallbackSchedule is informational only: it has no completion date, so no
// bonus can come out of it.
func (a *Aggregator) fallbackSchedule(activated int) model.AchievementSchedule {
	ladder := a.fallback.Ladder
	if len(ladder) == 0 {
		ladder = config.DefaultTierPolicy().Ladder()
	}
	return model.AchievementSchedule{
		ActivatedCount: activated,
		TargetCount:    a.fallbackTarget(),
		Milestones:     slices.Clone(ladder),
	}
}

func (a *Aggregator) fallbackTarget() int {
	if a.fallback.Target > 0 {
		return a.fallback.Target
	}
	return config.DefaultFallbackTarget
}

func scheduleView(s model.AchievementSchedule, payBonus bool) model.ScheduleView {
	ev := engine.Evaluate(s)

	view := model.ScheduleView{
		ActivatedCount:   s.ActivatedCount,
		TargetCount:      s.TargetCount,
		ProgressPercent:  series.Percent(float64(s.ActivatedCount), float64(s.TargetCount)),
		CompletedAt:      s.CompletedAt,
		Milestones:       make([]model.MilestoneView, len(ev.Ladder)),
		Bonus:            decimal.Zero,
		MissedAllWindows: ev.MissedAllWindows,
	}
	if payBonus {
		view.Bonus = ev.Bonus
	}
	for i, m := range ev.Ladder {
		view.Milestones[i] = model.MilestoneView{
			MonthsFromEnrollment: m.MonthsFromEnrollment,
			RewardAmount:         m.RewardAmount,
			DueDate:              m.DueDate,
			IsCompleted:          ev.Annotations[i].IsCompleted,
			IsCurrent:            ev.Annotations[i].IsCurrent,
		}
	}
	return view
}
