package aggregator

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"incentive-engine/internal/engine"
	"incentive-engine/internal/model"
	"incentive-engine/internal/upstream"
)

const viewIncentives = "incentives"

// IncentiveSummary builds the per-category earnings. The milestone bonus is
// recomputed from the achievement payload and the total is the sum of the
// categories.
func (a *Aggregator) IncentiveSummary(ctx context.Context, creds upstream.Credentials) model.IncentiveSummary {
	ctx, span := tracer.Start(ctx, "aggregator.IncentiveSummary")
	defer span.End()

	inc := settle(func() (model.IncentiveSnapshot, error) { return a.incentives.FetchIncentives(ctx, creds) })
	return a.buildIncentives(creds, inc)
}

func (a *Aggregator) buildIncentives(creds upstream.Credentials, inc upstream.Result[model.IncentiveSnapshot]) model.IncentiveSummary {
	if !inc.OK() {
		a.degraded(creds, viewIncentives, upstream.ServiceIncentive, inc.Err)
		out := zeroIncentives()
		out.Degraded = true
		return out
	}

	s := inc.Value
	milestoneBonus := decimal.Zero
	if hasLadder(s.Achievement) {
		milestoneBonus = engine.Evaluate(a.scheduleFromAchievement(*s.Achievement)).Bonus
	}
	if !milestoneBonus.Equal(s.MilestoneBonus) {
		a.log.Debug("Upstream milestone bonus differs from computed bonus",
			zap.String("request_id", creds.RequestID),
			zap.String("upstream", s.MilestoneBonus.String()),
			zap.String("computed", milestoneBonus.String()))
	}

	out := model.IncentiveSummary{
		DirectReferralFee:          s.DirectReferralFee,
		DepositRebate:              s.DepositRebate,
		DownstreamDirectOverride:   s.DownstreamDirectOverride,
		DownstreamIndirectOverride: s.DownstreamIndirectOverride,
		PerformanceBonus:           s.PerformanceBonus,
		LevelAdvancementBonus:      s.LevelAdvancementBonus,
		MilestoneBonus:             milestoneBonus,
	}
	out.TotalIncentive = decimal.Sum(
		out.DirectReferralFee,
		out.DepositRebate,
		out.DownstreamDirectOverride,
		out.DownstreamIndirectOverride,
		out.PerformanceBonus,
		out.LevelAdvancementBonus,
		out.MilestoneBonus,
	)
	return out
}

func zeroIncentives() model.IncentiveSummary {
	return model.IncentiveSummary{
		DirectReferralFee:          decimal.Zero,
		DepositRebate:              decimal.Zero,
		DownstreamDirectOverride:   decimal.Zero,
		DownstreamIndirectOverride: decimal.Zero,
		PerformanceBonus:           decimal.Zero,
		LevelAdvancementBonus:      decimal.Zero,
		MilestoneBonus:             decimal.Zero,
		TotalIncentive:             decimal.Zero,
	}
}
