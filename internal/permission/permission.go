package permission

import "incentive-engine/internal/model"

// Policy holds the tier boundaries. Lower priorities are more senior tiers.
type Policy struct {
	RecruitMaxPriority   int
	IncentiveMaxPriority int
	MilestonePriority    int
}

func DefaultPolicy() Policy {
	return Policy{
		RecruitMaxPriority:   3,
		IncentiveMaxPriority: 4,
		MilestonePriority:    1,
	}
}

// Resolve maps a tier priority to the dashboard features it unlocks. This
// only drives layout; the upstream services enforce authorization.
func Resolve(priority int, p Policy) model.TierPermission {
	perm := model.TierPermission{
		TierPriority: priority,
		Layout:       model.LayoutStandard,
	}
	if priority <= 0 {
		return perm
	}

	perm.CanRecruit = priority <= p.RecruitMaxPriority
	perm.CanViewIncentives = priority <= p.IncentiveMaxPriority
	perm.IsMilestoneEligible = priority == p.MilestonePriority
	if perm.IsMilestoneEligible {
		perm.Layout = model.LayoutReferralProgress
	}
	return perm
}
