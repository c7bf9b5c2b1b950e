package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Records in this file are produced by the upstream clients after
// normalisation. Every field is populated: missing numbers are zero and
// missing dates are nil.

type AccountBalances struct {
	RebateBalance  decimal.Decimal
	CurrentBalance decimal.Decimal
	Currency       string
}

type WalletTransaction struct {
	ID          string
	Amount      decimal.Decimal
	Type        string
	Currency    string
	Description string
	CreatedAt   *time.Time
}

type AgentProfile struct {
	AgentID      string
	Name         string
	TierPriority int
	EnrolledAt   *time.Time
}

type DashboardSnapshot struct {
	RewardBalance         decimal.Decimal
	Transactions          []WalletTransaction
	DirectReferrals       int
	ActiveDirectReferrals int
	AgentsToPartner       int
	DownstreamAgents      int
	DepositVolume         decimal.Decimal
	Profile               AgentProfile
}

type IncentiveSnapshot struct {
	DirectReferralFee          decimal.Decimal
	DepositRebate              decimal.Decimal
	DownstreamDirectOverride   decimal.Decimal
	DownstreamIndirectOverride decimal.Decimal
	PerformanceBonus           decimal.Decimal
	LevelAdvancementBonus      decimal.Decimal
	MilestoneBonus             decimal.Decimal
	TotalIncentive             decimal.Decimal
	// Achievement is nil when the service omitted the milestone payload.
	Achievement *MilestoneAchievement
}

type MilestoneAchievement struct {
	ActivatedUsers int
	TargetUsers    int
	CompleteAt     *time.Time
	Milestones     []Milestone
}

type ResellerProfile struct {
	AgentID       string
	Name          string
	ReferralCode  string
	ParentAgentID string
	TierPriority  int
}

type SeriesPoint struct {
	Date  string
	Value float64
}
