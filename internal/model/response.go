package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SuccessResponse struct {
	Data any `json:"data"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const (
	SourceIncentive = "incentive"
	SourceFallback  = "fallback"
	SourceNone      = "none"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

const (
	StatusReceived = "received"
	StatusSent     = "sent"

	CategoryTransferIn  = "transfer_in"
	CategoryTransferOut = "transfer_out"
)

const (
	LayoutReferralProgress = "referral-progress"
	LayoutStandard         = "standard"
)

type LabeledPoint struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type MilestoneView struct {
	MonthsFromEnrollment int             `json:"months_from_enrollment"`
	RewardAmount         decimal.Decimal `json:"reward_amount"`
	DueDate              *time.Time      `json:"due_date"`
	IsCompleted          bool            `json:"is_completed"`
	IsCurrent            bool            `json:"is_current"`
}

type ScheduleView struct {
	ActivatedCount   int             `json:"activated_count"`
	TargetCount      int             `json:"target_count"`
	ProgressPercent  int             `json:"progress_percent"`
	CompletedAt      *time.Time      `json:"completed_at"`
	Milestones       []MilestoneView `json:"milestones"`
	Bonus            decimal.Decimal `json:"bonus"`
	MissedAllWindows bool            `json:"missed_all_windows"`
}

type RecruitmentSummary struct {
	DirectReferrals  int             `json:"direct_referrals"`
	AgentsToPartner  int             `json:"agents_to_partner"`
	DownstreamAgents int             `json:"downstream_agents"`
	DepositVolume    decimal.Decimal `json:"deposit_volume"`
	Source           string          `json:"source"`
	Schedule         ScheduleView    `json:"schedule"`
	Period           string          `json:"period"`
	Chart            []LabeledPoint  `json:"chart"`
	ChartDegraded    bool            `json:"chart_degraded"`
}

type TransferView struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   string          `json:"direction"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	CreatedAt   *time.Time      `json:"created_at"`
}

type TransferSummary struct {
	RebateBalance  decimal.Decimal `json:"rebate_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	RewardBalance  decimal.Decimal `json:"reward_balance"`
	Currency       string          `json:"currency"`
	Transfers      []TransferView  `json:"transfers"`
}

type WalletSummary struct {
	RebateBalance  decimal.Decimal `json:"rebate_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Currency       string          `json:"currency"`
	Degraded       bool            `json:"degraded"`
}

type IncentiveSummary struct {
	DirectReferralFee          decimal.Decimal `json:"direct_referral_fee"`
	DepositRebate              decimal.Decimal `json:"deposit_rebate"`
	DownstreamDirectOverride   decimal.Decimal `json:"downstream_direct_override"`
	DownstreamIndirectOverride decimal.Decimal `json:"downstream_indirect_override"`
	PerformanceBonus           decimal.Decimal `json:"performance_bonus"`
	LevelAdvancementBonus      decimal.Decimal `json:"level_advancement_bonus"`
	MilestoneBonus             decimal.Decimal `json:"milestone_bonus"`
	TotalIncentive             decimal.Decimal `json:"total_incentive"`
	Degraded                   bool            `json:"degraded"`
}

type TierPermission struct {
	TierPriority        int    `json:"tier_priority"`
	CanRecruit          bool   `json:"can_recruit"`
	CanViewIncentives   bool   `json:"can_view_incentives"`
	IsMilestoneEligible bool   `json:"is_milestone_eligible"`
	Layout              string `json:"layout"`
}

type DashboardView struct {
	RequestID   string              `json:"request_id"`
	GeneratedAt string              `json:"generated_at"`
	Permission  TierPermission      `json:"permission"`
	Wallet      WalletSummary       `json:"wallet"`
	Recruitment *RecruitmentSummary `json:"recruitment,omitempty"`
	Incentives  *IncentiveSummary   `json:"incentives,omitempty"`
}
