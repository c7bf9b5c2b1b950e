package upstream

import (
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Wire shapes as the services send them. Unknown fields are ignored.

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type balanceWire struct {
	Balance  decimal.NullDecimal `json:"balance"`
	Currency string              `json:"currency"`
}

type accountWire struct {
	Rebate  *balanceWire `json:"rebate"`
	Current *balanceWire `json:"current"`
}

type transactionWire struct {
	ID          string              `json:"id"`
	Amount      decimal.NullDecimal `json:"amount"`
	Type        string              `json:"type"`
	Currency    string              `json:"currency"`
	Description string              `json:"description"`
	CreatedAt   string              `json:"createdAt"`
}

type rewardWalletWire struct {
	Balance      decimal.NullDecimal `json:"balance"`
	Transactions []transactionWire   `json:"transactions"`
}

type referralWire struct {
	DirectReferred       int                 `json:"directReferred"`
	ActiveDirectReffered int                 `json:"activeDirectReffered"`
	AgentsToPartner      int                 `json:"agentsToPartner"`
	DownstreamAgents     int                 `json:"downstreamAgents"`
	DepositVolume        decimal.NullDecimal `json:"depositVolume"`
}

type profileWire struct {
	AgentID      string `json:"agentId"`
	Name         string `json:"name"`
	TierPriority int    `json:"tierPriority"`
	EnrolledAt   string `json:"enrolledAt"`
}

type dashboardWire struct {
	RewardWallet *rewardWalletWire `json:"rewardWallet"`
	Referral     *referralWire     `json:"referral"`
	Profile      *profileWire      `json:"profile"`
}

type seriesPointWire struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type milestoneWire struct {
	Months int                 `json:"months"`
	Reward decimal.NullDecimal `json:"reward"`
	Date   string              `json:"date"`
}

type achievementWire struct {
	ActivatedUsers int             `json:"activatedUsers"`
	TargetUsers    int             `json:"targetUsers"`
	CompleteAt     string          `json:"completeAt"`
	Milestones     []milestoneWire `json:"milestones"`
}

type incentiveWire struct {
	DirectReferralFee          decimal.NullDecimal `json:"directReferralFee"`
	DepositRebate              decimal.NullDecimal `json:"depositRebate"`
	DownstreamDirectOverride   decimal.NullDecimal `json:"downstreamDirectOverride"`
	DownstreamIndirectOverride decimal.NullDecimal `json:"downstreamIndirectOverride"`
	PerformanceBonus           decimal.NullDecimal `json:"performanceBonus"`
	LevelAdvancementBonus      decimal.NullDecimal `json:"levelAdvancementBonus"`
	MilestoneBonus             decimal.NullDecimal `json:"milestoneBonus"`
	TotalIncentive             decimal.NullDecimal `json:"totalIncentive"`
	MilestoneAchievement       *achievementWire    `json:"milestoneAchievement"`
}

type resellerWire struct {
	AgentID       string `json:"agentId"`
	Name          string `json:"name"`
	ReferralCode  string `json:"referralCode"`
	ParentAgentID string `json:"parentAgentId"`
	TierPriority  int    `json:"tierPriority"`
}
