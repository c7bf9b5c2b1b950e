package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"incentive-engine/internal/model"
	"incentive-engine/internal/permission"
)

// DefaultFallbackTarget is the activation target assumed when the incentive
// service does not provide one.
const DefaultFallbackTarget = 80

// TierPolicy is the YAML document named by TIER_POLICY_FILE.
type TierPolicy struct {
	RecruitMaxPriority   int          `yaml:"recruit_max_priority"`
	IncentiveMaxPriority int          `yaml:"incentive_max_priority"`
	MilestonePriority    int          `yaml:"milestone_priority"`
	FallbackTarget       int          `yaml:"fallback_target"`
	FallbackLadder       []LadderRung `yaml:"fallback_ladder"`
}

type LadderRung struct {
	Months int     `yaml:"months"`
	Reward float64 `yaml:"reward"`
}

func DefaultTierPolicy() *TierPolicy {
	p := permission.DefaultPolicy()
	return &TierPolicy{
		RecruitMaxPriority:   p.RecruitMaxPriority,
		IncentiveMaxPriority: p.IncentiveMaxPriority,
		MilestonePriority:    p.MilestonePriority,
		FallbackTarget:       DefaultFallbackTarget,
		FallbackLadder: []LadderRung{
			{Months: 3, Reward: 500},
			{Months: 4, Reward: 400},
			{Months: 5, Reward: 300},
		},
	}
}

// LoadTierPolicyFromPath reads a policy file. Fields left out of the file
// keep their defaults.
func LoadTierPolicyFromPath(path string) (*TierPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier policy: %w", err)
	}

	policy := DefaultTierPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse tier policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tier policy %s: %w", path, err)
	}
	return policy, nil
}

// LoadTierPolicyOrDefault returns the defaults when path is empty or the
// file cannot be used.
func LoadTierPolicyOrDefault(path string, log *zap.Logger) *TierPolicy {
	if path == "" {
		return DefaultTierPolicy()
	}
	policy, err := LoadTierPolicyFromPath(path)
	if err != nil {
		log.Warn("Using default tier policy", zap.String("path", path), zap.Error(err))
		return DefaultTierPolicy()
	}
	return policy
}

func (p *TierPolicy) Validate() error {
	if p.FallbackTarget <= 0 {
		return fmt.Errorf("fallback_target must be positive, got %d", p.FallbackTarget)
	}
	if len(p.FallbackLadder) == 0 {
		return fmt.Errorf("fallback_ladder is empty")
	}
	seen := make(map[int]bool, len(p.FallbackLadder))
	for _, r := range p.FallbackLadder {
		if r.Months <= 0 {
			return fmt.Errorf("fallback_ladder months must be positive, got %d", r.Months)
		}
		if seen[r.Months] {
			return fmt.Errorf("fallback_ladder has duplicate months %d", r.Months)
		}
		if r.Reward < 0 {
			return fmt.Errorf("fallback_ladder reward for month %d is negative", r.Months)
		}
		seen[r.Months] = true
	}
	return nil
}

func (p *TierPolicy) Permissions() permission.Policy {
	return permission.Policy{
		RecruitMaxPriority:   p.RecruitMaxPriority,
		IncentiveMaxPriority: p.IncentiveMaxPriority,
		MilestonePriority:    p.MilestonePriority,
	}
}

// Ladder is the fallback reward ladder. Its rungs carry no due dates.
func (p *TierPolicy) Ladder() []model.Milestone {
	out := make([]model.Milestone, len(p.FallbackLadder))
	for i, r := range p.FallbackLadder {
		out[i] = model.Milestone{
			MonthsFromEnrollment: r.Months,
			RewardAmount:         decimal.NewFromFloat(r.Reward),
		}
	}
	return out
}
