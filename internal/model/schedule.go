package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Milestone struct {
	MonthsFromEnrollment int
	RewardAmount         decimal.Decimal
	DueDate              *time.Time
}

// AchievementSchedule is one agent's progress toward a recruitment milestone.
// CompletedAt is only meaningful once ActivatedCount reaches TargetCount.
type AchievementSchedule struct {
	ActivatedCount int
	TargetCount    int
	CompletedAt    *time.Time
	Milestones     []Milestone
}

// Completed reports whether the schedule has been met and stamped.
func (s AchievementSchedule) Completed() bool {
	return s.CompletedAt != nil && s.ActivatedCount >= s.TargetCount
}

type MilestoneAnnotation struct {
	IsCompleted bool
	IsCurrent   bool
}
