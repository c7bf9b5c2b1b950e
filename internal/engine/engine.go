package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"incentive-engine/internal/model"
)

// Evaluation is the bonus and annotation pair derived from one schedule.
type Evaluation struct {
	Ladder      []model.Milestone
	Annotations []model.MilestoneAnnotation
	Bonus       decimal.Decimal
	// MissedAllWindows is set when the schedule is complete but no rung was
	// due on or after the completion date. Annotate still marks the last
	// rung as reached in that case while the bonus stays zero.
	MissedAllWindows bool
}

// Evaluate derives the bonus and the annotations from the same schedule value.
func Evaluate(s model.AchievementSchedule) Evaluation {
	ladder := SortLadder(s.Milestones)
	ev := Evaluation{
		Ladder:      ladder,
		Annotations: annotateSorted(s, ladder),
		Bonus:       bonusSorted(s, ladder),
	}
	if s.Completed() && len(ladder) > 0 && achievedIndex(ladder, *s.CompletedAt) < 0 {
		ev.MissedAllWindows = true
	}
	return ev
}

// ComputeBonus returns the reward of the earliest rung still open at the
// completion date. Incomplete schedules and schedules completed after every
// rung's due date earn nothing.
func ComputeBonus(activated, target int, milestones []model.Milestone, completedAt *time.Time) decimal.Decimal {
	s := model.AchievementSchedule{
		ActivatedCount: activated,
		TargetCount:    target,
		CompletedAt:    completedAt,
		Milestones:     milestones,
	}
	return bonusSorted(s, SortLadder(milestones))
}

// Annotate marks each rung of the ladder, in ascending month order, as
// completed and/or current. At most one rung is current.
func Annotate(activated, target int, milestones []model.Milestone, completedAt *time.Time) []model.MilestoneAnnotation {
	s := model.AchievementSchedule{
		ActivatedCount: activated,
		TargetCount:    target,
		CompletedAt:    completedAt,
		Milestones:     milestones,
	}
	return annotateSorted(s, SortLadder(milestones))
}

// SortLadder returns a copy of milestones ordered by months from enrollment.
func SortLadder(milestones []model.Milestone) []model.Milestone {
	ladder := slices.Clone(milestones)
	slices.SortStableFunc(ladder, func(a, b model.Milestone) int {
		return cmp.Compare(a.MonthsFromEnrollment, b.MonthsFromEnrollment)
	})
	return ladder
}

func bonusSorted(s model.AchievementSchedule, ladder []model.Milestone) decimal.Decimal {
	if !s.Completed() {
		return decimal.Zero
	}
	idx := achievedIndex(ladder, *s.CompletedAt)
	if idx < 0 {
		return decimal.Zero
	}
	return ladder[idx].RewardAmount
}

func annotateSorted(s model.AchievementSchedule, ladder []model.Milestone) []model.MilestoneAnnotation {
	out := make([]model.MilestoneAnnotation, len(ladder))
	if len(ladder) == 0 {
		return out
	}

	if !s.Completed() {
		out[0].IsCurrent = true
		return out
	}

	idx := achievedIndex(ladder, *s.CompletedAt)
	if idx < 0 {
		idx = len(ladder) - 1
	}
	for i := range out {
		switch {
		case i < idx:
			out[i].IsCompleted = true
		case i == idx:
			out[i].IsCompleted = true
			out[i].IsCurrent = true
		}
	}
	return out
}

// achievedIndex is the first rung, in ladder order, whose due date is on or
// after completedAt. Rungs without a due date never match. Returns -1 when
// nothing matches.
func achievedIndex(ladder []model.Milestone, completedAt time.Time) int {
	for i, m := range ladder {
		if m.DueDate == nil {
			continue
		}
		if !m.DueDate.Before(completedAt) {
			return i
		}
	}
	return -1
}
