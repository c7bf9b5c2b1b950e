package upstream

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"incentive-engine/internal/model"
)

// The normalize functions turn wire shapes into fully populated records so
// nothing downstream has to check for missing fields.

func normalizeAccount(w accountWire) model.AccountBalances {
	out := model.AccountBalances{
		RebateBalance:  decimal.Zero,
		CurrentBalance: decimal.Zero,
	}
	if w.Rebate != nil {
		out.RebateBalance = amount(w.Rebate.Balance)
		out.Currency = w.Rebate.Currency
	}
	if w.Current != nil {
		out.CurrentBalance = amount(w.Current.Balance)
		if out.Currency == "" {
			out.Currency = w.Current.Currency
		}
	}
	return out
}

func normalizeDashboard(w dashboardWire) model.DashboardSnapshot {
	out := model.DashboardSnapshot{
		RewardBalance: decimal.Zero,
		DepositVolume: decimal.Zero,
		Transactions:  []model.WalletTransaction{},
	}
	if w.RewardWallet != nil {
		out.RewardBalance = amount(w.RewardWallet.Balance)
		for _, tx := range w.RewardWallet.Transactions {
			out.Transactions = append(out.Transactions, model.WalletTransaction{
				ID:          tx.ID,
				Amount:      amount(tx.Amount),
				Type:        tx.Type,
				Currency:    tx.Currency,
				Description: tx.Description,
				CreatedAt:   parseDate(tx.CreatedAt),
			})
		}
	}
	if r := w.Referral; r != nil {
		out.DirectReferrals = count(r.DirectReferred)
		out.ActiveDirectReferrals = count(r.ActiveDirectReffered)
		out.AgentsToPartner = count(r.AgentsToPartner)
		out.DownstreamAgents = count(r.DownstreamAgents)
		out.DepositVolume = amount(r.DepositVolume)
	}
	if p := w.Profile; p != nil {
		out.Profile = model.AgentProfile{
			AgentID:      p.AgentID,
			Name:         p.Name,
			TierPriority: p.TierPriority,
			EnrolledAt:   parseDate(p.EnrolledAt),
		}
	}
	return out
}

func normalizeSeries(w []seriesPointWire) []model.SeriesPoint {
	out := make([]model.SeriesPoint, len(w))
	for i, p := range w {
		out[i] = model.SeriesPoint{Date: p.Date, Value: p.Value}
	}
	return out
}

func normalizeIncentive(w incentiveWire) model.IncentiveSnapshot {
	out := model.IncentiveSnapshot{
		DirectReferralFee:          amount(w.DirectReferralFee),
		DepositRebate:              amount(w.DepositRebate),
		DownstreamDirectOverride:   amount(w.DownstreamDirectOverride),
		DownstreamIndirectOverride: amount(w.DownstreamIndirectOverride),
		PerformanceBonus:           amount(w.PerformanceBonus),
		LevelAdvancementBonus:      amount(w.LevelAdvancementBonus),
		MilestoneBonus:             amount(w.MilestoneBonus),
		TotalIncentive:             amount(w.TotalIncentive),
	}
	if a := w.MilestoneAchievement; a != nil {
		ach := &model.MilestoneAchievement{
			ActivatedUsers: count(a.ActivatedUsers),
			TargetUsers:    count(a.TargetUsers),
			CompleteAt:     parseDate(a.CompleteAt),
			Milestones:     make([]model.Milestone, 0, len(a.Milestones)),
		}
		for _, m := range a.Milestones {
			ach.Milestones = append(ach.Milestones, model.Milestone{
				MonthsFromEnrollment: m.Months,
				RewardAmount:         amount(m.Reward),
				DueDate:              parseDate(m.Date),
			})
		}
		out.Achievement = ach
	}
	return out
}

func normalizeReseller(w resellerWire) model.ResellerProfile {
	return model.ResellerProfile{
		AgentID:       w.AgentID,
		Name:          w.Name,
		ReferralCode:  w.ReferralCode,
		ParentAgentID: w.ParentAgentID,
		TierPriority:  w.TierPriority,
	}
}

func amount(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func count(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Anything else is treated as absent.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, ok := fastParseDate(s); ok {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

// fastParseDate parses "YYYY-MM-DD" without going through layout parsing.
func fastParseDate(s string) (time.Time, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}
	y := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	m := time.Month(int(s[5]-'0')*10 + int(s[6]-'0'))
	d := int(s[8]-'0')*10 + int(s[9]-'0')
	if m < 1 || m > 12 || d < 1 || d > daysIn(y, m) {
		return time.Time{}, false
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
