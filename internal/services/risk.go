package services

import (
	"strings"

	"github.com/mindscreen/mindscreen/internal/instrument"
)

// RiskTier is the coarse four-level bucket derived from a severity label.
type RiskTier string

const (
	TierLow      RiskTier = "Low"
	TierModerate RiskTier = "Moderate"
	TierHigh     RiskTier = "High"
	TierCritical RiskTier = "Critical"
	TierUnknown  RiskTier = "Unknown"
)

// RiskAssessment couples a tier with its suggested actions.
type RiskAssessment struct {
	Tier    RiskTier `json:"tier"`
	Actions []string `json:"actions"`
}

// tierRules map severity keywords to tiers. Evaluated in order,
// case-insensitive substring, first match wins. The last two entries cover
// the PSS vocabulary (Low/Moderate/High), which shares "moderate" with the
// GAD/PHQ wording.
var tierRules = []struct {
	keyword string
	tier    RiskTier
}{
	{"minimal", TierLow},
	{"mild", TierModerate},
	{"moderate", TierHigh},
	{"severe", TierCritical},
	{"low", TierLow},
	{"high", TierCritical},
}

// TierFromLabel resolves a severity label to a risk tier. Unmatched labels
// map to TierUnknown.
func TierFromLabel(label string) RiskTier {
	l := strings.ToLower(label)
	for _, r := range tierRules {
		if strings.Contains(l, r.keyword) {
			return r.tier
		}
	}
	return TierUnknown
}

// unknownActions is the fallback for unmatched labels or unregistered
// instruments.
var unknownActions = []string{"Consult a mental health professional"}

// actionPlan is configuration data, keyed by instrument then tier.
var actionPlan = map[instrument.ID]map[RiskTier][]string{
	instrument.GAD7: {
		TierLow:      {"Keep a steady routine", "Sleep 7-9 hours", "Exercise 30 minutes a day"},
		TierModerate: {"Practice 4-7-8 breathing", "Journal your thoughts"},
		TierHigh:     {"Reach out to peer support", "Sign up for counseling"},
		TierCritical: {"Seek a counselor promptly", "Follow up within 48 hours"},
	},
	instrument.PSS10: {
		TierLow:      {"Pomodoro 25/5 work blocks", "Take short walks"},
		TierModerate: {"Time-block your tasks", "Talk to a mentor"},
		TierHigh:     {"Meet your advisor", "Use a stress worksheet"},
		TierCritical: {"Contact student services", "Schedule a health check-in"},
	},
	instrument.PHQ9: {
		TierLow:      {"Keep a gratitude list", "Plan a social activity"},
		TierModerate: {"Set small daily tasks", "Use positive reinforcement"},
		TierHigh:     {"Ask for a counseling referral", "Follow up within 72 hours"},
		TierCritical: {"Seek immediate support", "Review your safety plan"},
	},
}

// ToRisk maps a severity label to a risk tier and the suggested actions for
// the given instrument. Pure and deterministic.
func ToRisk(id instrument.ID, label string) RiskAssessment {
	tier := TierFromLabel(label)
	if tier == TierUnknown {
		return RiskAssessment{Tier: TierUnknown, Actions: unknownActions}
	}
	plan, ok := actionPlan[id]
	if !ok {
		return RiskAssessment{Tier: tier, Actions: unknownActions}
	}
	actions, ok := plan[tier]
	if !ok {
		return RiskAssessment{Tier: tier, Actions: unknownActions}
	}
	return RiskAssessment{Tier: tier, Actions: actions}
}
