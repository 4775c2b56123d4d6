package fraud

import (
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
)

// FilterEngine applies a campaign's allow and deny lists to clicks that
// passed the classifier.
type FilterEngine struct{}

// NewFilterEngine returns a FilterEngine.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// Apply returns prior unchanged when it is already invalid. Otherwise the
// campaign rules run in order: IP blacklist, then blocked user agents.
// AllowedCountries never rejects.
func (f *FilterEngine) Apply(prior domain.Verdict, in Input, filters domain.CampaignFilterSet) domain.Verdict {
	if !prior.Valid {
		return prior
	}
	return evaluate(campaignRules(filters), in)
}

func campaignRules(filters domain.CampaignFilterSet) []Rule {
	return []Rule{
		{
			Name:   "ip_blacklist",
			Reason: ReasonIPBlacklisted,
			Match:  func(in Input) bool { return slices.Contains(filters.IPBlacklist, in.IP) },
		},
		{
			Name:   "blocked_user_agent",
			Reason: ReasonUserAgentBlocked,
			Match: func(in Input) bool {
				return userAgentBlocked(in.UserAgent, filters.BlockedUserAgents)
			},
		},
	}
}

func userAgentBlocked(userAgent string, blocked []string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, fragment := range blocked {
		if fragment != "" && strings.Contains(ua, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}
