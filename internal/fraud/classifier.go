package fraud

import "github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"

// Fraud reasons recorded on invalid clicks.
const (
	ReasonForced           = "forced_bot_detection"
	ReasonMissingUserAgent = "missing_user_agent"
	ReasonBotPattern       = "bot_pattern_detected"
	ReasonReferrerLength   = "suspicious_referrer_length"
	ReasonIPBlacklisted    = "ip_blacklisted"
	ReasonUserAgentBlocked = "user_agent_blocked"
)

// MaxReferrerLength is the longest referrer accepted as legitimate.
const MaxReferrerLength = 1000

// Input is the client information a rule inspects.
type Input struct {
	IP        string
	UserAgent string
	Referrer  *string
}

// Rule rejects a click with Reason when Match returns true.
type Rule struct {
	Name   string
	Reason string
	Match  func(Input) bool
}

// Classifier evaluates an ordered rule list; the first matching rule decides.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns the default heuristics: missing user agent, bot
// signature, over-long referrer.
func NewClassifier(matcher *SignatureMatcher) *Classifier {
	return NewClassifierWithRules([]Rule{
		{
			Name:   "missing_user_agent",
			Reason: ReasonMissingUserAgent,
			Match:  func(in Input) bool { return in.UserAgent == "" },
		},
		{
			Name:   "bot_pattern",
			Reason: ReasonBotPattern,
			Match:  func(in Input) bool { return matcher.Contains(in.UserAgent) },
		},
		{
			Name:   "referrer_length",
			Reason: ReasonReferrerLength,
			Match: func(in Input) bool {
				return in.Referrer != nil && len(*in.Referrer) > MaxReferrerLength
			},
		},
	})
}

// NewClassifierWithRules builds a classifier over a custom ordered rule list.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the verdict for in. forceBot wins over every rule.
// The returned verdict has no score; see Scorer.
func (c *Classifier) Classify(in Input, forceBot bool) domain.Verdict {
	if forceBot {
		return domain.Verdict{Valid: false, Reason: ReasonForced}
	}
	return evaluate(c.rules, in)
}

func evaluate(rules []Rule, in Input) domain.Verdict {
	for _, rule := range rules {
		if rule.Match(in) {
			return domain.Verdict{Valid: false, Reason: rule.Reason}
		}
	}
	return domain.Verdict{Valid: true}
}
