// Package domain holds the types shared across the click pipeline.
package domain

// ClickRecord is one classified click. Records are immutable once appended to the ledger.
type ClickRecord struct {
	ID              string  `json:"id"`
	CampaignID      int     `json:"cid"`
	ClientIP        string  `json:"ip"`
	UserAgent       string  `json:"ua"`
	Referrer        *string `json:"ref"`
	IsValid         int     `json:"isValid"`
	Timestamp       int64   `json:"ts"`
	Sub1            string  `json:"sub1"`
	Sub2            string  `json:"sub2"`
	Sub3            string  `json:"sub3"`
	Sub4            string  `json:"sub4"`
	Sub5            string  `json:"sub5"`
	ClickID         string  `json:"clickId"`
	AffSub          string  `json:"affSub"`
	AffSub2         string  `json:"affSub2"`
	AffSub3         string  `json:"affSub3"`
	AffSub4         string  `json:"affSub4"`
	AffSub5         string  `json:"affSub5"`
	FraudScore      float64 `json:"fraudScore"`
	FraudReason     *string `json:"fraudReason"`
	LandingPageID   *int    `json:"landingPageId"`
	CampaignOfferID *int    `json:"campaignOfferId"`
	TrafficSourceID *int    `json:"trafficSourceId"`
	ConversionType  *string `json:"conversionType"`
}

// Valid reports whether the click passed screening.
func (r ClickRecord) Valid() bool {
	return r.IsValid == 1
}

// CampaignFilterSet holds per-campaign screening rules. AllowedCountries is
// carried for configuration compatibility and never rejects a click.
type CampaignFilterSet struct {
	IPBlacklist       []string `json:"ip_blacklist"        yaml:"ip_blacklist"`
	AllowedCountries  []string `json:"allowed_countries"   yaml:"allowed_countries"`
	BlockedUserAgents []string `json:"blocked_user_agents" yaml:"blocked_user_agents"`
}

// Campaign is the routing and screening configuration for one campaign ID.
type Campaign struct {
	ID       int               `json:"id"        yaml:"id"`
	WhiteURL string            `json:"white_url" yaml:"white_url"`
	BlackURL string            `json:"black_url" yaml:"black_url"`
	Filters  CampaignFilterSet `json:"filters"   yaml:"filters"`
}

// Verdict is the outcome of screening a click.
type Verdict struct {
	Valid  bool
	Reason string
	Score  float64
}

// IsValidFlag converts a boolean verdict into the 0/1 wire value.
func IsValidFlag(valid bool) int {
	if valid {
		return 1
	}
	return 0
}
