package validation

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
)

// DefaultCampaignID is used when the cid parameter is absent.
const DefaultCampaignID = 123

// Control parameters switch service behavior and are never forwarded to destinations.
const (
	ParamForceBot = "bot_user_agent"
	ParamTestMode = "test_mode"
)

// ControlParams lists the parameters stripped from forwarded query strings.
var ControlParams = []string{ParamForceBot, ParamTestMode}

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9._-]*$`)

// ClickParams is the typed parameter bundle of GET /v1/click.
type ClickParams struct {
	CampaignID      int
	Sub1            string
	Sub2            string
	Sub3            string
	Sub4            string
	Sub5            string
	ClickID         string
	AffSub          string
	AffSub2         string
	AffSub3         string
	AffSub4         string
	AffSub5         string
	LandingPageID   *int
	CampaignOfferID *int
	TrafficSourceID *int
	ForceBot        bool
	TestMode        bool
}

// clickParamNames lists the recognized parameters in the order they are checked.
var clickParamNames = []string{
	"cid",
	"sub1", "sub2", "sub3", "sub4", "sub5",
	"click_id",
	"aff_sub", "aff_sub2", "aff_sub3", "aff_sub4", "aff_sub5",
	"landing_page_id", "campaign_offer_id", "traffic_source_id",
	ParamForceBot, ParamTestMode,
}

// ParseClickParams validates query against the click endpoint rules. Every
// failing field is reported: unknown names first in sorted order, then the
// recognized fields in declaration order. Repeated parameters use their first value.
func ParseClickParams(query url.Values) (ClickParams, FieldErrors) {
	var errs FieldErrors

	for _, name := range sortedKeys(query) {
		if !slices.Contains(clickParamNames, name) {
			errs.Add(name, "Unknown query parameter: "+name)
		}
	}

	params := ClickParams{
		CampaignID: parseCampaignID(query, "cid", DefaultCampaignID, &errs),
	}

	tokens := []struct {
		name string
		dst  *string
	}{
		{"sub1", &params.Sub1},
		{"sub2", &params.Sub2},
		{"sub3", &params.Sub3},
		{"sub4", &params.Sub4},
		{"sub5", &params.Sub5},
		{"click_id", &params.ClickID},
		{"aff_sub", &params.AffSub},
		{"aff_sub2", &params.AffSub2},
		{"aff_sub3", &params.AffSub3},
		{"aff_sub4", &params.AffSub4},
		{"aff_sub5", &params.AffSub5},
	}
	for _, tok := range tokens {
		*tok.dst = parseToken(query, tok.name, &errs)
	}

	params.LandingPageID = parseOptionalID(query, "landing_page_id", math.MaxInt, &errs)
	params.CampaignOfferID = parseOptionalID(query, "campaign_offer_id", math.MaxInt32, &errs)
	params.TrafficSourceID = parseOptionalID(query, "traffic_source_id", math.MaxInt, &errs)

	params.ForceBot = query.Get(ParamForceBot) == "1"
	params.TestMode = query.Get(ParamTestMode) == "1"

	if !errs.Empty() {
		return ClickParams{}, errs
	}
	return params, nil
}

// parseCampaignID reads a campaign ID: absent yields def, empty is an error
// distinct from absent.
func parseCampaignID(query url.Values, name string, def int, errs *FieldErrors) int {
	if !query.Has(name) {
		return def
	}

	raw := query.Get(name)
	if raw == "" {
		errs.Add(name, "Campaign ID cannot be empty")
		return def
	}

	id, err := strconv.Atoi(raw)
	switch {
	case outOfRange(err) && id > 0:
		errs.Add(name, "Campaign ID must be <= "+strconv.Itoa(math.MaxInt))
		return def
	case err != nil && !outOfRange(err):
		errs.Add(name, "Invalid campaign ID")
		return def
	}
	if id < 1 {
		errs.Add(name, "Campaign ID must be >= 1")
		return def
	}
	return id
}

func parseToken(query url.Values, name string, errs *FieldErrors) string {
	raw := query.Get(name)
	if !tokenPattern.MatchString(raw) {
		errs.Add(name, name+" must match pattern [A-Za-z0-9._-]*")
		return ""
	}
	return raw
}

func parseOptionalID(query url.Values, name string, maxValue int, errs *FieldErrors) *int {
	if !query.Has(name) {
		return nil
	}

	raw := query.Get(name)
	if raw == "" {
		errs.Add(name, name+" cannot be empty")
		return nil
	}

	id, err := strconv.Atoi(raw)
	switch {
	case outOfRange(err) && id > 0:
		errs.Add(name, name+" must be <= "+strconv.Itoa(maxValue))
		return nil
	case err != nil && !outOfRange(err):
		errs.Add(name, "Invalid "+name)
		return nil
	}
	if id < 1 {
		errs.Add(name, name+" must be >= 1")
		return nil
	}
	if id > maxValue {
		errs.Add(name, name+" must be <= "+strconv.Itoa(maxValue))
		return nil
	}
	return &id
}

// outOfRange reports a well-formed integer beyond the int range. Atoi clamps
// such values to math.MinInt or math.MaxInt, so the sign is still usable.
func outOfRange(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}

func sortedKeys(query url.Values) []string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
