package validation

import (
	"net/url"
	"slices"
	"strconv"
)

// Pagination bounds of GET /v1/clicks.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

const invalidFormat = "Invalid parameter format"

var listParamNames = []string{"cid", "limit", "offset", "sub1", "sub2", "is_valid"}

// ListParams is the typed parameter bundle of GET /v1/clicks.
type ListParams struct {
	CampaignID *int
	Sub1       *string
	Sub2       *string
	IsValid    *int
	Limit      int
	Offset     int
}

// ParseListParams validates the admin list query. Unknown and repeated
// parameters are rejected before any value is checked.
func ParseListParams(query url.Values) (ListParams, FieldErrors) {
	var errs FieldErrors

	for _, name := range sortedKeys(query) {
		if !slices.Contains(listParamNames, name) {
			errs.Add(name, "Unknown query parameter: "+name)
			continue
		}
		if len(query[name]) != 1 {
			errs.Add(name, "Parameter "+name+" must be a single value, not an array")
		}
	}
	if !errs.Empty() {
		return ListParams{}, errs
	}

	params := ListParams{Limit: DefaultLimit}

	if query.Has("cid") {
		if cid := parseCampaignID(query, "cid", 0, &errs); cid > 0 {
			params.CampaignID = &cid
		}
	}

	if query.Has("limit") {
		limit, err := strconv.Atoi(query.Get("limit"))
		switch {
		case err != nil && !outOfRange(err):
			errs.Add("limit", invalidFormat)
		case limit < 1 || limit > MaxLimit:
			errs.Add("limit", "Limit must be between 1 and 1000")
		default:
			params.Limit = limit
		}
	}

	if query.Has("offset") {
		offset, err := strconv.Atoi(query.Get("offset"))
		switch {
		case err != nil && !outOfRange(err):
			errs.Add("offset", invalidFormat)
		case offset < 0:
			errs.Add("offset", "Offset must be >= 0")
		default:
			params.Offset = offset
		}
	}

	if query.Has("sub1") {
		v := query.Get("sub1")
		params.Sub1 = &v
	}
	if query.Has("sub2") {
		v := query.Get("sub2")
		params.Sub2 = &v
	}

	if query.Has("is_valid") {
		flag, err := strconv.Atoi(query.Get("is_valid"))
		switch {
		case err != nil && !outOfRange(err):
			errs.Add("is_valid", invalidFormat)
		case flag != 0 && flag != 1:
			errs.Add("is_valid", "is_valid must be 0 or 1")
		default:
			params.IsValid = &flag
		}
	}

	if !errs.Empty() {
		return ListParams{}, errs
	}
	return params, nil
}
