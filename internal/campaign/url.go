package campaign

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
)

// ErrInvalidURL is returned for destinations that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("must be an absolute http(s) URL")

// ValidateURL requires an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// validateCampaign checks the URLs a campaign sets. Empty URLs fall back to
// the defaults and are accepted.
func validateCampaign(c domain.Campaign) error {
	if c.WhiteURL != "" {
		if err := ValidateURL(c.WhiteURL); err != nil {
			return fmt.Errorf("white_url: %w", err)
		}
	}
	if c.BlackURL != "" {
		if err := ValidateURL(c.BlackURL); err != nil {
			return fmt.Errorf("black_url: %w", err)
		}
	}
	return nil
}
