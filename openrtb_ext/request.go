package openrtb_ext

import "encoding/json"

// PrebidExtKey represents the prebid extension key used in requests
const PrebidExtKey = "prebid"

// ExtRequest defines the contract for bidrequest.ext
type ExtRequest struct {
	Prebid   ExtRequestPrebid `json:"prebid"`
	Keywords json.RawMessage  `json:"keywords,omitempty"`
}

// ExtRequestPrebid defines the contract for bidrequest.ext.prebid
type ExtRequestPrebid struct {
	NoSale    []string             `json:"nosale,omitempty"`
	Targeting *ExtRequestTargeting `json:"targeting,omitempty"`
}

// ExtRequestTargeting defines the contract for bidrequest.ext.prebid.targeting
type ExtRequestTargeting struct {
	IncludeBrandCategory *ExtIncludeBrandCategory `json:"includebrandcategory,omitempty"`
	// DurationRangeSec, when set, snaps video durations up to the first range bucket that fits.
	DurationRangeSec []int `json:"durationrangesec,omitempty"`
}

// ExtIncludeBrandCategory defines the contract for bidrequest.ext.prebid.targeting.includebrandcategory
type ExtIncludeBrandCategory struct {
	PrimaryAdServer     int    `json:"primaryadserver"`
	Publisher           string `json:"publisher"`
	WithCategory        bool   `json:"withcategory"`
	TranslateCategories *bool  `json:"translatecategories,omitempty"`
	// MinDealTier is the deal priority a bid must reach to satisfy priority when its bidder has no deal tier of its own.
	MinDealTier int `json:"mindealtier,omitempty"`
}

// ShouldTranslateCategories reports whether IAB categories should be translated to ad server categories.
// Translation is on unless explicitly disabled.
func (c *ExtIncludeBrandCategory) ShouldTranslateCategories() bool {
	return c.TranslateCategories == nil || *c.TranslateCategories
}

// ParseExtRequest reads bidrequest.ext. An empty ext yields a zero ExtRequest.
func ParseExtRequest(ext json.RawMessage) (*ExtRequest, error) {
	req := &ExtRequest{}
	if len(ext) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(ext, req); err != nil {
		return nil, err
	}
	return req, nil
}
