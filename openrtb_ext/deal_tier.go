package openrtb_ext

import (
	"encoding/json"
	"errors"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"
)

// DealTier is a bidder's deal priority threshold for one impression.
type DealTier struct {
	// Prefix starts the hb_pb_cat_dur value of bids that satisfy the tier.
	Prefix string `json:"prefix"`
	// MinDealTier is the lowest deal priority, inclusive, that satisfies the tier.
	MinDealTier int `json:"minDealTier"`
}

// DealTierBidderMap holds the deal tier of each bidder on an impression.
type DealTierBidderMap map[BidderName]DealTier

// ReadDealTiersFromImp collects imp.ext.prebid.bidder.<name>.dealTier from an impression as the
// caller sent it. Known bidder names are normalized; unknown names are kept as given.
func ReadDealTiersFromImp(imp openrtb2.Imp) (DealTierBidderMap, error) {
	dealTiers := make(DealTierBidderMap)
	if len(imp.Ext) == 0 {
		return dealTiers, nil
	}
	if !gjson.ValidBytes(imp.Ext) {
		return nil, errors.New("imp.ext is not valid json")
	}

	var err error
	gjson.GetBytes(imp.Ext, "prebid.bidder").ForEach(func(bidder, params gjson.Result) bool {
		raw := params.Get("dealTier")
		if !raw.Exists() {
			return true
		}
		var tier DealTier
		if err = json.Unmarshal([]byte(raw.Raw), &tier); err != nil {
			return false
		}
		name := BidderName(bidder.String())
		if normalized, ok := NormalizeBidderName(bidder.String()); ok {
			name = normalized
		}
		dealTiers[name] = tier
		return true
	})
	if err != nil {
		return nil, err
	}
	return dealTiers, nil
}
