package exchange

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/privacy"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// impBidders holds the bidder params of one impression, keyed by bidder, in the order they appear.
type impBidders struct {
	names  []openrtb_ext.BidderName
	params map[openrtb_ext.BidderName]json.RawMessage
	// legacyKeys are the top level imp.ext keys holding bidder params.
	legacyKeys []string
}

// readImpBidders reads the bidders of imp from imp.ext.prebid.bidder, falling back to bidder names used
// as top level imp.ext keys.
func readImpBidders(imp *openrtb2.Imp) (impBidders, error) {
	found := impBidders{params: make(map[openrtb_ext.BidderName]json.RawMessage)}
	if len(imp.Ext) == 0 {
		return found, nil
	}

	add := func(key []byte, value []byte) {
		name, ok := openrtb_ext.NormalizeBidderName(string(key))
		if !ok {
			name = openrtb_ext.BidderName(key)
		}
		if _, seen := found.params[name]; seen {
			return
		}
		found.names = append(found.names, name)
		found.params[name] = append(json.RawMessage(nil), value...)
	}

	err := jsonparser.ObjectEach(imp.Ext, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		add(key, value)
		return nil
	}, openrtb_ext.PrebidExtKey, "bidder")
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return found, fmt.Errorf("request.imp[%s].ext.prebid.bidder is malformed: %v", imp.ID, err)
	}

	err = jsonparser.ObjectEach(imp.Ext, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		if _, ok := openrtb_ext.NormalizeBidderName(string(key)); ok {
			found.legacyKeys = append(found.legacyKeys, string(key))
			add(key, value)
		}
		return nil
	})
	if err != nil {
		return found, fmt.Errorf("request.imp[%s].ext is malformed: %v", imp.ID, err)
	}
	return found, nil
}

// splitImps enumerates the bidders of the request in order of first appearance and returns, per
// bidder, copies of the impressions which reference it. The input impressions are not mutated.
func splitImps(imps []openrtb2.Imp) ([]openrtb_ext.BidderName, map[openrtb_ext.BidderName][]openrtb2.Imp, error) {
	var bidders []openrtb_ext.BidderName
	impsByBidder := make(map[openrtb_ext.BidderName][]openrtb2.Imp)

	for i := range imps {
		found, err := readImpBidders(&imps[i])
		if err != nil {
			return nil, nil, &errortypes.BadInput{Message: err.Error()}
		}

		for _, name := range found.names {
			impCopy, err := sanitizedImpCopy(&imps[i], found, name)
			if err != nil {
				return nil, nil, &errortypes.BadInput{Message: err.Error()}
			}
			if _, seen := impsByBidder[name]; !seen {
				bidders = append(bidders, name)
			}
			impsByBidder[name] = append(impsByBidder[name], impCopy)
		}
	}
	return bidders, impsByBidder, nil
}

// sanitizedImpCopy returns a copy of imp whose ext carries the params of the given bidder under
// "bidder". Params of every other bidder are removed; the remaining ext fields are kept.
func sanitizedImpCopy(imp *openrtb2.Imp, found impBidders, bidder openrtb_ext.BidderName) (openrtb2.Imp, error) {
	impCopy := *imp

	// jsonparser.Delete works in place.
	ext := append([]byte(nil), imp.Ext...)
	ext = jsonparser.Delete(ext, openrtb_ext.PrebidExtKey, "bidder")
	for _, key := range found.legacyKeys {
		ext = jsonparser.Delete(ext, key)
	}

	ext, err := jsonparser.Set(ext, found.params[bidder], "bidder")
	if err != nil {
		return impCopy, fmt.Errorf("request.imp[%s].ext could not be prepared for %s: %v", imp.ID, bidder, err)
	}
	impCopy.Ext = ext
	return impCopy, nil
}

// buildBidderRequests creates one redacted request per bidder, in enumeration order.
func buildBidderRequests(req *openrtb2.BidRequest, bidders []openrtb_ext.BidderName, impsByBidder map[openrtb_ext.BidderName][]openrtb2.Imp, privacyResults map[openrtb_ext.BidderName]privacy.Result) []BidderRequest {
	bidderRequests := make([]BidderRequest, 0, len(bidders))
	for _, bidder := range bidders {
		reqCopy := *req
		reqCopy.Imp = impsByBidder[bidder]

		bidderRequests = append(bidderRequests, BidderRequest{
			BidRequest: privacyResults[bidder].Apply(&reqCopy),
			BidderName: bidder,
			BidderLabels: metrics.AdapterLabels{
				Adapter: bidder,
			},
		})
	}
	return bidderRequests
}

// getDealTiers reads the deal tiers of every impression, keyed by impression id.
func getDealTiers(bidRequest *openrtb2.BidRequest) map[string]openrtb_ext.DealTierBidderMap {
	dealTiers := make(map[string]openrtb_ext.DealTierBidderMap, len(bidRequest.Imp))

	for _, imp := range bidRequest.Imp {
		dealTierForImp, err := openrtb_ext.ReadDealTiersFromImp(imp)
		if err != nil {
			continue
		}
		dealTiers[imp.ID] = dealTierForImp
	}

	return dealTiers
}
