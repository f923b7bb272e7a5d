package entities

import (
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// PbsOrtbBid is a Bid returned by an AdaptedBidder.
//
// PbsOrtbBid.Bid.Ext will become "response.seatbid[i].bid.ext.bidder" in the final OpenRTB response.
// PbsOrtbBid.BidMeta will become "response.seatbid[i].bid.ext.prebid.meta" in the final OpenRTB response.
// PbsOrtbBid.BidType will become "response.seatbid[i].bid.ext.prebid.type" in the final OpenRTB response.
// PbsOrtbBid.BidVideo is optional but should be filled out by the Adapter if BidType is video.
// PbsOrtbBid.DealPriority is optionally provided by adapters and used internally by the category engine.
type PbsOrtbBid struct {
	Bid          *openrtb2.Bid
	BidMeta      *openrtb_ext.ExtBidPrebidMeta
	BidType      openrtb_ext.BidType
	BidVideo     *openrtb_ext.ExtBidPrebidVideo
	DealPriority int
	// Seat is the seat the adapter asked the bid to be placed under. Empty means the bidder name.
	Seat openrtb_ext.BidderName
}

// BidderResponse is everything one bidder contributed to an auction.
type BidderResponse struct {
	Bidder             openrtb_ext.BidderName
	Bids               []*PbsOrtbBid
	Currency           string
	Errors             []error
	ResponseTimeMillis int
}

// CategoryMappingResult is the outcome of category mapping and deduplication over the bidder
// responses of one auction.
type CategoryMappingResult struct {
	BidCategory          map[*PbsOrtbBid]string
	BidSatisfiesPriority map[*PbsOrtbBid]bool
	BidderResponses      []*BidderResponse
	Errors               []string
}

// NewCategoryMappingResult returns the identity result: the responses untouched, no categories
// assigned and no rejections.
func NewCategoryMappingResult(responses []*BidderResponse) *CategoryMappingResult {
	return &CategoryMappingResult{
		BidCategory:          make(map[*PbsOrtbBid]string),
		BidSatisfiesPriority: make(map[*PbsOrtbBid]bool),
		BidderResponses:      responses,
		Errors:               make([]string, 0),
	}
}

// Category returns the category assigned to bid, or "" when none was.
func (r *CategoryMappingResult) Category(bid *PbsOrtbBid) string {
	return r.BidCategory[bid]
}

// SatisfiesPriority reports whether bid met its deal tier.
func (r *CategoryMappingResult) SatisfiesPriority(bid *PbsOrtbBid) bool {
	return r.BidSatisfiesPriority[bid]
}
