package openrtb_ext

// ExtBidResponse is bidresponse.ext. Errors and warnings are keyed by the bidder that raised them.
type ExtBidResponse struct {
	Errors             map[BidderName][]ExtBidderMessage `json:"errors,omitempty"`
	Warnings           map[BidderName][]ExtBidderMessage `json:"warnings,omitempty"`
	ResponseTimeMillis map[BidderName]int                 `json:"responsetimemillis,omitempty"`
	Prebid             *ExtResponsePrebid                 `json:"prebid,omitempty"`
}

// ExtResponsePrebid is bidresponse.ext.prebid.
type ExtResponsePrebid struct {
	AuctionTimestamp int64 `json:"auctiontimestamp,omitempty"`
	// Categories maps bid ids to the category assigned during category mapping.
	Categories map[string]string `json:"categories,omitempty"`
	// Rejections lists the bids removed by category mapping, with the reason, and any problem met while mapping.
	Rejections []string `json:"rejections,omitempty"`
}

// ExtBidderMessage pairs an errortypes code with its message.
type ExtBidderMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
