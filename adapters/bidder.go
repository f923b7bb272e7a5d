package adapters

import (
	"encoding/json"
	"net/http"

	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/privacy"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// Bidder describes how to connect to external demand.
type Bidder interface {
	// MakeRequests makes the HTTP requests which should be made to fetch bids.
	//
	// Bidder implementations can assume that the incoming BidRequest has:
	//
	//   1. Only {Imp.Type, Platform} combinations which are valid, as defined by the static/bidder-info.{bidder}.yaml file.
	//   2. Imp.Ext of the form {"bidder": params}, where params has been validated against the static/bidder-params/{bidder}.json JSON Schema.
	//   3. Privacy redactions already applied, as described by reqInfo.Privacy.
	//
	// nil return values are acceptable, but nil elements *inside* those slices are not.
	//
	// The errors should contain a list of errors which explain why this bidder's bids will be
	// "subpar" in some way. For example: the request contained ad types which this bidder doesn't support.
	//
	// If the error is caused by bad user input, return an errortypes.BadInput.
	MakeRequests(request *openrtb2.BidRequest, reqInfo *ExtraRequestInfo) ([]*RequestData, []error)

	// MakeBids unpacks the server's response into Bids.
	//
	// The internal request is the one passed to MakeRequests and the external request is the
	// RequestData that produced this response.
	//
	// The errors should contain a list of errors which explain why this bidder's bids will be
	// "subpar" in some way. For example: the server response didn't have the expected format.
	//
	// If the error was caused by bad user input, return an errortypes.BadInput.
	// If the error was caused by a bad server response, return an errortypes.BadServerResponse
	MakeBids(internalRequest *openrtb2.BidRequest, externalRequest *RequestData, response *ResponseData) (*BidderResponse, []error)
}

// BidderResponse wraps the server's response with the list of bids and the currency used by the bidder.
//
// Currency is optional and defaults to "USD" when empty.
type BidderResponse struct {
	Currency string
	Bids     []*TypedBid
}

// NewBidderResponseWithBidsCapacity creates a new BidderResponse initialized with the default
// currency and a bids slice with the given capacity.
func NewBidderResponseWithBidsCapacity(bidsCapacity int) *BidderResponse {
	return &BidderResponse{
		Currency: "USD",
		Bids:     make([]*TypedBid, 0, bidsCapacity),
	}
}

// NewBidderResponse creates a new BidderResponse initialized with the default currency.
func NewBidderResponse() *BidderResponse {
	return NewBidderResponseWithBidsCapacity(0)
}

// TypedBid packages the openrtb2.Bid with any bidder-specific information that the exchange needs to populate an
// openrtb_ext.ExtBidPrebid.
//
// TypedBid.Bid.Ext will become "response.seatbid[i].bid.ext.bidder" in the final OpenRTB response.
// TypedBid.BidMeta will become "response.seatbid[i].bid.ext.prebid.meta" in the final OpenRTB response.
// TypedBid.BidType will become "response.seatbid[i].bid.ext.prebid.type" in the final OpenRTB response.
// TypedBid.BidVideo will become "response.seatbid[i].bid.ext.prebid.video" in the final OpenRTB response.
// TypedBid.DealPriority is optionally provided by adapters and used internally by the category engine.
// TypedBid.Seat new seat under which the bid should be placed. Default is bidder name.
type TypedBid struct {
	Bid          *openrtb2.Bid
	BidMeta      *openrtb_ext.ExtBidPrebidMeta
	BidType      openrtb_ext.BidType
	BidVideo     *openrtb_ext.ExtBidPrebidVideo
	DealPriority int
	Seat         openrtb_ext.BidderName
}

// ResponseData packages together information from the server's http.Response.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// RequestData packages together the fields needed to make an http.Request.
type RequestData struct {
	Method  string
	Uri     string
	Body    []byte
	Headers http.Header
	ImpIDs  []string
}

// ExtImpBidder can be used by Bidders to unmarshal any request.imp[i].ext.
type ExtImpBidder struct {
	Prebid *openrtb_ext.ExtImpPrebid `json:"prebid,omitempty"`

	// Bidder contains the bidder specific extension.
	// Bidders should unmarshal this using their corresponding openrtb_ext.ExtImp{Bidder} struct.
	Bidder json.RawMessage `json:"bidder"`
}

// ExtraRequestInfo carries what an adapter may need besides the bid request itself.
type ExtraRequestInfo struct {
	// Privacy is the privacy view already applied to the request handed to MakeRequests.
	Privacy privacy.Result
}

func NewExtraRequestInfo(privacyResult privacy.Result) ExtraRequestInfo {
	return ExtraRequestInfo{Privacy: privacyResult}
}

// Builder is the signature of a function able to create a bidder adapter.
type Builder func(openrtb_ext.BidderName, config.Adapter, config.Server) (Bidder, error)
