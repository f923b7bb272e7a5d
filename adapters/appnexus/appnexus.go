package appnexus

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	defaultPlatformID int = 5
	maxImpsPerReq         = 10
)

type adapter struct {
	uri      url.URL
	hbSource int
}

// Builder creates the AppNexus adapter.
func Builder(_ openrtb_ext.BidderName, cfg config.Adapter, _ config.Server) (adapters.Bidder, error) {
	uri, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return &adapter{uri: *uri, hbSource: resolvePlatformID(cfg.PlatformID)}, nil
}

// resolvePlatformID reads the hb_source sent to appnexus, falling back to the default when unset
// or not a number.
func resolvePlatformID(platformID string) int {
	if id, err := strconv.Atoi(platformID); err == nil {
		return id
	}
	return defaultPlatformID
}

func (a *adapter) MakeRequests(request *openrtb2.BidRequest, reqInfo *adapters.ExtraRequestInfo) ([]*adapters.RequestData, []error) {
	displayManagerVer := displayManagerVersion(request)
	errs := make([]error, 0, len(request.Imp))

	var memberID string
	imps := make([]openrtb2.Imp, 0, len(request.Imp))
	for _, imp := range request.Imp {
		params, err := parseImpParams(&imp)
		if err == nil {
			err = buildRequestImp(&imp, &params, displayManagerVer)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		// member_id is a query parameter, so one call carries a single member.
		if params.Member != "" {
			if memberID != "" && memberID != params.Member {
				return nil, append(errs, &errortypes.BadInput{
					Message: fmt.Sprintf("all request.imp[i].ext.prebid.bidder.appnexus.member params must match. Request contained member IDs %s and %s", memberID, params.Member),
				})
			}
			memberID = params.Member
		}
		imps = append(imps, imp)
	}

	if len(imps) == 0 {
		return nil, errs
	}

	endpoint := a.uri
	if memberID != "" {
		endpoint = appendMemberId(endpoint, memberID)
	}

	reqExt, err := a.getRequestExt(request.Ext)
	if err != nil {
		return nil, append(errs, err)
	}

	outgoing := *request
	outgoing.Ext = reqExt
	requests, splitErrs := splitRequests(imps, &outgoing, endpoint.String())
	return requests, append(errs, splitErrs...)
}

func (a *adapter) MakeBids(internalRequest *openrtb2.BidRequest, externalRequest *adapters.RequestData, response *adapters.ResponseData) (*adapters.BidderResponse, []error) {
	if adapters.IsResponseStatusCodeNoContent(response) {
		return nil, nil
	}
	if err := adapters.CheckResponseStatusCodeForErrors(response); err != nil {
		return nil, []error{err}
	}

	var parsed openrtb2.BidResponse
	if err := json.Unmarshal(response.Body, &parsed); err != nil {
		return nil, []error{&errortypes.BadServerResponse{Message: err.Error()}}
	}

	var errs []error
	bidderResponse := adapters.NewBidderResponseWithBidsCapacity(len(parsed.SeatBid))
	if parsed.Cur != "" {
		bidderResponse.Currency = parsed.Cur
	}
	for _, seatBid := range parsed.SeatBid {
		for _, bid := range seatBid.Bid {
			typed, err := typedBid(bid)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			bidderResponse.Bids = append(bidderResponse.Bids, typed)
		}
	}
	return bidderResponse, errs
}

// typedBid reads bid.ext.appnexus for the media type, video duration and deal priority. A known
// brand category replaces bid.cat; several unknown ones are cleared since only one can be reported.
func typedBid(bid openrtb2.Bid) (*adapters.TypedBid, error) {
	ext, err := readBidExt(bid)
	if err != nil {
		return nil, err
	}
	bidType, err := bidTypeOf(ext)
	if err != nil {
		return nil, err
	}

	if category, ok := iabCategoryMap[strconv.Itoa(ext.BrandCategory)]; ok {
		bid.Cat = []string{category}
	} else if len(bid.Cat) > 1 {
		bid.Cat = []string{}
	}

	return &adapters.TypedBid{
		Bid:          &bid,
		BidType:      bidType,
		BidVideo:     &openrtb_ext.ExtBidPrebidVideo{Duration: ext.Duration},
		DealPriority: ext.DealPriority,
	}, nil
}

// getRequestExt writes request.ext.appnexus, leaving the rest of the extension untouched.
func (a *adapter) getRequestExt(ext json.RawMessage) (json.RawMessage, error) {
	if len(ext) > 0 && !gjson.ValidBytes(ext) {
		return nil, &errortypes.BadInput{Message: "request.ext is not valid json"}
	}

	appnexusExt := reqExtAppnexus{HeaderBiddingSource: a.hbSource}
	if gjson.GetBytes(ext, "prebid.targeting.includebrandcategory").IsObject() {
		includeBrandCategory := true
		appnexusExt.IncludeBrandCategory = &includeBrandCategory
		appnexusExt.BrandCategoryUniqueness = &includeBrandCategory
	}

	return sjson.SetBytes(ext, "appnexus", appnexusExt)
}

// parseImpParams reads imp.ext.bidder. Either a placement id or a member with an inventory code is
// required.
func parseImpParams(imp *openrtb2.Imp) (openrtb_ext.ExtImpAppnexus, error) {
	var wrapper adapters.ExtImpBidder
	var params openrtb_ext.ExtImpAppnexus
	if err := json.Unmarshal(imp.Ext, &wrapper); err != nil {
		return params, &errortypes.BadInput{Message: err.Error()}
	}
	if err := json.Unmarshal(wrapper.Bidder, &params); err != nil {
		return params, &errortypes.BadInput{Message: err.Error()}
	}
	if params.PlacementId == 0 && (params.InvCode == "" || params.Member == "") {
		return openrtb_ext.ExtImpAppnexus{}, &errortypes.BadInput{Message: "No placement or member+invcode provided"}
	}
	return params, nil
}

// splitRequests sends at most maxImpsPerReq imps per call.
func splitRequests(imps []openrtb2.Imp, request *openrtb2.BidRequest, uri string) ([]*adapters.RequestData, []error) {
	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	headers.Add("Accept", "application/json")

	requests := make([]*adapters.RequestData, 0, (len(imps)+maxImpsPerReq-1)/maxImpsPerReq)
	for start := 0; start < len(imps); start += maxImpsPerReq {
		chunk := imps[start:min(start+maxImpsPerReq, len(imps))]
		request.Imp = chunk

		body, err := json.Marshal(request)
		if err != nil {
			return nil, []error{err}
		}
		requests = append(requests, &adapters.RequestData{
			Method:  "POST",
			Uri:     uri,
			Body:    body,
			Headers: headers,
			ImpIDs:  openrtb_ext.GetImpIDs(chunk),
		})
	}
	return requests, nil
}

func buildRequestImp(imp *openrtb2.Imp, params *openrtb_ext.ExtImpAppnexus, displayManagerVer string) error {
	if params.InvCode != "" {
		imp.TagID = params.InvCode
	}
	// reserve is taken as USD
	if imp.BidFloor <= 0 && params.Reserve > 0 {
		imp.BidFloor = params.Reserve
	}
	if imp.Banner != nil {
		imp.Banner = sizedBanner(*imp.Banner, params.Position)
	}
	if imp.DisplayManagerVer == "" {
		imp.DisplayManagerVer = displayManagerVer
	}

	var err error
	imp.Ext, err = json.Marshal(&impExt{Appnexus: impExtAppnexus{
		PlacementID:       params.PlacementId,
		TrafficSourceCode: params.TrafficSourceCode,
		Keywords:          params.Keywords.String(),
		UsePmtRule:        params.UsePaymentRule,
	}})
	return err
}

// sizedBanner sets the fold position and, when no size is given, takes the first format's size.
func sizedBanner(banner openrtb2.Banner, position string) *openrtb2.Banner {
	switch position {
	case "above":
		banner.Pos = adcom1.PositionAboveFold.Ptr()
	case "below":
		banner.Pos = adcom1.PositionBelowFold.Ptr()
	}
	if banner.W == nil && banner.H == nil && len(banner.Format) > 0 {
		first := banner.Format[0]
		banner.W = &first.W
		banner.H = &first.H
	}
	return &banner
}

// readBidExt probes bid.ext.appnexus for the fields the adapter reports on the typed bid.
func readBidExt(bid openrtb2.Bid) (bidExtAppnexus, error) {
	if !gjson.ValidBytes(bid.Ext) {
		return bidExtAppnexus{}, &errortypes.BadServerResponse{
			Message: fmt.Sprintf("bid %s has a malformed ext", bid.ID),
		}
	}
	appnexus := gjson.GetBytes(bid.Ext, "appnexus")
	return bidExtAppnexus{
		BidType:       int(appnexus.Get("bid_ad_type").Int()),
		BrandCategory: int(appnexus.Get("brand_category_id").Int()),
		Duration:      int(appnexus.Get("creative_info.video.duration").Int()),
		DealPriority:  int(appnexus.Get("deal_priority").Int()),
	}, nil
}

var bidTypes = map[int]openrtb_ext.BidType{
	0: openrtb_ext.BidTypeBanner,
	1: openrtb_ext.BidTypeVideo,
	3: openrtb_ext.BidTypeNative,
}

func bidTypeOf(ext bidExtAppnexus) (openrtb_ext.BidType, error) {
	if bidType, ok := bidTypes[ext.BidType]; ok {
		return bidType, nil
	}
	return "", &errortypes.BadServerResponse{
		Message: fmt.Sprintf("Unrecognized bid_ad_type in response from appnexus: %d", ext.BidType),
	}
}

func appendMemberId(uri url.URL, memberId string) url.URL {
	q := uri.Query()
	q.Set("member_id", memberId)
	uri.RawQuery = q.Encode()
	return uri
}

// displayManagerVersion is "<source>-<version>" from app.ext.prebid, or empty when either is missing.
func displayManagerVersion(req *openrtb2.BidRequest) string {
	if req.App == nil {
		return ""
	}
	source, srcErr := jsonparser.GetString(req.App.Ext, openrtb_ext.PrebidExtKey, "source")
	version, verErr := jsonparser.GetString(req.App.Ext, openrtb_ext.PrebidExtKey, "version")
	if srcErr != nil || verErr != nil {
		return ""
	}
	return source + "-" + version
}
