package grid

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type adapter struct {
	endpoint string
}

// gridExtImp is the part of imp.ext the grid bidder reads.
type gridExtImp struct {
	Bidder openrtb_ext.ExtImpGrid      `json:"bidder"`
	Data   *openrtb_ext.ExtImpGridData `json:"data,omitempty"`
}

type gridBid struct {
	openrtb2.Bid
	ContentType openrtb_ext.BidType `json:"content_type"`
}

type gridSeatBid struct {
	Bid []gridBid `json:"bid"`
}

type gridBidResponse struct {
	ID      string        `json:"id"`
	SeatBid []gridSeatBid `json:"seatbid"`
	Cur     string        `json:"cur"`
}

func processImp(imp *openrtb2.Imp) error {
	var ext gridExtImp
	if err := json.Unmarshal(imp.Ext, &ext); err != nil {
		return &errortypes.BadInput{Message: err.Error()}
	}

	if ext.Bidder.Uid == 0 {
		return &errortypes.BadInput{
			Message: fmt.Sprintf("Empty uid in imp with id: %s", imp.ID),
		}
	}

	if ext.Data != nil && ext.Data.AdServer != nil && ext.Data.AdServer.AdSlot != "" {
		impExt, err := sjson.SetBytes(imp.Ext, "gpid", ext.Data.AdServer.AdSlot)
		if err != nil {
			return &errortypes.BadInput{Message: err.Error()}
		}
		imp.Ext = impExt
	}
	return nil
}

// firstImpKeywords reads imp.ext.bidder.keywords of the first impression, valid or not.
func firstImpKeywords(imps []openrtb2.Imp) Keywords {
	if len(imps) == 0 {
		return nil
	}
	var ext gridExtImp
	if err := json.Unmarshal(imps[0].Ext, &ext); err != nil {
		return nil
	}
	return parseKeywords(ext.Bidder.Keywords)
}

// buildRequestExt writes the resolved keywords into request.ext, replacing whatever keywords it held.
// With no keywords the key is removed and an absent ext stays absent.
func buildRequestExt(requestExt json.RawMessage, keywords Keywords) (json.RawMessage, error) {
	if len(keywords) == 0 && len(requestExt) == 0 {
		return requestExt, nil
	}

	doc := requestExt
	if len(doc) == 0 {
		doc = json.RawMessage(`{}`)
	}

	doc, err := jsonpatch.MergePatch(doc, []byte(`{"keywords":null}`))
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return doc, nil
	}

	patch, err := json.Marshal(map[string]Keywords{"keywords": keywords})
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(doc, patch)
}

// Builder creates the Grid adapter.
func Builder(_ openrtb_ext.BidderName, cfg config.Adapter, _ config.Server) (adapters.Bidder, error) {
	return &adapter{endpoint: cfg.Endpoint}, nil
}

// MakeRequests sends every imp with a uid in one call. Keywords from user, site, the first imp and
// request.ext are merged into request.ext.keywords.
func (a *adapter) MakeRequests(request *openrtb2.BidRequest, _ *adapters.ExtraRequestInfo) ([]*adapters.RequestData, []error) {
	errs := make([]error, 0)

	imps := make([]openrtb2.Imp, 0, len(request.Imp))
	for _, imp := range request.Imp {
		if err := processImp(&imp); err != nil {
			errs = append(errs, err)
			continue
		}
		imps = append(imps, imp)
	}
	if len(imps) == 0 {
		return nil, append(errs, &errortypes.BadInput{Message: "No valid impressions for grid"})
	}

	ext, err := buildRequestExt(request.Ext, requestKeywords(request))
	if err != nil {
		return nil, append(errs, err)
	}

	outgoing := *request
	outgoing.Imp = imps
	outgoing.Ext = ext
	body, err := json.Marshal(outgoing)
	if err != nil {
		return nil, append(errs, err)
	}

	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	return []*adapters.RequestData{{
		Method:  "POST",
		Uri:     a.endpoint,
		Body:    body,
		Headers: headers,
		ImpIDs:  openrtb_ext.GetImpIDs(imps),
	}}, errs
}

func requestKeywords(request *openrtb2.BidRequest) Keywords {
	var userKeywords, siteKeywords string
	if request.User != nil {
		userKeywords = request.User.Keywords
	}
	if request.Site != nil {
		siteKeywords = request.Site.Keywords
	}
	return mergeKeywords(
		keywordsFromOpenRTB(userKeywords, siteKeywords),
		firstImpKeywords(request.Imp),
		parseKeywords(json.RawMessage(gjson.GetBytes(request.Ext, "keywords").Raw)),
	)
}

// MakeBids types each bid and reports bid.ext.bidder.grid.demandSource as the prebid meta demand source.
func (a *adapter) MakeBids(request *openrtb2.BidRequest, _ *adapters.RequestData, response *adapters.ResponseData) (*adapters.BidderResponse, []error) {
	if adapters.IsResponseStatusCodeNoContent(response) {
		return nil, nil
	}
	if err := adapters.CheckResponseStatusCodeForErrors(response); err != nil {
		return nil, []error{err}
	}

	var bidResp gridBidResponse
	if err := json.Unmarshal(response.Body, &bidResp); err != nil {
		return nil, []error{&errortypes.BadServerResponse{Message: err.Error()}}
	}

	bidderResponse := adapters.NewBidderResponseWithBidsCapacity(1)
	if bidResp.Cur != "" {
		bidderResponse.Currency = bidResp.Cur
	}

	var errs []error
	for _, seat := range bidResp.SeatBid {
		for _, gb := range seat.Bid {
			typed, err := typedBid(gb, request.Imp)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			bidderResponse.Bids = append(bidderResponse.Bids, typed)
		}
	}
	return bidderResponse, errs
}

func typedBid(gb gridBid, imps []openrtb2.Imp) (*adapters.TypedBid, error) {
	bidType, err := getBidType(gb, imps)
	if err != nil {
		return nil, err
	}

	bid := gb.Bid
	typed := &adapters.TypedBid{Bid: &bid, BidType: bidType}
	if demandSource := gjson.GetBytes(bid.Ext, "bidder.grid.demandSource").String(); demandSource != "" {
		typed.BidMeta = &openrtb_ext.ExtBidPrebidMeta{DemandSource: demandSource}
	}
	return typed, nil
}

// getBidType prefers the type the server declared, then the bid's markup type, then the
// impression's media: banner before video.
func getBidType(bid gridBid, imps []openrtb2.Imp) (openrtb_ext.BidType, error) {
	if bid.ContentType != "" {
		bidType, err := openrtb_ext.ParseBidType(string(bid.ContentType))
		if err != nil {
			return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("Bid \"%s\" has unsupported content_type: %s", bid.ID, bid.ContentType)}
		}
		return bidType, nil
	}

	switch bid.MType {
	case openrtb2.MarkupBanner:
		return openrtb_ext.BidTypeBanner, nil
	case openrtb2.MarkupVideo:
		return openrtb_ext.BidTypeVideo, nil
	case openrtb2.MarkupAudio:
		return openrtb_ext.BidTypeAudio, nil
	case openrtb2.MarkupNative:
		return openrtb_ext.BidTypeNative, nil
	}

	i := slices.IndexFunc(imps, func(imp openrtb2.Imp) bool { return imp.ID == bid.ImpID })
	switch {
	case i < 0:
		return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("Failed to find impression for ID: \"%s\"", bid.ImpID)}
	case imps[i].Banner != nil:
		return openrtb_ext.BidTypeBanner, nil
	case imps[i].Video != nil:
		return openrtb_ext.BidTypeVideo, nil
	default:
		return "", &errortypes.BadServerResponse{Message: fmt.Sprintf("Unknown impression type for ID: \"%s\"", bid.ImpID)}
	}
}
