package nanointeractive

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
)

type adapter struct {
	endpoint string
}

// Builder creates the NanoInteractive adapter.
func Builder(_ openrtb_ext.BidderName, cfg config.Adapter, _ config.Server) (adapters.Bidder, error) {
	return &adapter{endpoint: cfg.Endpoint}, nil
}

// MakeRequests sends every valid banner imp in a single call. The first non-empty ref param
// becomes site.ref on a copy of the site.
func (a *adapter) MakeRequests(request *openrtb2.BidRequest, _ *adapters.ExtraRequestInfo) ([]*adapters.RequestData, []error) {
	var errs []error
	var imps []openrtb2.Imp
	var ref string

	for i := range request.Imp {
		params, err := parseImp(&request.Imp[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ref == "" {
			ref = params.Ref
		}
		imps = append(imps, request.Imp[i])
	}

	if len(imps) == 0 {
		return nil, append(errs, &errortypes.BadInput{Message: "no impressions in the bid request"})
	}

	outgoing := *request
	outgoing.Imp = imps
	if ref != "" {
		site := openrtb2.Site{}
		if outgoing.Site != nil {
			site = *outgoing.Site
		}
		site.Ref = ref
		outgoing.Site = &site
	}

	body, err := json.Marshal(outgoing)
	if err != nil {
		return nil, append(errs, err)
	}

	return []*adapters.RequestData{{
		Method:  "POST",
		Uri:     a.endpoint,
		Body:    body,
		Headers: requestHeaders(&outgoing),
		ImpIDs:  openrtb_ext.GetImpIDs(imps),
	}}, errs
}

// requestHeaders forwards the device, page and buyer uid the way the bidder expects them.
func requestHeaders(request *openrtb2.BidRequest) http.Header {
	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	headers.Add("Accept", "application/json")
	headers.Add("x-openrtb-version", "2.5")

	add := func(name, value string) {
		if value != "" {
			headers.Add(name, value)
		}
	}
	if request.Device != nil {
		add("User-Agent", request.Device.UA)
		add("X-Forwarded-For", request.Device.IP)
	}
	if request.Site != nil {
		add("Referer", request.Site.Page)
	}
	if request.User != nil && request.User.BuyerUID != "" {
		headers.Add("Cookie", "Nano="+request.User.BuyerUID)
	}
	return headers
}

// MakeBids keeps bids with a positive price. Every bid is a banner.
func (a *adapter) MakeBids(_ *openrtb2.BidRequest, _ *adapters.RequestData, response *adapters.ResponseData) (*adapters.BidderResponse, []error) {
	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	case http.StatusBadRequest:
		return nil, []error{&errortypes.BadInput{Message: "Invalid request."}}
	default:
		return nil, []error{&errortypes.BadServerResponse{
			Message: fmt.Sprintf("unexpected HTTP status %d.", response.StatusCode),
		}}
	}

	var bidResp openrtb2.BidResponse
	if err := json.Unmarshal(response.Body, &bidResp); err != nil {
		return nil, []error{&errortypes.BadServerResponse{Message: "bad server body response"}}
	}

	bidderResponse := adapters.NewBidderResponse()
	if bidResp.Cur != "" {
		bidderResponse.Currency = bidResp.Cur
	}
	for _, seat := range bidResp.SeatBid {
		for i := range seat.Bid {
			if seat.Bid[i].Price <= 0 {
				continue
			}
			bid := seat.Bid[i]
			bidderResponse.Bids = append(bidderResponse.Bids, &adapters.TypedBid{
				Bid:     &bid,
				BidType: openrtb_ext.BidTypeBanner,
			})
		}
	}
	return bidderResponse, nil
}

// parseImp accepts banner imps with a non-empty pid.
func parseImp(imp *openrtb2.Imp) (openrtb_ext.ExtImpNanoInteractive, error) {
	var params openrtb_ext.ExtImpNanoInteractive

	if imp.Banner == nil {
		return params, &errortypes.BadInput{
			Message: fmt.Sprintf("invalid MediaType. NanoInteractive only supports Banner type. ImpID=%s", imp.ID),
		}
	}

	var bidderExt adapters.ExtImpBidder
	if err := json.Unmarshal(imp.Ext, &bidderExt); err != nil {
		return params, &errortypes.BadInput{Message: fmt.Sprintf("ext not provided; ImpID=%s", imp.ID)}
	}
	if err := json.Unmarshal(bidderExt.Bidder, &params); err != nil {
		return params, &errortypes.BadInput{Message: fmt.Sprintf("ext.bidder not provided; ImpID=%s", imp.ID)}
	}
	if params.Pid == "" {
		return params, &errortypes.BadInput{Message: fmt.Sprintf("pid is empty; ImpID=%s", imp.ID)}
	}
	return params, nil
}
