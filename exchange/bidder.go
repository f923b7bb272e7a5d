package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/golang/glog"
	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
	"golang.org/x/net/context/ctxhttp"
)

// AdaptedBidder is a bidder as the exchange sees it: one call in, one response out. Work that
// needs a single bidder lives behind this interface; work that needs every bidder's response
// lives in the exchange.
type AdaptedBidder interface {
	// requestBid may return bids and errors together. Errors explain why the result is partial,
	// for example a failed connection, unsupported imps, an expired deadline or an unreadable
	// response, and are shown to the caller.
	requestBid(ctx context.Context, bidderRequest BidderRequest, reqInfo *adapters.ExtraRequestInfo) (*entities.BidderResponse, []error)
}

// BidderRequest is the request prepared for one bidder plus the labels its metrics use.
type BidderRequest struct {
	BidRequest   *openrtb2.BidRequest
	BidderName   openrtb_ext.BidderName
	BidderLabels metrics.AdapterLabels
}

const defaultCurrency = "USD"

// AdaptBidder puts the HTTP transport around an adapters.Bidder.
func AdaptBidder(bidder adapters.Bidder, client *http.Client, me metrics.MetricsEngine, name openrtb_ext.BidderName) AdaptedBidder {
	return &bidderAdapter{
		bidder: bidder,
		name:   name,
		client: client,
		me:     me,
	}
}

type bidderAdapter struct {
	bidder adapters.Bidder
	name   openrtb_ext.BidderName
	client *http.Client
	me     metrics.MetricsEngine
}

type httpCallInfo struct {
	request  *adapters.RequestData
	response *adapters.ResponseData
	err      error
}

func (b *bidderAdapter) requestBid(ctx context.Context, bidderRequest BidderRequest, reqInfo *adapters.ExtraRequestInfo) (*entities.BidderResponse, []error) {
	reqData, errs := b.bidder.MakeRequests(bidderRequest.BidRequest, reqInfo)
	if len(reqData) == 0 {
		if len(errs) == 0 {
			errs = append(errs, &errortypes.FailedToRequestBids{Message: "The adapter failed to generate any bid requests, but also failed to generate an error explaining why"})
		}
		return nil, errs
	}

	calls := make(chan *httpCallInfo, len(reqData))
	if len(reqData) == 1 {
		calls <- b.doRequest(ctx, reqData[0])
	} else {
		for _, data := range reqData {
			go func(data *adapters.RequestData) {
				calls <- b.doRequest(ctx, data)
			}(data)
		}
	}

	response := &entities.BidderResponse{
		Bidder:   bidderRequest.BidderName,
		Bids:     make([]*entities.PbsOrtbBid, 0, len(reqData)),
		Currency: defaultCurrency,
	}

	// Every call is drained so bids from calls that finished before the deadline are kept.
	for range reqData {
		call := <-calls
		if call.err != nil {
			errs = append(errs, call.err)
			continue
		}

		bidResponse, bidErrs := b.bidder.MakeBids(bidderRequest.BidRequest, call.request, call.response)
		errs = append(errs, bidErrs...)
		if bidResponse != nil {
			appendBids(response, bidResponse)
		}
	}

	return response, errs
}

// appendBids copies the typed bids of one call into the bidder's response. A currency named by the
// call replaces the default.
func appendBids(response *entities.BidderResponse, bidResponse *adapters.BidderResponse) {
	if bidResponse.Currency != "" {
		response.Currency = bidResponse.Currency
	}
	for _, typed := range bidResponse.Bids {
		response.Bids = append(response.Bids, &entities.PbsOrtbBid{
			Bid:          typed.Bid,
			BidMeta:      typed.BidMeta,
			BidType:      typed.BidType,
			BidVideo:     typed.BidVideo,
			DealPriority: typed.DealPriority,
			Seat:         typed.Seat,
		})
	}
}

func (b *bidderAdapter) doRequest(ctx context.Context, req *adapters.RequestData) *httpCallInfo {
	call := &httpCallInfo{request: req}

	httpReq, err := http.NewRequest(req.Method, req.Uri, bytes.NewReader(req.Body))
	if err != nil {
		call.err = err
		return call
	}
	if req.Headers != nil {
		httpReq.Header = req.Headers.Clone()
	}

	httpResp, err := ctxhttp.Do(ctx, b.client, httpReq)
	if err != nil {
		glog.V(2).Infof("Bidder %s: request to %s failed: %v", b.name, req.Uri, err)
		call.err = asTimeout(ctx, err)
		return call
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		call.err = asTimeout(ctx, err)
		return call
	}

	call.response = &adapters.ResponseData{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 500 {
		call.err = &errortypes.BadServerResponse{
			Message: fmt.Sprintf("Server responded with failure status: %d. Set request.test = 1 for debugging info.", httpResp.StatusCode),
		}
	}
	return call
}

// asTimeout reports err as a Timeout when the auction deadline caused it.
func asTimeout(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &errortypes.Timeout{Message: ctxErr.Error()}
	}
	return err
}
