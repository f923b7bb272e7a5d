package exchange

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/privacy"
	"github.com/prebid/auction-core/stored_requests"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// ErrNoAdapters is returned by HoldAuction when the server has no bidder configured.
var ErrNoAdapters = &errortypes.NoAdapters{Message: "no bidder adapters are configured"}

// Exchange runs Auctions. Implementations must be threadsafe, and will be shared across many goroutines.
type Exchange interface {
	// HoldAuction executes an OpenRTB v2.6 Auction.
	HoldAuction(ctx context.Context, r *AuctionRequest) (*entities.CategoryMappingResult, error)
}

// PrivacyResolver decides, per bidder, what a bidder may be sent.
type PrivacyResolver interface {
	Resolve(req *openrtb2.BidRequest, bidders []openrtb_ext.BidderName) map[openrtb_ext.BidderName]privacy.Result
}

type exchange struct {
	adapterMap        map[openrtb_ext.BidderName]AdaptedBidder
	me                metrics.MetricsEngine
	privacy           PrivacyResolver
	categoriesFetcher stored_requests.CategoryFetcher
	timeouts          config.AuctionTimeouts
	gracePeriod       time.Duration
	lookupWorkers     int
	clock             clock.Clock
}

// AuctionRequest holds the bid request for the auction
// and all other information needed to process an auction request
type AuctionRequest struct {
	BidRequest *openrtb2.BidRequest
	Account    string
	// CategoryDedupe turns on category mapping and deduplication. Nil leaves bids untouched.
	CategoryDedupe *CategoryDedupeConfig
	StartTime      time.Time
}

// bidResponseWrapper is what a bidder goroutine hands back to the auction.
type bidResponseWrapper struct {
	index    int
	response *entities.BidderResponse
}

func NewExchange(adapters map[openrtb_ext.BidderName]AdaptedBidder, cfg *config.Configuration, metricsEngine metrics.MetricsEngine, privacyResolver PrivacyResolver, categoriesFetcher stored_requests.CategoryFetcher) Exchange {
	return &exchange{
		adapterMap:        adapters,
		me:                metricsEngine,
		privacy:           privacyResolver,
		categoriesFetcher: categoriesFetcher,
		timeouts:          cfg.AuctionTimeouts,
		gracePeriod:       cfg.Auction.GracePeriod(),
		lookupWorkers:     cfg.CategoryMapping.MaxLookupWorkers,
		clock:             clock.New(),
	}
}

func (e *exchange) HoldAuction(ctx context.Context, r *AuctionRequest) (*entities.CategoryMappingResult, error) {
	if len(e.adapterMap) == 0 {
		return nil, ErrNoAdapters
	}
	if r == nil || r.BidRequest == nil {
		return nil, &errortypes.BadInput{Message: "request is missing"}
	}
	bidRequest := r.BidRequest
	if len(bidRequest.Imp) == 0 {
		return nil, &errortypes.BadInput{Message: "request.imp must contain at least one element."}
	}

	bidders, impsByBidder, err := splitImps(bidRequest.Imp)
	if err != nil {
		return nil, err
	}
	if len(bidders) == 0 {
		return nil, &errortypes.BadInput{Message: "request.imp[i].ext.prebid.bidder must reference at least one bidder."}
	}

	liveBidders := make([]openrtb_ext.BidderName, 0, len(bidders))
	for _, bidder := range bidders {
		if _, ok := e.adapterMap[bidder]; ok {
			liveBidders = append(liveBidders, bidder)
		} else {
			glog.V(2).Infof("Auction for account %q references bidder %s which is not configured", r.Account, bidder)
		}
	}
	if len(liveBidders) == 0 {
		return entities.NewCategoryMappingResult([]*entities.BidderResponse{}), nil
	}

	privacyResults := e.privacy.Resolve(bidRequest, liveBidders)
	e.me.RecordRequestPrivacy(privacyLabels(privacyResults))

	bidderRequests := buildBidderRequests(bidRequest, liveBidders, impsByBidder, privacyResults)

	auctionCtx, cancel := e.makeAuctionContext(ctx, bidRequest.TMax)
	defer cancel()

	responses := e.getAllBids(auctionCtx, bidderRequests, privacyResults)

	dedupeCfg := r.CategoryDedupe
	if dedupeCfg != nil {
		cfgCopy := *dedupeCfg
		if cfgCopy.DealTiers == nil {
			cfgCopy.DealTiers = getDealTiers(bidRequest)
		}
		if cfgCopy.LookupWorkers <= 0 {
			cfgCopy.LookupWorkers = e.lookupWorkers
		}
		dedupeCfg = &cfgCopy
	}

	result := applyCategoryMapping(ctx, dedupeCfg, responses, e.categoriesFetcher)
	e.recordCategoryRejections(responses, result)
	return result, nil
}

// fallbackAuctionTimeout bounds auctions when neither tmax nor the host timeouts set a deadline.
const fallbackAuctionTimeout = time.Second

// makeAuctionContext bounds ctx by the request's tmax, limited by the host timeouts. Every auction
// gets a deadline.
func (e *exchange) makeAuctionContext(ctx context.Context, tmax int64) (context.Context, context.CancelFunc) {
	timeout := e.timeouts.LimitAuctionTimeout(time.Duration(tmax) * time.Millisecond)
	if timeout <= 0 {
		timeout = fallbackAuctionTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// getAllBids sends the requests to every bidder and gathers one response per bidder, in the order
// of bidderRequests. A bidder which has not reported once the deadline and the grace period have
// passed is abandoned with a timeout.
func (e *exchange) getAllBids(ctx context.Context, bidderRequests []BidderRequest, privacyResults map[openrtb_ext.BidderName]privacy.Result) []*entities.BidderResponse {
	// Buffered so an abandoned bidder can still report without blocking.
	chBids := make(chan *bidResponseWrapper, len(bidderRequests))

	for i, bidder := range bidderRequests {
		bidderRunner := e.recoverSafely(bidderRequests, func(index int, bidderRequest BidderRequest) {
			name := bidderRequest.BidderName
			brw := &bidResponseWrapper{index: index}
			// Defer basic metrics to insure we capture them after all the values have been set
			defer func() {
				e.me.RecordAdapterRequest(bidderRequest.BidderLabels)
			}()
			start := e.clock.Now()

			privacyResult := privacyResults[name]
			reqInfo := adapters.NewExtraRequestInfo(privacyResult)
			response, errs := e.adapterMap[name].requestBid(ctx, bidderRequest, &reqInfo)
			elapsed := e.clock.Since(start)

			if response == nil {
				response = &entities.BidderResponse{
					Bids:     make([]*entities.PbsOrtbBid, 0),
					Currency: defaultCurrency,
				}
			}
			response.Bidder = name
			response.ResponseTimeMillis = int(elapsed / time.Millisecond)
			response.Errors = append(append(make([]error, 0, len(privacyResult.Errors)+len(errs)), privacyResult.Errors...), errs...)

			bidderRequest.BidderLabels.AdapterBids = bidsToMetric(response.Bids)
			bidderRequest.BidderLabels.AdapterErrors = errorsToMetric(errs)
			e.me.RecordAdapterTime(bidderRequest.BidderLabels, elapsed)
			for _, bid := range response.Bids {
				e.me.RecordAdapterPrice(bidderRequest.BidderLabels, bid.Bid.Price)
				e.me.RecordAdapterBidReceived(bidderRequest.BidderLabels, bid.BidType, bid.Bid.AdM != "")
			}

			brw.response = response
			chBids <- brw
		}, chBids)
		go bidderRunner(i, bidder)
	}

	var abandon <-chan time.Time
	if deadline, ok := ctx.Deadline(); ok {
		timer := e.clock.Timer(deadline.Sub(e.clock.Now()) + e.gracePeriod)
		defer timer.Stop()
		abandon = timer.C
	}

	responses := make([]*entities.BidderResponse, len(bidderRequests))
wait:
	for received := 0; received < len(bidderRequests); received++ {
		select {
		case brw := <-chBids:
			responses[brw.index] = brw.response
		case <-abandon:
			break wait
		}
	}

	for i, response := range responses {
		if response != nil {
			continue
		}
		name := bidderRequests[i].BidderName
		glog.Warningf("Bidder %s did not respond within the auction deadline and was abandoned", name)
		e.me.RecordAdapterError(name, metrics.AdapterErrorTimeout)
		responses[i] = &entities.BidderResponse{
			Bidder:   name,
			Bids:     make([]*entities.PbsOrtbBid, 0),
			Currency: defaultCurrency,
			Errors:   []error{&errortypes.Timeout{Message: fmt.Sprintf("%s did not respond before the auction deadline", name)}},
		}
	}
	return responses
}

func (e *exchange) recoverSafely(bidderRequests []BidderRequest,
	inner func(int, BidderRequest),
	chBids chan *bidResponseWrapper) func(int, BidderRequest) {
	return func(index int, bidderRequest BidderRequest) {
		defer func() {
			if r := recover(); r != nil {

				allBidders := ""
				sb := strings.Builder{}
				for _, bidder := range bidderRequests {
					sb.WriteString(bidder.BidderName.String())
					sb.WriteString(",")
				}
				if sb.Len() > 0 {
					allBidders = sb.String()[:sb.Len()-1]
				}

				glog.Errorf("OpenRTB auction recovered panic from Bidder %s: %v. "+
					"All Bidders: %s, Stack trace is: %v",
					bidderRequest.BidderName, r, allBidders, string(debug.Stack()))
				e.me.RecordAdapterPanic(bidderRequest.BidderLabels)
				// Let the master request know that there is no data here
				chBids <- &bidResponseWrapper{
					index: index,
					response: &entities.BidderResponse{
						Bidder:   bidderRequest.BidderName,
						Bids:     make([]*entities.PbsOrtbBid, 0),
						Currency: defaultCurrency,
						Errors:   []error{&errortypes.FailedToRequestBids{Message: fmt.Sprintf("bidder %s failed unexpectedly", bidderRequest.BidderName)}},
					},
				}
			}
		}()
		inner(index, bidderRequest)
	}
}

// recordCategoryRejections counts, per bidder, the bids the category engine removed.
func (e *exchange) recordCategoryRejections(before []*entities.BidderResponse, result *entities.CategoryMappingResult) {
	if len(before) != len(result.BidderResponses) {
		return
	}
	for i, response := range before {
		for n := len(result.BidderResponses[i].Bids); n < len(response.Bids); n++ {
			e.me.RecordCategoryRejection(response.Bidder)
		}
	}
}

// privacyLabels summarizes the privacy outcome of an auction across its bidders.
func privacyLabels(results map[openrtb_ext.BidderName]privacy.Result) metrics.PrivacyLabels {
	var labels metrics.PrivacyLabels
	for _, result := range results {
		labels.CCPAProvided = labels.CCPAProvided || result.OriginPrivacy.USPrivacy != ""
		labels.COPPAEnforced = labels.COPPAEnforced || result.OriginPrivacy.COPPA
		labels.CCPAEnforced = labels.CCPAEnforced || result.Policies.CCPA
		labels.GDPREnforced = labels.GDPREnforced || result.Policies.GDPR
		labels.LMTEnforced = labels.LMTEnforced || result.Policies.LMT
	}
	return labels
}

func bidsToMetric(bids []*entities.PbsOrtbBid) metrics.AdapterBid {
	if len(bids) != 0 {
		return metrics.AdapterBidPresent
	}
	return metrics.AdapterBidNone
}

func errorsToMetric(errs []error) map[metrics.AdapterError]struct{} {
	if len(errs) == 0 {
		return nil
	}
	ret := make(map[metrics.AdapterError]struct{}, len(errs))
	var s struct{}
	for _, err := range errs {
		switch errortypes.ReadCode(err) {
		case errortypes.TimeoutErrorCode:
			ret[metrics.AdapterErrorTimeout] = s
		case errortypes.BadInputErrorCode:
			ret[metrics.AdapterErrorBadInput] = s
		case errortypes.BadServerResponseErrorCode:
			ret[metrics.AdapterErrorBadServerResponse] = s
		case errortypes.FailedToRequestBidsErrorCode:
			ret[metrics.AdapterErrorFailedToRequestBids] = s
		default:
			ret[metrics.AdapterErrorUnknown] = s
		}
	}
	return ret
}
