package exchange

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/openrtb/v20/openrtb2"
	goCurrency "golang.org/x/text/currency"
)

// addValidatedBidderMiddleware drops bids that do not fit the request they answer and reports each
// one as an error.
func addValidatedBidderMiddleware(bidder AdaptedBidder) AdaptedBidder {
	return &validatedBidder{bidder: bidder}
}

type validatedBidder struct {
	bidder AdaptedBidder
}

func (v *validatedBidder) requestBid(ctx context.Context, bidderRequest BidderRequest, reqInfo *adapters.ExtraRequestInfo) (*entities.BidderResponse, []error) {
	response, errs := v.bidder.requestBid(ctx, bidderRequest, reqInfo)
	return response, append(errs, removeInvalidBids(bidderRequest.BidRequest, response)...)
}

// removeInvalidBids filters response.Bids in place. A disallowed currency drops every bid.
func removeInvalidBids(request *openrtb2.BidRequest, response *entities.BidderResponse) []error {
	if response == nil || len(response.Bids) == 0 {
		return nil
	}

	if err := validateCurrency(request.Cur, response.Currency); err != nil {
		response.Bids = nil
		return []error{err}
	}

	impIDs := make(map[string]struct{}, len(request.Imp))
	for _, imp := range request.Imp {
		impIDs[imp.ID] = struct{}{}
	}

	var errs []error
	kept := response.Bids[:0]
	for _, bid := range response.Bids {
		if err := validateBid(bid, impIDs); err != nil {
			errs = append(errs, err)
			continue
		}
		kept = append(kept, bid)
	}
	response.Bids = kept
	return errs
}

// validateCurrency checks that the bid currency is an ISO 4217 code listed in request.cur. An
// empty currency on either side means USD.
func validateCurrency(allowed []string, bidCurrency string) error {
	if bidCurrency == "" {
		bidCurrency = defaultCurrency
	}
	unit, err := goCurrency.ParseISO(bidCurrency)
	if err != nil {
		return &errortypes.BadServerResponse{
			Message: fmt.Sprintf("Bid currency '%s' is not a valid ISO 4217 code", bidCurrency),
		}
	}

	if len(allowed) == 0 {
		allowed = []string{defaultCurrency}
	}
	if !slices.ContainsFunc(allowed, func(c string) bool { return strings.EqualFold(c, unit.String()) }) {
		return &errortypes.BadServerResponse{
			Message: fmt.Sprintf("Bid currency is not allowed. Was '%s', wants: ['%s']", unit, strings.Join(allowed, "', '")),
		}
	}
	return nil
}

// validateBid requires an id, a known impid and a positive price. A zero price is accepted only on
// a deal.
func validateBid(bid *entities.PbsOrtbBid, impIDs map[string]struct{}) error {
	if bid == nil || bid.Bid == nil {
		return &errortypes.BadServerResponse{Message: "Empty bid object submitted."}
	}

	b := bid.Bid
	var msg string
	switch _, knownImp := impIDs[b.ImpID]; {
	case b.ID == "":
		msg = "Bid missing required field 'id'"
	case b.ImpID == "":
		msg = fmt.Sprintf("Bid \"%s\" missing required field 'impid'", b.ID)
	case !knownImp:
		msg = fmt.Sprintf("Bid \"%s\" references unknown impression \"%s\"", b.ID, b.ImpID)
	case b.Price < 0:
		msg = fmt.Sprintf("Bid \"%s\" does not contain a positive (or zero if there is a deal) 'price'", b.ID)
	case b.Price == 0 && b.DealID == "":
		msg = fmt.Sprintf("Bid \"%s\" does not contain positive 'price' which is required since there is no deal set for this bid", b.ID)
	default:
		return nil
	}
	return &errortypes.BadServerResponse{Message: msg}
}
