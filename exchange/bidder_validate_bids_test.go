package exchange

import (
	"context"
	"testing"

	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
)

// mockAdaptedBidder returns a fixed response from requestBid.
type mockAdaptedBidder struct {
	response *entities.BidderResponse
	errs     []error
}

func (b *mockAdaptedBidder) requestBid(ctx context.Context, bidderRequest BidderRequest, reqInfo *adapters.ExtraRequestInfo) (*entities.BidderResponse, []error) {
	return b.response, b.errs
}

func TestAllValidBids(t *testing.T) {
	bidder := addValidatedBidderMiddleware(&mockAdaptedBidder{
		response: &entities.BidderResponse{
			Bids: []*entities.PbsOrtbBid{
				{Bid: &openrtb2.Bid{ID: "one-bid", ImpID: "imp1", Price: 0.45}},
				{Bid: &openrtb2.Bid{ID: "deal-bid", ImpID: "imp1", DealID: "deal", Price: 0}},
			},
		},
	})

	response, errs := bidder.requestBid(context.Background(), newBidderRequest(openrtb_ext.BidderGrid), &adapters.ExtraRequestInfo{})

	assert.Len(t, response.Bids, 2)
	assert.Empty(t, errs)
}

func TestAllBadBids(t *testing.T) {
	bidder := addValidatedBidderMiddleware(&mockAdaptedBidder{
		response: &entities.BidderResponse{
			Bids: []*entities.PbsOrtbBid{
				nil,
				{Bid: &openrtb2.Bid{ImpID: "imp1", Price: 1}},
				{Bid: &openrtb2.Bid{ID: "no-imp", Price: 1}},
				{Bid: &openrtb2.Bid{ID: "other-imp", ImpID: "imp9", Price: 1}},
				{Bid: &openrtb2.Bid{ID: "negative", ImpID: "imp1", Price: -1}},
				{Bid: &openrtb2.Bid{ID: "free", ImpID: "imp1", Price: 0}},
			},
		},
	})

	response, errs := bidder.requestBid(context.Background(), newBidderRequest(openrtb_ext.BidderGrid), &adapters.ExtraRequestInfo{})

	assert.Empty(t, response.Bids)
	assert.Equal(t, []error{
		&errortypes.BadServerResponse{Message: "Empty bid object submitted."},
		&errortypes.BadServerResponse{Message: "Bid missing required field 'id'"},
		&errortypes.BadServerResponse{Message: `Bid "no-imp" missing required field 'impid'`},
		&errortypes.BadServerResponse{Message: `Bid "other-imp" references unknown impression "imp9"`},
		&errortypes.BadServerResponse{Message: `Bid "negative" does not contain a positive (or zero if there is a deal) 'price'`},
		&errortypes.BadServerResponse{Message: `Bid "free" does not contain positive 'price' which is required since there is no deal set for this bid`},
	}, errs)
}

func TestMixedBids(t *testing.T) {
	bidder := addValidatedBidderMiddleware(&mockAdaptedBidder{
		response: &entities.BidderResponse{
			Bids: []*entities.PbsOrtbBid{
				{Bid: &openrtb2.Bid{ID: "good", ImpID: "imp1", Price: 0.45}},
				{Bid: &openrtb2.Bid{ID: "bad", ImpID: "unknown", Price: 1}},
			},
		},
		errs: []error{&errortypes.BadInput{Message: "from the adapter"}},
	})

	response, errs := bidder.requestBid(context.Background(), newBidderRequest(openrtb_ext.BidderGrid), &adapters.ExtraRequestInfo{})

	assert.Len(t, response.Bids, 1)
	assert.Equal(t, "good", response.Bids[0].Bid.ID)
	assert.Len(t, errs, 2)
}

func TestCurrencyBids(t *testing.T) {
	testCases := []struct {
		description         string
		brqCur              []string
		brpCur              string
		expectedValidBid    bool
		expectedErrorString string
	}{
		{description: "default-both", expectedValidBid: true},
		{description: "allowed-explicit", brqCur: []string{"EUR", "USD"}, brpCur: "USD", expectedValidBid: true},
		{description: "default-response-allowed", brqCur: []string{"USD"}, expectedValidBid: true},
		{description: "not-allowed", brqCur: []string{"EUR"}, brpCur: "USD", expectedErrorString: "Bid currency is not allowed. Was 'USD', wants: ['EUR']"},
		{description: "invalid-code", brpCur: "BADCUR", expectedErrorString: "Bid currency 'BADCUR' is not a valid ISO 4217 code"},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			bidder := addValidatedBidderMiddleware(&mockAdaptedBidder{
				response: &entities.BidderResponse{
					Currency: test.brpCur,
					Bids:     []*entities.PbsOrtbBid{{Bid: &openrtb2.Bid{ID: "one", ImpID: "imp1", Price: 1}}},
				},
			})
			bidderReq := newBidderRequest(openrtb_ext.BidderGrid)
			bidderReq.BidRequest.Cur = test.brqCur

			response, errs := bidder.requestBid(context.Background(), bidderReq, &adapters.ExtraRequestInfo{})

			if test.expectedValidBid {
				assert.Len(t, response.Bids, 1)
				assert.Empty(t, errs)
			} else {
				assert.Empty(t, response.Bids)
				if assert.Len(t, errs, 1) {
					assert.Equal(t, test.expectedErrorString, errs[0].Error())
				}
			}
		})
	}
}

func TestNilResponse(t *testing.T) {
	bidder := addValidatedBidderMiddleware(&mockAdaptedBidder{errs: []error{&errortypes.Timeout{Message: "late"}}})

	response, errs := bidder.requestBid(context.Background(), newBidderRequest(openrtb_ext.BidderGrid), &adapters.ExtraRequestInfo{})

	assert.Nil(t, response)
	assert.Len(t, errs, 1)
}

func TestValidateBid(t *testing.T) {
	impIDs := map[string]struct{}{"imp-1": {}}

	testCases := []struct {
		description string
		bid         *entities.PbsOrtbBid
		expectedErr string
	}{
		{description: "valid", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", ImpID: "imp-1", Price: 1.5}}},
		{description: "zero-price-deal", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", ImpID: "imp-1", DealID: "d"}}},
		{description: "nil", bid: nil, expectedErr: "Empty bid object submitted."},
		{description: "nil-bid", bid: &entities.PbsOrtbBid{}, expectedErr: "Empty bid object submitted."},
		{description: "no-id", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ImpID: "imp-1", Price: 1}}, expectedErr: "Bid missing required field 'id'"},
		{description: "no-impid", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", Price: 1}}, expectedErr: `Bid "b" missing required field 'impid'`},
		{description: "unknown-imp", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", ImpID: "imp-9", Price: 1}}, expectedErr: `Bid "b" references unknown impression "imp-9"`},
		{description: "negative-price", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", ImpID: "imp-1", Price: -1}}, expectedErr: `Bid "b" does not contain a positive (or zero if there is a deal) 'price'`},
		{description: "zero-price-no-deal", bid: &entities.PbsOrtbBid{Bid: &openrtb2.Bid{ID: "b", ImpID: "imp-1"}}, expectedErr: `Bid "b" does not contain positive 'price' which is required since there is no deal set for this bid`},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			err := validateBid(test.bid, impIDs)
			if test.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, test.expectedErr)
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	testCases := []struct {
		description string
		allowed     []string
		bidCurrency string
		expectedErr string
	}{
		{description: "defaults-both-sides"},
		{description: "usd-allowed-by-default", bidCurrency: "USD"},
		{description: "case-insensitive-request", allowed: []string{"eur"}, bidCurrency: "EUR"},
		{description: "not-iso", bidCurrency: "DOLLARS", expectedErr: "Bid currency 'DOLLARS' is not a valid ISO 4217 code"},
		{description: "not-allowed", allowed: []string{"EUR", "GBP"}, bidCurrency: "USD", expectedErr: "Bid currency is not allowed. Was 'USD', wants: ['EUR', 'GBP']"},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			err := validateCurrency(test.allowed, test.bidCurrency)
			if test.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, test.expectedErr)
			}
		})
	}
}
