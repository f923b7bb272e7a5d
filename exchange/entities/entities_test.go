package entities

import (
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
)

func TestNewCategoryMappingResult(t *testing.T) {
	bid := &PbsOrtbBid{Bid: &openrtb2.Bid{ID: "bid1", ImpID: "imp1", Price: 1}}

	testCases := []struct {
		description string
		responses   []*BidderResponse
	}{
		{
			description: "nil",
			responses:   nil,
		},
		{
			description: "empty",
			responses:   []*BidderResponse{},
		},
		{
			description: "one-bidder",
			responses: []*BidderResponse{
				{Bidder: "grid", Bids: []*PbsOrtbBid{bid}, Currency: "USD"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			result := NewCategoryMappingResult(test.responses)

			assert.NotNil(t, result.BidCategory)
			assert.Empty(t, result.BidCategory)
			assert.NotNil(t, result.BidSatisfiesPriority)
			assert.Empty(t, result.BidSatisfiesPriority)
			assert.NotNil(t, result.Errors)
			assert.Empty(t, result.Errors)
			assert.Equal(t, test.responses, result.BidderResponses)
		})
	}
}

func TestCategoryMappingResultAccessors(t *testing.T) {
	mapped := &PbsOrtbBid{Bid: &openrtb2.Bid{ID: "mapped"}}
	unmapped := &PbsOrtbBid{Bid: &openrtb2.Bid{ID: "unmapped"}}

	result := NewCategoryMappingResult(nil)
	result.BidCategory[mapped] = "IAB1-1"
	result.BidSatisfiesPriority[mapped] = true

	assert.Equal(t, "IAB1-1", result.Category(mapped))
	assert.True(t, result.SatisfiesPriority(mapped))
	assert.Equal(t, "", result.Category(unmapped))
	assert.False(t, result.SatisfiesPriority(unmapped))
}
