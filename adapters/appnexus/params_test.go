package appnexus

import (
	"encoding/json"
	"testing"

	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParamsSchema checks static/bidder-params/appnexus.json, the contract for imp[].ext.prebid.bidder.appnexus.
func TestParamsSchema(t *testing.T) {
	validator, err := openrtb_ext.NewBidderParamsValidator("../../static/bidder-params")
	require.NoError(t, err)

	testCases := []struct {
		description string
		params      string
		valid       bool
	}{
		{description: "placement-id", params: `{"placementId":10433394}`, valid: true},
		{description: "placement-id-with-position", params: `{"placementId":10433394,"position":"below"}`, valid: true},
		{description: "member-and-inv-code", params: `{"member":"958","invCode":"abc"}`, valid: true},
		{description: "keywords", params: `{"placementId":1,"keywords":[{"key":"genre","value":["rock","pop"]}]}`, valid: true},
		{description: "keyword-without-values", params: `{"placementId":1,"keywords":[{"key":"genre"}]}`, valid: true},
		{description: "reserve-and-payment-rule", params: `{"placementId":1,"reserve":1.25,"usePaymentRule":true}`, valid: true},
		{description: "empty-object", params: `{}`},
		{description: "not-an-object", params: `[1]`},
		{description: "placement-id-as-string", params: `{"placementId":"10433394"}`},
		{description: "member-without-inv-code", params: `{"member":"958"}`},
		{description: "inv-code-wrong-type", params: `{"member":"958","invCode":7}`},
		{description: "unknown-position", params: `{"placementId":1,"position":"middle"}`},
		{description: "reserve-as-string", params: `{"placementId":1,"reserve":"1.25"}`},
		{description: "empty-keywords", params: `{"placementId":1,"keywords":[]}`},
		{description: "keyword-without-key", params: `{"placementId":1,"keywords":[{"value":["rock"]}]}`},
		{description: "keyword-empty-values", params: `{"placementId":1,"keywords":[{"key":"genre","value":[]}]}`},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			err := validator.Validate(openrtb_ext.BidderAppnexus, json.RawMessage(test.params))
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
