package openrtb_ext

import (
	"fmt"
	"strings"
)

// ExtImpAppnexus defines the contract for bidrequest.imp[i].ext.prebid.bidder.appnexus
type ExtImpAppnexus struct {
	PlacementId       int                    `json:"placementId"`
	InvCode           string                 `json:"invCode"`
	Member            string                 `json:"member"`
	Keywords          ExtImpAppnexusKeywords `json:"keywords"`
	TrafficSourceCode string                 `json:"trafficSourceCode"`
	Reserve           float64                `json:"reserve"`
	Position          string                 `json:"position"`
	UsePaymentRule    *bool                  `json:"usePaymentRule"`
}

// ExtImpAppnexusKeyVal defines the contract for bidrequest.imp[i].ext.prebid.bidder.appnexus.keywords[i]
type ExtImpAppnexusKeyVal struct {
	Key    string   `json:"key,omitempty"`
	Values []string `json:"value,omitempty"`
}

// ExtImpAppnexusKeywords is the list of key/value keywords sent to appnexus.
type ExtImpAppnexusKeywords []*ExtImpAppnexusKeyVal

// String renders the keywords the way the appnexus endpoint expects them: key=value pairs separated by commas.
func (ks ExtImpAppnexusKeywords) String() string {
	var pairs []string
	for _, kv := range ks {
		if kv == nil || kv.Key == "" {
			continue
		}
		if len(kv.Values) == 0 {
			pairs = append(pairs, kv.Key)
			continue
		}
		for _, val := range kv.Values {
			pairs = append(pairs, fmt.Sprintf("%s=%s", kv.Key, val))
		}
	}
	return strings.Join(pairs, ",")
}
