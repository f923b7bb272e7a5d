package openrtb_ext

import (
	"strings"
)

// BidderName refers to a core bidder id or an alias id.
type BidderName string

// Names of the core bidders known to this server.
const (
	BidderAppnexus        BidderName = "appnexus"
	BidderGrid            BidderName = "grid"
	BidderNanoInteractive BidderName = "nanointeractive"
)

// CoreBidderNames returns a slice of all core bidders.
func CoreBidderNames() []BidderName {
	return []BidderName{
		BidderAppnexus,
		BidderGrid,
		BidderNanoInteractive,
	}
}

// BidderReservedAll is a reserved value used by the nosale list to exempt every bidder.
const BidderReservedAll BidderName = "*"

var bidderNameLookup = func() map[string]BidderName {
	lookup := make(map[string]BidderName)
	for _, name := range CoreBidderNames() {
		lookup[strings.ToLower(string(name))] = name
	}
	return lookup
}()

// NormalizeBidderName returns the normalized name of a core bidder. The lookup is case insensitive.
func NormalizeBidderName(name string) (BidderName, bool) {
	bidderName, exists := bidderNameLookup[strings.ToLower(name)]
	return bidderName, exists
}

func (name BidderName) String() string {
	return string(name)
}
