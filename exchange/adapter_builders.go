package exchange

import (
	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/adapters/appnexus"
	"github.com/prebid/auction-core/adapters/grid"
	"github.com/prebid/auction-core/adapters/nanointeractive"
	"github.com/prebid/auction-core/openrtb_ext"
)

// newAdapterBuilders is the registry of every bidder this server can build, keyed by name.
func newAdapterBuilders() map[openrtb_ext.BidderName]adapters.Builder {
	return map[openrtb_ext.BidderName]adapters.Builder{
		openrtb_ext.BidderAppnexus:        appnexus.Builder,
		openrtb_ext.BidderGrid:            grid.Builder,
		openrtb_ext.BidderNanoInteractive: nanointeractive.Builder,
	}
}
