package exchange

import (
	"fmt"
	"net/http"

	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
)

// BuildAdapters builds every enabled bidder and wraps it for use by the exchange.
func BuildAdapters(client *http.Client, cfg *config.Configuration, infos config.BidderInfos, me metrics.MetricsEngine) (map[openrtb_ext.BidderName]AdaptedBidder, []error) {
	server := config.Server{ExternalUrl: cfg.ExternalURL, DataCenter: cfg.DataCenter}
	bidders, errs := buildBidders(cfg.Adapters, infos, newAdapterBuilders(), server)

	if len(errs) > 0 {
		return nil, errs
	}

	adapted := make(map[openrtb_ext.BidderName]AdaptedBidder, len(bidders))
	for name, bidder := range bidders {
		adapted[name] = addValidatedBidderMiddleware(AdaptBidder(bidder, client, me, name))
	}
	return adapted, nil
}

// buildBidders runs the registered builder of every enabled bidder in infos. Unknown names and
// missing builders are errors even for disabled bidders; builder failures are not.
func buildBidders(hostConfig map[string]config.Adapter, infos config.BidderInfos, builders map[openrtb_ext.BidderName]adapters.Builder, server config.Server) (map[openrtb_ext.BidderName]adapters.Bidder, []error) {
	bidders := make(map[openrtb_ext.BidderName]adapters.Bidder)
	var errs []error

	for rawName, info := range infos {
		name, known := openrtb_ext.NormalizeBidderName(rawName)
		if !known {
			errs = append(errs, fmt.Errorf("%v: unknown bidder", rawName))
			continue
		}
		build, registered := builders[name]
		if !registered {
			errs = append(errs, fmt.Errorf("%v: builder not registered", rawName))
			continue
		}

		adapterCfg := buildAdapterInfo(info, hostConfig[string(name)])
		if info.Disabled || adapterCfg.Disabled {
			continue
		}

		bidder, err := build(name, adapterCfg, server)
		if err != nil {
			errs = append(errs, fmt.Errorf("%v: %v", rawName, err))
			continue
		}
		bidders[name] = adapters.BuildInfoAwareBidder(bidder, info)
	}
	return bidders, errs
}

// buildAdapterInfo layers the host configuration of a bidder over its static info.
func buildAdapterInfo(bidderInfo config.BidderInfo, hostConfig config.Adapter) config.Adapter {
	adapter := hostConfig
	if adapter.Endpoint == "" {
		adapter.Endpoint = bidderInfo.Endpoint
	}
	return adapter
}

// GetActiveBidders lists the known bidders enabled both in their info file and by the host.
func GetActiveBidders(cfg *config.Configuration, infos config.BidderInfos) map[string]openrtb_ext.BidderName {
	active := make(map[string]openrtb_ext.BidderName)
	for name, info := range infos {
		if info.Disabled || cfg.Adapters[name].Disabled {
			continue
		}
		if bidderName, ok := openrtb_ext.NormalizeBidderName(name); ok {
			active[name] = bidderName
		}
	}
	return active
}
