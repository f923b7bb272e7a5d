package gdpr

import (
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/go-gdpr/consentconstants"
)

type AuctionPermissions struct {
	AllowBidRequest bool
	PassGeo         bool
	PassID          bool
}

var AllowAll = AuctionPermissions{
	AllowBidRequest: true,
	PassGeo:         true,
	PassID:          true,
}

var AllowBidRequestOnly = AuctionPermissions{
	AllowBidRequest: true,
	PassGeo:         false,
	PassID:          false,
}

// AlwaysAllow is used when GDPR enforcement is turned off for the host.
type AlwaysAllow struct{}

func (a *AlwaysAllow) AuctionActivitiesAllowed(openrtb_ext.BidderName, Signal, string) (AuctionPermissions, error) {
	return AllowAll, nil
}

type permissionsImpl struct {
	gdprDefaultValue string
	vendorIDs        map[openrtb_ext.BidderName]uint16
}

// personalizationPurposes are the TCF purposes that justify forwarding user identifiers.
var personalizationPurposes = []consentconstants.Purpose{2, 3, 4, 5, 6, 7, 8, 9, 10}

const preciseGeoSpecialFeature = 1

func (p *permissionsImpl) AuctionActivitiesAllowed(bidder openrtb_ext.BidderName, gdprSignal Signal, consent string) (AuctionPermissions, error) {
	if SignalNormalize(gdprSignal, p.gdprDefaultValue) == SignalNo {
		return AllowAll, nil
	}

	if consent == "" {
		return AllowBidRequestOnly, nil
	}

	pc, err := parseConsent(consent)
	if err != nil {
		return AllowBidRequestOnly, err
	}

	vendorID, ok := p.vendorIDs[bidder]
	if !ok || vendorID == 0 {
		return AllowBidRequestOnly, nil
	}

	perms := AuctionPermissions{AllowBidRequest: true}
	perms.PassGeo = pc.consentMeta.SpecialFeatureOptIn(preciseGeoSpecialFeature)
	if pc.consentMeta.VendorConsent(vendorID) {
		for _, purpose := range personalizationPurposes {
			if pc.consentMeta.PurposeAllowed(purpose) {
				perms.PassID = true
				break
			}
		}
	}
	return perms, nil
}
