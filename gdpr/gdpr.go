package gdpr

import (
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/openrtb_ext"
)

type Permissions interface {
	// Determines whether or not to send personal information to a bidder, or mask it out.
	//
	// If the consent string was nonsensical, the returned error will be an ErrorMalformedConsent
	// and the returned permissions are the most restrictive ones that still allow the bid request.
	AuctionActivitiesAllowed(bidder openrtb_ext.BidderName, gdprSignal Signal, consent string) (AuctionPermissions, error)
}

// NewPermissions builds the Permissions used for every auction. vendorIDs maps each bidder to its
// Global Vendor List id.
func NewPermissions(cfg config.GDPR, vendorIDs map[openrtb_ext.BidderName]uint16) Permissions {
	if !cfg.Enabled {
		return &AlwaysAllow{}
	}

	return &permissionsImpl{
		gdprDefaultValue: cfg.DefaultValue,
		vendorIDs:        vendorIDs,
	}
}

// An ErrorMalformedConsent will be returned by the Permissions interface if
// the consent string argument was the reason for the failure.
type ErrorMalformedConsent struct {
	Consent string
	Cause   error
}

func (e *ErrorMalformedConsent) Error() string {
	return "malformed consent string " + e.Consent + ": " + e.Cause.Error()
}
