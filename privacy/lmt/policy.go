package lmt

import (
	"github.com/prebid/openrtb/v20/openrtb2"
)

const trackingRestricted int8 = 1

// Policy is the Limit Ad Tracking signal of a bid request. It applies to every bidder alike.
type Policy struct {
	Signal *int8
}

// ReadFromRequest extracts device.lmt.
func ReadFromRequest(req *openrtb2.BidRequest) Policy {
	if req == nil || req.Device == nil {
		return Policy{}
	}
	return Policy{Signal: req.Device.Lmt}
}

// Restricted reports whether the device asked for tracking to be limited. No signal means unrestricted.
func (p Policy) Restricted() bool {
	return p.Signal != nil && *p.Signal == trackingRestricted
}
