package privacy

import (
	"github.com/prebid/auction-core/config"
	"github.com/prebid/openrtb/v20/openrtb2"
)

const (
	defaultIPv4PrefixBits = 24
	defaultIPv6PrefixBits = 56
)

// Enforcement represents the redactions to perform on a bid request before a bidder sees it.
type Enforcement struct {
	// UFPD removes user first party data and identifiers.
	UFPD bool
	// PreciseGeo rounds coordinates and masks IP addresses.
	PreciseGeo bool
	// DeviceIDs removes the device advertising and hardware identifiers.
	DeviceIDs bool
	// ScrubAll is the COPPA redaction.
	ScrubAll bool

	IPMasking config.IPMasking
}

// Any returns true if at least one redaction is required.
func (e Enforcement) Any() bool {
	return e.UFPD || e.PreciseGeo || e.DeviceIDs || e.ScrubAll
}

// Apply returns a redacted copy of bidRequest. The argument is left untouched.
func (e Enforcement) Apply(bidRequest *openrtb2.BidRequest) *openrtb2.BidRequest {
	if bidRequest == nil {
		return nil
	}

	reqCopy := *bidRequest
	if !e.Any() {
		return &reqCopy
	}

	reqCopy.Device = e.scrubDevice(bidRequest.Device)
	reqCopy.User = e.scrubUser(bidRequest.User)
	return &reqCopy
}

func (e Enforcement) scrubDevice(device *openrtb2.Device) *openrtb2.Device {
	if device == nil {
		return nil
	}

	deviceCopy := *device

	if e.DeviceIDs || e.ScrubAll {
		scrubDeviceIDs(&deviceCopy)
	}

	if e.PreciseGeo || e.ScrubAll {
		deviceCopy.IP = scrubIP(deviceCopy.IP, e.ipv4PrefixBits(), 32)
		deviceCopy.IPv6 = scrubIP(deviceCopy.IPv6, e.ipv6PrefixBits(), 128)
	}

	deviceCopy.Geo = e.scrubGeo(deviceCopy.Geo)
	return &deviceCopy
}

func (e Enforcement) scrubUser(user *openrtb2.User) *openrtb2.User {
	if user == nil {
		return nil
	}

	userCopy := *user

	if e.UFPD || e.ScrubAll {
		scrubUserIDs(&userCopy)
	}

	userCopy.Geo = e.scrubGeo(userCopy.Geo)
	return &userCopy
}

func (e Enforcement) scrubGeo(geo *openrtb2.Geo) *openrtb2.Geo {
	if e.ScrubAll {
		return scrubGeoFull(geo)
	}
	if e.PreciseGeo {
		return scrubGeoPrecision(geo)
	}
	return geo
}

func (e Enforcement) ipv4PrefixBits() int {
	if e.IPMasking.IPv4PrefixBits > 0 {
		return e.IPMasking.IPv4PrefixBits
	}
	return defaultIPv4PrefixBits
}

func (e Enforcement) ipv6PrefixBits() int {
	if e.IPMasking.IPv6PrefixBits > 0 {
		return e.IPMasking.IPv6PrefixBits
	}
	return defaultIPv6PrefixBits
}
