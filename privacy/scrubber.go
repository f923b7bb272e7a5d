package privacy

import (
	"math"
	"net"

	"github.com/prebid/auction-core/util/iputil"
	"github.com/prebid/auction-core/util/ptrutil"
	"github.com/prebid/openrtb/v20/openrtb2"
)

func scrubDeviceIDs(device *openrtb2.Device) {
	device.DIDMD5 = ""
	device.DIDSHA1 = ""
	device.DPIDMD5 = ""
	device.DPIDSHA1 = ""
	device.IFA = ""
	device.MACMD5 = ""
	device.MACSHA1 = ""
}

func scrubUserIDs(user *openrtb2.User) {
	user.ID = ""
	user.BuyerUID = ""
	user.Yob = 0
	user.Gender = ""
	user.Keywords = ""
	user.KwArray = nil
	user.Data = nil
	user.EIDs = nil
}

// scrubIP keeps the first maskBits of an address that is bits long. Empty or unparsable addresses
// come back empty.
func scrubIP(ip string, maskBits, bits int) string {
	parsed, ver := iputil.ParseIP(ip)
	if ver == iputil.IPvUnknown {
		return ""
	}
	masked := parsed.Mask(net.CIDRMask(maskBits, bits))
	if masked == nil {
		return ""
	}
	return masked.String()
}

func scrubGeoFull(geo *openrtb2.Geo) *openrtb2.Geo {
	if geo == nil {
		return nil
	}
	return &openrtb2.Geo{}
}

func scrubGeoPrecision(geo *openrtb2.Geo) *openrtb2.Geo {
	if geo == nil {
		return nil
	}

	geoCopy := *geo
	geoCopy.Lat = roundCoordinate(geo.Lat)
	geoCopy.Lon = roundCoordinate(geo.Lon)
	return &geoCopy
}

func roundCoordinate(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptrutil.ToPtr(math.Round(*v*100) / 100)
}
