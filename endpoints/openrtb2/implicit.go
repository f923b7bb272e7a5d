package openrtb2

import (
	"net/http"

	"github.com/prebid/auction-core/util/httputil"
	"github.com/prebid/auction-core/util/iputil"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// setImplicitInfo fills the device and imp fields a publisher page leaves out but the HTTP
// request itself reveals. Values already in the request are never overwritten.
func setImplicitInfo(httpReq *http.Request, req *openrtb2.BidRequest) {
	if req.Device == nil {
		req.Device = &openrtb2.Device{}
	}
	if req.Device.UA == "" {
		req.Device.UA = httpReq.Header.Get("User-Agent")
	}
	if req.Device.IP == "" && req.Device.IPv6 == "" {
		ip, ver := httputil.FindClientIP(httpReq)
		switch ver {
		case iputil.IPv4:
			req.Device.IP = ip.String()
		case iputil.IPv6:
			req.Device.IPv6 = ip.String()
		}
	}

	if httputil.IsSecure(httpReq) {
		secure := int8(1)
		for i := range req.Imp {
			if req.Imp[i].Secure == nil {
				req.Imp[i].Secure = &secure
			}
		}
	}
}
