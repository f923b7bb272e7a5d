package ccpa

import (
	"github.com/prebid/auction-core/privacy/gpp"
	gppConstants "github.com/prebid/go-gpp/constants"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/tidwall/gjson"
)

// Policy represents the CCPA regulatory information from an OpenRTB bid request.
type Policy struct {
	Consent       string
	NoSaleBidders []string
}

// ReadFromRequest extracts the CCPA regulatory information from an OpenRTB bid request. The consent
// comes from regs.us_privacy, or from the GPP USP v1 section when regs.us_privacy is empty. The GPP
// errors are returned for the caller to report; they never hide regs.us_privacy.
func ReadFromRequest(req *openrtb2.BidRequest) (Policy, []error) {
	if req == nil {
		return Policy{}, nil
	}

	var policy Policy
	var errs []error

	if req.Regs != nil {
		policy.Consent = req.Regs.USPrivacy
		if policy.Consent == "" && req.Regs.GPP != "" {
			gppPolicy := gpp.ReadFromRequestRegs(req.Regs.GPP, req.Regs.GPPSID)
			container, parseErrs := gppPolicy.Parse()
			errs = append(errs, parseErrs...)
			if value, ok := gppPolicy.SectionValue(container, gppConstants.SectionUSPV1); ok {
				policy.Consent = value
			}
		}
	}

	if len(req.Ext) > 0 {
		gjson.GetBytes(req.Ext, "prebid.nosale").ForEach(func(_, value gjson.Result) bool {
			policy.NoSaleBidders = append(policy.NoSaleBidders, value.String())
			return true
		})
	}

	return policy, errs
}
