package privacy

import (
	"github.com/prebid/auction-core/gdpr"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// Privacy holds the privacy signals of a bid request.
type Privacy struct {
	GDPRSignal gdpr.Signal
	Consent    string
	USPrivacy  string
	COPPA      bool
	LMT        bool
	GPP        string
	GPPSIDs    []int8
}

// readPrivacy copies the signals exactly as the request carries them. A regs.gdpr value outside 0
// and 1 is recorded as ambiguous.
func readPrivacy(req *openrtb2.BidRequest) Privacy {
	p := Privacy{GDPRSignal: gdpr.SignalAmbiguous}
	if req == nil {
		return p
	}

	if req.Regs != nil {
		p.GDPRSignal, _ = gdpr.SignalFromRegs(req.Regs.GDPR)
		p.USPrivacy = req.Regs.USPrivacy
		p.COPPA = req.Regs.COPPA == 1
		p.GPP = req.Regs.GPP
		p.GPPSIDs = req.Regs.GPPSID
	}
	if req.User != nil {
		p.Consent = req.User.Consent
	}
	if req.Device != nil && req.Device.Lmt != nil {
		p.LMT = *req.Device.Lmt == 1
	}
	return p
}

// Result is the privacy view of one bidder: what was received, what may be forwarded, and how the
// request has to be redacted before the bidder sees it.
type Result struct {
	ValidPrivacy  Privacy
	OriginPrivacy Privacy
	Policies      Policies
	Enforcement   Enforcement
	Errors        []error
}

// Policies records which regulations were enforced for a bidder.
type Policies struct {
	GDPR bool
	CCPA bool
	LMT  bool
}

// Apply returns a redacted copy of req carrying only the valid consent signals.
func (r Result) Apply(req *openrtb2.BidRequest) *openrtb2.BidRequest {
	out := r.Enforcement.Apply(req)
	if out == nil {
		return nil
	}

	if out.User != nil && out.User.Consent != r.ValidPrivacy.Consent {
		user := *out.User
		user.Consent = r.ValidPrivacy.Consent
		out.User = &user
	}
	if out.Regs != nil && out.Regs.USPrivacy != r.ValidPrivacy.USPrivacy {
		regs := *out.Regs
		regs.USPrivacy = r.ValidPrivacy.USPrivacy
		out.Regs = &regs
	}
	return out
}
