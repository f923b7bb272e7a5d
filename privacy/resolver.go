package privacy

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/gdpr"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/privacy/ccpa"
	"github.com/prebid/auction-core/privacy/gpp"
	"github.com/prebid/auction-core/privacy/lmt"
	gppConstants "github.com/prebid/go-gpp/constants"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// Resolver decides, for every bidder of an auction, which privacy signals and user data may be
// forwarded. It never fails an auction: malformed signals become warnings and the most restrictive
// interpretation.
type Resolver struct {
	permissions  gdpr.Permissions
	gdprEnabled  bool
	gdprDefault  string
	ccpaEnforce  bool
	lmtEnforce   bool
	ipMasking    config.IPMasking
	validBidders map[string]struct{}
}

// NewResolver builds a Resolver from the host configuration and the bidders' GVL vendor ids.
func NewResolver(cfg *config.Configuration, vendorIDs map[openrtb_ext.BidderName]uint16) *Resolver {
	validBidders := make(map[string]struct{}, len(openrtb_ext.CoreBidderNames()))
	for _, name := range openrtb_ext.CoreBidderNames() {
		validBidders[string(name)] = struct{}{}
	}

	return &Resolver{
		permissions:  gdpr.NewPermissions(cfg.GDPR, vendorIDs),
		gdprEnabled:  cfg.GDPR.Enabled,
		gdprDefault:  cfg.GDPR.DefaultValue,
		ccpaEnforce:  cfg.CCPA.Enforce,
		lmtEnforce:   cfg.LMT.Enforce,
		ipMasking:    cfg.Privacy.IPMasking,
		validBidders: validBidders,
	}
}

// requestSignals are the request level findings shared by every bidder.
type requestSignals struct {
	origin      Privacy
	gdprSignal  gdpr.Signal
	consent     string
	ccpaPolicy  ccpa.ParsedPolicy
	ccpaInvalid bool
	lmt         bool
	errs        []error
}

// Resolve returns one Result per bidder.
func (r *Resolver) Resolve(req *openrtb2.BidRequest, bidders []openrtb_ext.BidderName) map[openrtb_ext.BidderName]Result {
	signals := r.readSignals(req)

	results := make(map[openrtb_ext.BidderName]Result, len(bidders))
	for _, bidder := range bidders {
		results[bidder] = r.resolveBidder(signals, bidder)
	}
	return results
}

func (r *Resolver) readSignals(req *openrtb2.BidRequest) requestSignals {
	s := requestSignals{origin: readPrivacy(req)}
	s.consent = s.origin.Consent
	s.gdprSignal = s.origin.GDPRSignal

	if req != nil && req.Regs != nil {
		if _, err := gdpr.SignalFromRegs(req.Regs.GDPR); err != nil {
			s.errs = append(s.errs, &errortypes.Warning{
				Message:     fmt.Sprintf("request.regs.gdpr %s. GDPR is treated as applicable", err.Error()),
				WarningCode: errortypes.InvalidPrivacySignalWarningCode,
			})
			s.gdprSignal = gdpr.SignalYes
		}
	}

	ccpaPolicy, gppErrs := ccpa.ReadFromRequest(req)
	for _, err := range gppErrs {
		s.errs = append(s.errs, &errortypes.Warning{
			Message:     fmt.Sprintf("request.regs.gpp is malformed: %s", err.Error()),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
	}

	if s.consent == "" && s.origin.GPP != "" && len(gppErrs) == 0 {
		gppPolicy := gpp.ReadFromRequestRegs(s.origin.GPP, s.origin.GPPSIDs)
		container, _ := gppPolicy.Parse()
		if value, ok := gppPolicy.SectionValue(container, gppConstants.SectionTCFEU2); ok {
			s.consent = value
		}
	}

	parsed, err := ccpaPolicy.Parse(r.validBidders)
	if err != nil {
		s.errs = append(s.errs, &errortypes.Warning{
			Message:     err.Error(),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
		s.ccpaInvalid = true
	}
	s.ccpaPolicy = parsed

	s.lmt = r.lmtEnforce && lmt.ReadFromRequest(req).Restricted()
	return s
}

func (r *Resolver) resolveBidder(s requestSignals, bidder openrtb_ext.BidderName) Result {
	result := Result{
		OriginPrivacy: s.origin,
		ValidPrivacy:  s.origin,
		Errors:        append([]error(nil), s.errs...),
	}
	result.ValidPrivacy.GDPRSignal = s.gdprSignal
	result.ValidPrivacy.Consent = s.consent

	perms, err := r.permissions.AuctionActivitiesAllowed(bidder, s.gdprSignal, s.consent)
	if err != nil {
		glog.V(2).Infof("Malformed consent for bidder %s: %v", bidder, err)
		result.Errors = append(result.Errors, &errortypes.Warning{
			Message:     err.Error(),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
		result.ValidPrivacy.Consent = ""
	}

	ccpaEnforced := false
	if r.ccpaEnforce {
		if s.ccpaInvalid {
			ccpaEnforced = true
			result.ValidPrivacy.USPrivacy = ""
		} else {
			ccpaEnforced = s.ccpaPolicy.ShouldEnforce(string(bidder))
		}
	}

	result.Policies = Policies{
		GDPR: r.gdprEnabled && gdpr.SignalNormalize(s.gdprSignal, r.gdprDefault) == gdpr.SignalYes,
		CCPA: ccpaEnforced,
		LMT:  s.lmt,
	}
	result.Enforcement = Enforcement{
		UFPD:       !perms.PassID || ccpaEnforced || s.lmt,
		PreciseGeo: !perms.PassGeo || ccpaEnforced || s.lmt,
		DeviceIDs:  !perms.PassID || s.lmt,
		ScrubAll:   s.origin.COPPA,
		IPMasking:  r.ipMasking,
	}
	return result
}
