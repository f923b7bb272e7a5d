package adapters

import (
	"fmt"

	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// InfoAwareBidder holds a Bidder to the platforms and media types declared in its
// static/bidder-info file. Requests from an undeclared platform are refused with a warning.
// Undeclared media types are cleared from each imp, imps left empty are dropped, and the wrapped
// bidder is skipped when nothing remains. The caller's request is copied before any change.
type InfoAwareBidder struct {
	Bidder
	site platformSupport
	app  platformSupport
}

type platformSupport struct {
	enabled bool
	types   map[openrtb_ext.BidType]bool
}

func newPlatformSupport(platform *config.PlatformInfo) platformSupport {
	if platform == nil {
		return platformSupport{}
	}
	s := platformSupport{enabled: true, types: make(map[openrtb_ext.BidType]bool, len(platform.MediaTypes))}
	for _, t := range platform.MediaTypes {
		s.types[t] = true
	}
	return s
}

// BuildInfoAwareBidder wraps bidder with the capabilities of info.
func BuildInfoAwareBidder(bidder Bidder, info config.BidderInfo) Bidder {
	b := &InfoAwareBidder{Bidder: bidder}
	if info.Capabilities != nil {
		b.site = newPlatformSupport(info.Capabilities.Site)
		b.app = newPlatformSupport(info.Capabilities.App)
	}
	return b
}

func (i *InfoAwareBidder) MakeRequests(request *openrtb2.BidRequest, reqInfo *ExtraRequestInfo) ([]*RequestData, []error) {
	var allowed platformSupport
	switch {
	case request.App != nil:
		if !i.app.enabled {
			return nil, []error{&errortypes.Warning{Message: "this bidder does not support app requests"}}
		}
		allowed = i.app
	case request.Site != nil:
		if !i.site.enabled {
			return nil, []error{&errortypes.Warning{Message: "this bidder does not support site requests"}}
		}
		allowed = i.site
	}

	updated, imps, errs := pruneImps(request.Imp, allowed)
	if updated {
		trimmed := *request
		trimmed.Imp = imps
		request = &trimmed
	}

	if len(request.Imp) == 0 {
		return nil, append(errs, &errortypes.Warning{Message: "Bid request didn't contain media types supported by the bidder"})
	}

	reqs, bidderErrs := i.Bidder.MakeRequests(request, reqInfo)
	return reqs, append(errs, bidderErrs...)
}

// mediaSlots lists the imp media objects in the order they are checked.
var mediaSlots = []struct {
	bidType openrtb_ext.BidType
	present func(*openrtb2.Imp) bool
	clear   func(*openrtb2.Imp)
}{
	{openrtb_ext.BidTypeBanner, func(imp *openrtb2.Imp) bool { return imp.Banner != nil }, func(imp *openrtb2.Imp) { imp.Banner = nil }},
	{openrtb_ext.BidTypeVideo, func(imp *openrtb2.Imp) bool { return imp.Video != nil }, func(imp *openrtb2.Imp) { imp.Video = nil }},
	{openrtb_ext.BidTypeAudio, func(imp *openrtb2.Imp) bool { return imp.Audio != nil }, func(imp *openrtb2.Imp) { imp.Audio = nil }},
	{openrtb_ext.BidTypeNative, func(imp *openrtb2.Imp) bool { return imp.Native != nil }, func(imp *openrtb2.Imp) { imp.Native = nil }},
}

// pruneImps clears unsupported media types and drops imps left with none. imps is never written;
// a fresh slice is returned once the first change is seen.
func pruneImps(imps []openrtb2.Imp, allowed platformSupport) (bool, []openrtb2.Imp, []error) {
	var errs []error
	var pruned []openrtb2.Imp

	for i, imp := range imps {
		changed := false
		for _, slot := range mediaSlots {
			if slot.present(&imp) && !allowed.types[slot.bidType] {
				slot.clear(&imp)
				changed = true
				errs = append(errs, &errortypes.Warning{Message: fmt.Sprintf("request.imp[%d] uses %s, but this bidder doesn't support it", i, slot.bidType)})
			}
		}

		keep := imp.Banner != nil || imp.Video != nil || imp.Audio != nil || imp.Native != nil
		if !keep {
			errs = append(errs, &errortypes.BadInput{Message: fmt.Sprintf("request.imp[%d] has no supported MediaTypes. It will be ignored", i)})
		}

		if pruned == nil && (changed || !keep) {
			pruned = append(make([]openrtb2.Imp, 0, len(imps)), imps[:i]...)
		}
		if pruned != nil && keep {
			pruned = append(pruned, imp)
		}
	}

	if pruned == nil {
		return false, imps, errs
	}
	return true, pruned, errs
}
