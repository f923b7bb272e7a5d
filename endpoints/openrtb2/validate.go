package openrtb2

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// validateRequest stops at the first problem. Imps are checked in order.
func (deps *endpointDeps) validateRequest(req *openrtb2.BidRequest) error {
	switch {
	case req.ID == "":
		return errors.New("request missing required field: \"id\"")
	case req.TMax < 0:
		return fmt.Errorf("request.tmax must be nonnegative. Got %d", req.TMax)
	case len(req.Imp) == 0:
		return errors.New("request.imp must contain at least one element.")
	case (req.Site == nil) == (req.App == nil):
		return errors.New("request.site or request.app must be defined, but not both.")
	}

	seen := make(map[string]int, len(req.Imp))
	for i := range req.Imp {
		imp := &req.Imp[i]
		if first, dup := seen[imp.ID]; dup && imp.ID != "" {
			return fmt.Errorf("request.imp[%d].id and request.imp[%d].id are both \"%s\". Imp IDs must be unique.", first, i, imp.ID)
		}
		seen[imp.ID] = i

		if err := deps.validateImp(imp, i); err != nil {
			return err
		}
	}
	return nil
}

func (deps *endpointDeps) validateImp(imp *openrtb2.Imp, index int) error {
	if imp.ID == "" {
		return fmt.Errorf("request.imp[%d] missing required field: \"id\"", index)
	}
	if imp.Banner == nil && imp.Video == nil && imp.Audio == nil && imp.Native == nil {
		return fmt.Errorf("request.imp[%d] must contain at least one of \"banner\", \"video\", \"audio\", or \"native\"", index)
	}

	checks := []func() error{
		func() error { return validateBanner(imp.Banner, index) },
		func() error {
			if imp.Video != nil && len(imp.Video.MIMEs) == 0 {
				return fmt.Errorf("request.imp[%d].video.mimes must contain at least one supported MIME type", index)
			}
			return nil
		},
		func() error {
			if imp.Audio != nil && len(imp.Audio.MIMEs) == 0 {
				return fmt.Errorf("request.imp[%d].audio.mimes must contain at least one supported MIME type", index)
			}
			return nil
		},
		func() error {
			if imp.Native != nil && imp.Native.Request == "" {
				return fmt.Errorf("request.imp[%d].native.request must be a JSON encoded string conforming to the openrtb 1.2 Native spec", index)
			}
			return nil
		},
		func() error { return validatePmp(imp.PMP, index) },
		func() error { return deps.validateImpExt(imp.Ext, index) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func validateBanner(banner *openrtb2.Banner, impIndex int) error {
	if banner == nil {
		return nil
	}

	if len(banner.Format) == 0 && !(banner.W != nil && banner.H != nil && *banner.W > 0 && *banner.H > 0) {
		return fmt.Errorf("request.imp[%d].banner has no sizes. Define \"w\" and \"h\", or include \"format\" elements.", impIndex)
	}
	for i := range banner.Format {
		if err := validateFormat(&banner.Format[i], impIndex, i); err != nil {
			return err
		}
	}
	return nil
}

// validateFormat requires exactly one of the fixed {w, h} or flexible {wmin, wratio, hratio} forms,
// fully populated.
func validateFormat(format *openrtb2.Format, impIndex int, formatIndex int) error {
	fixed := format.W != 0 || format.H != 0
	flexible := format.WMin != 0 || format.WRatio != 0 || format.HRatio != 0

	var problem string
	switch {
	case fixed && flexible:
		problem = "should define *either* {w, h} *or* {wmin, wratio, hratio}, but not both. If both are valid, send two \"format\" objects in the request."
	case !fixed && !flexible:
		problem = "should define *either* {w, h} (for static size requirements) *or* {wmin, wratio, hratio} (for flexible sizes) to be non-zero."
	case fixed && (format.W == 0 || format.H == 0):
		problem = "must define non-zero \"h\" and \"w\" properties."
	case flexible && (format.WMin == 0 || format.WRatio == 0 || format.HRatio == 0):
		problem = "must define non-zero \"wmin\", \"wratio\", and \"hratio\" properties."
	default:
		return nil
	}
	return fmt.Errorf("Request imp[%d].banner.format[%d] %s", impIndex, formatIndex, problem)
}

func validatePmp(pmp *openrtb2.PMP, impIndex int) error {
	if pmp == nil {
		return nil
	}
	for i, deal := range pmp.Deals {
		if deal.ID == "" {
			return fmt.Errorf("request.imp[%d].pmp.deals[%d] missing required field: \"id\"", impIndex, i)
		}
	}
	return nil
}

// validateImpExt runs the params of every bidder in imp.ext.prebid.bidder through its JSON schema.
// Without prebid.bidder, known bidder names at the root of imp.ext are checked instead and other keys
// are ignored.
func (deps *endpointDeps) validateImpExt(ext json.RawMessage, impIndex int) error {
	if len(ext) == 0 {
		return fmt.Errorf("request.imp[%d].ext is required", impIndex)
	}

	bidders, dataType, _, err := jsonparser.Get(ext, openrtb_ext.PrebidExtKey, "bidder")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return fmt.Errorf("request.imp[%d].ext is invalid: %v", impIndex, err)
	}

	scope, strict := fmt.Sprintf("request.imp[%d].ext", impIndex), false
	if dataType == jsonparser.Object {
		scope, strict = scope+".prebid.bidder", true
	} else {
		bidders = ext
	}

	found := 0
	err = jsonparser.ObjectEach(bidders, func(key []byte, value []byte, _ jsonparser.ValueType, _ int) error {
		name, ok := openrtb_ext.NormalizeBidderName(string(key))
		if !ok {
			if strict {
				return fmt.Errorf("%s contains unknown bidder: %s", scope, key)
			}
			return nil
		}
		found++
		if err := deps.paramsValidator.Validate(name, value); err != nil {
			return fmt.Errorf("%s.%s failed validation.\n%v", scope, name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == 0 {
		return fmt.Errorf("request.imp[%d].ext.prebid.bidder must contain at least one bidder", impIndex)
	}
	return nil
}
