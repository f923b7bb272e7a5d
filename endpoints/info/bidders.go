package info

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/openrtb_ext"
)

const (
	statusActive   = "ACTIVE"
	statusDisabled = "DISABLED"
)

// NewBiddersEndpoint implements /info/bidders. Only bidders able to take part in an auction are listed.
func NewBiddersEndpoint(activeBidders map[string]openrtb_ext.BidderName) httprouter.Handle {
	bidderNames := make([]string, 0, len(activeBidders))
	for _, bidderName := range activeBidders {
		bidderNames = append(bidderNames, string(bidderName))
	}
	sort.Strings(bidderNames)

	biddersJson, err := json.Marshal(bidderNames)
	if err != nil {
		glog.Fatalf("error creating /info/bidders endpoint response: %v", err)
	}

	return httprouter.Handle(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(biddersJson); err != nil {
			glog.Errorf("error writing response to /info/bidders: %v", err)
		}
	})
}

// NewBidderDetailsEndpoint implements /info/bidders/:bidderName
func NewBidderDetailsEndpoint(infos config.BidderInfos, adapters map[string]config.Adapter) httprouter.Handle {
	responses, err := prepareBiddersDetailResponse(infos, adapters)
	if err != nil {
		glog.Fatalf("error creating /info/bidders/:bidderName endpoint response: %v", err)
	}

	// Return an endpoint which writes the responses from memory.
	return httprouter.Handle(func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		forBidder := ps.ByName("bidderName")
		if name, ok := openrtb_ext.NormalizeBidderName(forBidder); ok {
			forBidder = string(name)
		}
		if response, ok := responses[forBidder]; ok {
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write(response); err != nil {
				glog.Errorf("error writing response to /info/bidders/%s: %v", forBidder, err)
			}
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func prepareBiddersDetailResponse(infos config.BidderInfos, adapters map[string]config.Adapter) (map[string][]byte, error) {
	responses := make(map[string][]byte, len(infos))
	for name, info := range infos {
		detail := mapDetailFromConfig(info, adapters[name])
		detailJson, err := json.Marshal(detail)
		if err != nil {
			return nil, err
		}
		responses[name] = detailJson
	}
	return responses, nil
}

type bidderDetail struct {
	Status       string        `json:"status"`
	UsesHTTPS    *bool         `json:"usesHttps,omitempty"`
	Maintainer   *maintainer   `json:"maintainer,omitempty"`
	Capabilities *capabilities `json:"capabilities,omitempty"`
	GVLVendorID  uint16        `json:"gvlVendorId,omitempty"`
}

type maintainer struct {
	Email string `json:"email"`
}

type capabilities struct {
	App  *platform `json:"app,omitempty"`
	Site *platform `json:"site,omitempty"`
}

type platform struct {
	MediaTypes []string `json:"mediaTypes"`
}

func mapDetailFromConfig(info config.BidderInfo, adapter config.Adapter) bidderDetail {
	detail := bidderDetail{
		Status:      statusActive,
		GVLVendorID: info.GVLVendorID,
	}
	if info.Disabled || adapter.Disabled {
		detail.Status = statusDisabled
	}

	endpoint := adapter.Endpoint
	if endpoint == "" {
		endpoint = info.Endpoint
	}
	if endpoint != "" {
		usesHTTPS := strings.HasPrefix(strings.ToLower(endpoint), "https://")
		detail.UsesHTTPS = &usesHTTPS
	}

	if info.Maintainer != nil {
		detail.Maintainer = &maintainer{Email: info.Maintainer.Email}
	}

	if info.Capabilities != nil {
		detail.Capabilities = &capabilities{
			App:  mapPlatform(info.Capabilities.App),
			Site: mapPlatform(info.Capabilities.Site),
		}
	}
	return detail
}

func mapPlatform(info *config.PlatformInfo) *platform {
	if info == nil {
		return nil
	}
	mediaTypes := make([]string, 0, len(info.MediaTypes))
	for _, mediaType := range info.MediaTypes {
		mediaTypes = append(mediaTypes, string(mediaType))
	}
	return &platform{MediaTypes: mediaTypes}
}
