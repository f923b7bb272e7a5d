package openrtb_ext

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ExtBid is bidresponse.seatbid.bid[i].ext. Bidder carries whatever the bidder put in its own ext.
type ExtBid struct {
	Prebid *ExtBidPrebid   `json:"prebid,omitempty"`
	Bidder json.RawMessage `json:"bidder,omitempty"`
}

// ExtBidPrebid is bidresponse.seatbid.bid[i].ext.prebid.
type ExtBidPrebid struct {
	Category          string             `json:"category,omitempty"`
	DealPriority      int                `json:"dealpriority,omitempty"`
	DealTierSatisfied bool               `json:"dealtiersatisfied,omitempty"`
	Meta              *ExtBidPrebidMeta  `json:"meta,omitempty"`
	Type              BidType            `json:"type"`
	Video             *ExtBidPrebidVideo `json:"video,omitempty"`
}

type ExtBidPrebidMeta struct {
	AdvertiserDomains []string `json:"advertiserDomains,omitempty"`
	DemandSource      string   `json:"demandsource,omitempty"`
	MediaType         string   `json:"mediaType,omitempty"`
	PrimaryCategoryID string   `json:"primaryCatId,omitempty"`
}

type ExtBidPrebidVideo struct {
	Duration        int    `json:"duration"`
	PrimaryCategory string `json:"primary_category"`
}

// BidType is the media type of a bid, and the name of the matching imp object.
type BidType string

const (
	BidTypeBanner BidType = "banner"
	BidTypeVideo  BidType = "video"
	BidTypeAudio  BidType = "audio"
	BidTypeNative BidType = "native"
)

func BidTypes() []BidType {
	return []BidType{BidTypeBanner, BidTypeVideo, BidTypeAudio, BidTypeNative}
}

// ParseBidType accepts the lower case media type names only.
func ParseBidType(bidType string) (BidType, error) {
	if t := BidType(bidType); slices.Contains(BidTypes(), t) {
		return t, nil
	}
	return "", fmt.Errorf("invalid BidType: %s", bidType)
}
