package openrtb_ext

import "encoding/json"

// ExtImpGrid defines the contract for bidrequest.imp[i].ext.prebid.bidder.grid
type ExtImpGrid struct {
	Uid      int             `json:"uid"`
	Keywords json.RawMessage `json:"keywords,omitempty"`
}

// ExtImpGridData defines the contract for bidrequest.imp[i].ext.data as read by the grid bidder.
type ExtImpGridData struct {
	PbAdslot string                  `json:"pbadslot,omitempty"`
	AdServer *ExtImpGridDataAdServer `json:"adserver,omitempty"`
}

// ExtImpGridDataAdServer defines the contract for bidrequest.imp[i].ext.data.adserver
type ExtImpGridDataAdServer struct {
	Name   string `json:"name,omitempty"`
	AdSlot string `json:"adslot,omitempty"`
}
