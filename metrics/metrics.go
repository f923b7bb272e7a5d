package metrics

import (
	"time"

	"github.com/prebid/auction-core/openrtb_ext"
)

// Labels describe one incoming auction request.
type Labels struct {
	RType         RequestType
	RequestStatus RequestStatus
}

// AdapterLabels describe one bidder's part in an auction.
type AdapterLabels struct {
	Adapter       openrtb_ext.BidderName
	AdapterBids   AdapterBid
	AdapterErrors map[AdapterError]struct{}
}

// PrivacyLabels summarize which privacy rules applied to a request.
type PrivacyLabels struct {
	CCPAEnforced  bool
	CCPAProvided  bool
	COPPAEnforced bool
	GDPREnforced  bool
	LMTEnforced   bool
}

// RequestType names the channel a request came in on.
type RequestType string

type RequestStatus string

type AdapterBid string

// AdapterError classifies a failed bidder call.
type AdapterError string

const (
	ReqTypeORTB2Web RequestType = "openrtb2-web"
	ReqTypeORTB2App RequestType = "openrtb2-app"
)

func RequestTypes() []RequestType {
	return []RequestType{
		ReqTypeORTB2Web,
		ReqTypeORTB2App,
	}
}

const (
	RequestStatusOK       RequestStatus = "ok"
	RequestStatusBadInput RequestStatus = "badinput"
	RequestStatusErr      RequestStatus = "err"

	// RequestStatusQueueTimeout marks requests dropped because they waited in a proxy queue too long.
	RequestStatusQueueTimeout RequestStatus = "queue_timeout"
)

func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusBadInput,
		RequestStatusErr,
		RequestStatusQueueTimeout,
	}
}

const (
	AdapterBidPresent AdapterBid = "bid"
	AdapterBidNone    AdapterBid = "nobid"
)

func AdapterBids() []AdapterBid {
	return []AdapterBid{
		AdapterBidPresent,
		AdapterBidNone,
	}
}

const (
	AdapterErrorBadInput            AdapterError = "badinput"
	AdapterErrorBadServerResponse   AdapterError = "badserverresponse"
	AdapterErrorTimeout             AdapterError = "timeout"
	AdapterErrorFailedToRequestBids AdapterError = "failedtorequestbid"
	AdapterErrorUnknown             AdapterError = "unknown_error"
)

func AdapterErrors() []AdapterError {
	return []AdapterError{
		AdapterErrorBadInput,
		AdapterErrorBadServerResponse,
		AdapterErrorTimeout,
		AdapterErrorFailedToRequestBids,
		AdapterErrorUnknown,
	}
}

// MetricsEngine records auction metrics into a backend. The request methods are called once per
// incoming request and the adapter methods once per bidder in each auction.
type MetricsEngine interface {
	RecordRequest(labels Labels)
	RecordRequestTime(labels Labels, length time.Duration)
	RecordRequestPrivacy(privacy PrivacyLabels)
	RecordAdapterRequest(labels AdapterLabels)
	RecordAdapterError(adapterName openrtb_ext.BidderName, err AdapterError)
	RecordAdapterPanic(labels AdapterLabels)
	// RecordAdapterBidReceived counts bids by type and by whether markup came inline.
	RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool)
	RecordAdapterPrice(labels AdapterLabels, cpm float64)
	RecordAdapterTime(labels AdapterLabels, length time.Duration)
	// RecordCategoryRejection counts a bid dropped by category deduplication.
	RecordCategoryRejection(adapterName openrtb_ext.BidderName)
}
