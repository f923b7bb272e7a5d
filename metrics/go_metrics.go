package metrics

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics backed MetricsEngine.
type Metrics struct {
	MetricsRegistry metrics.Registry
	RequestTimer    metrics.Timer
	RequestStatuses map[RequestType]map[RequestStatus]metrics.Meter

	PrivacyCCPARequest       metrics.Meter
	PrivacyCCPARequestOptOut metrics.Meter
	PrivacyCOPPARequest      metrics.Meter
	PrivacyLMTRequest        metrics.Meter
	PrivacyTCFRequest        metrics.Meter

	AdapterMetrics map[openrtb_ext.BidderName]*AdapterMetrics

	exchanges []openrtb_ext.BidderName
}

// AdapterMetrics houses the metrics for a particular adapter
type AdapterMetrics struct {
	NoBidMeter          metrics.Meter
	GotBidsMeter        metrics.Meter
	RequestTimer        metrics.Timer
	PriceHistogram      metrics.Histogram
	BidsReceivedMeter   metrics.Meter
	PanicMeter          metrics.Meter
	CategoryRejectMeter metrics.Meter
	ErrorMeters         map[AdapterError]metrics.Meter
	MarkupMetrics       map[openrtb_ext.BidType]*MarkupDeliveryMetrics
}

type MarkupDeliveryMetrics struct {
	AdmMeter  metrics.Meter
	NurlMeter metrics.Meter
}

// NewMetrics registers every request, privacy and per-adapter metric in registry.
func NewMetrics(registry metrics.Registry, exchanges []openrtb_ext.BidderName) *Metrics {
	meter := func(name string) metrics.Meter { return metrics.GetOrRegisterMeter(name, registry) }

	m := &Metrics{
		MetricsRegistry:          registry,
		RequestTimer:             metrics.GetOrRegisterTimer("request_time", registry),
		RequestStatuses:          make(map[RequestType]map[RequestStatus]metrics.Meter, len(RequestTypes())),
		PrivacyCCPARequest:       meter("privacy.request.ccpa.specified"),
		PrivacyCCPARequestOptOut: meter("privacy.request.ccpa.opt-out"),
		PrivacyCOPPARequest:      meter("privacy.request.coppa"),
		PrivacyLMTRequest:        meter("privacy.request.lmt"),
		PrivacyTCFRequest:        meter("privacy.request.tcf.v2"),
		AdapterMetrics:           make(map[openrtb_ext.BidderName]*AdapterMetrics, len(exchanges)),
		exchanges:                exchanges,
	}

	for _, reqType := range RequestTypes() {
		byStatus := make(map[RequestStatus]metrics.Meter, len(RequestStatuses()))
		for _, status := range RequestStatuses() {
			byStatus[status] = meter(fmt.Sprintf("requests.%s.%s", status, reqType))
		}
		m.RequestStatuses[reqType] = byStatus
	}

	for _, bidder := range exchanges {
		m.AdapterMetrics[bidder] = newAdapterMetrics(registry, bidder.String())
	}
	return m
}

// newAdapterMetrics registers the metrics of one bidder under "adapter.<name>".
func newAdapterMetrics(registry metrics.Registry, adapter string) *AdapterMetrics {
	prefix := "adapter." + adapter
	meter := func(suffix string) metrics.Meter { return metrics.GetOrRegisterMeter(prefix+"."+suffix, registry) }

	am := &AdapterMetrics{
		NoBidMeter:          meter("requests.nobid"),
		GotBidsMeter:        meter("requests.gotbids"),
		RequestTimer:        metrics.GetOrRegisterTimer(prefix+".request_time", registry),
		PriceHistogram:      metrics.GetOrRegisterHistogram(prefix+".prices", registry, metrics.NewExpDecaySample(1028, 0.015)),
		BidsReceivedMeter:   meter("bids_received"),
		PanicMeter:          meter("requests.panic"),
		CategoryRejectMeter: meter("bids.category_rejected"),
		ErrorMeters:         make(map[AdapterError]metrics.Meter, len(AdapterErrors())),
		MarkupMetrics:       make(map[openrtb_ext.BidType]*MarkupDeliveryMetrics, len(openrtb_ext.BidTypes())),
	}
	for _, adapterErr := range AdapterErrors() {
		am.ErrorMeters[adapterErr] = meter("requests." + string(adapterErr))
	}
	for _, bidType := range openrtb_ext.BidTypes() {
		am.MarkupMetrics[bidType] = &MarkupDeliveryMetrics{
			AdmMeter:  meter(string(bidType) + ".adm_bids_received"),
			NurlMeter: meter(string(bidType) + ".nurl_bids_received"),
		}
	}
	return am
}

func (me *Metrics) adapterMetrics(adapter openrtb_ext.BidderName) (*AdapterMetrics, bool) {
	am, ok := me.AdapterMetrics[adapter]
	if !ok {
		glog.Errorf("Trying to run adapter metrics on %s: adapter metrics not found", adapter)
	}
	return am, ok
}

func (me *Metrics) RecordRequest(labels Labels) {
	if meter, ok := me.RequestStatuses[labels.RType][labels.RequestStatus]; ok {
		meter.Mark(1)
	}
}

// RecordRequestTime only times successful requests.
func (me *Metrics) RecordRequestTime(labels Labels, length time.Duration) {
	if labels.RequestStatus == RequestStatusOK {
		me.RequestTimer.Update(length)
	}
}

func (me *Metrics) RecordRequestPrivacy(privacy PrivacyLabels) {
	switch {
	case privacy.CCPAProvided && privacy.CCPAEnforced:
		me.PrivacyCCPARequestOptOut.Mark(1)
	case privacy.CCPAProvided:
		me.PrivacyCCPARequest.Mark(1)
	}
	marks := []struct {
		on    bool
		meter metrics.Meter
	}{
		{privacy.COPPAEnforced, me.PrivacyCOPPARequest},
		{privacy.GDPREnforced, me.PrivacyTCFRequest},
		{privacy.LMTEnforced, me.PrivacyLMTRequest},
	}
	for _, m := range marks {
		if m.on {
			m.meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordAdapterRequest(labels AdapterLabels) {
	am, ok := me.adapterMetrics(labels.Adapter)
	if !ok {
		return
	}

	switch labels.AdapterBids {
	case AdapterBidNone:
		am.NoBidMeter.Mark(1)
	case AdapterBidPresent:
		am.GotBidsMeter.Mark(1)
	default:
		glog.Warningf("No go-metrics logged for AdapterBids value: %s", labels.AdapterBids)
	}
	for errType := range labels.AdapterErrors {
		if meter, ok := am.ErrorMeters[errType]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordAdapterError(adapterName openrtb_ext.BidderName, err AdapterError) {
	if am, ok := me.adapterMetrics(adapterName); ok {
		if meter, ok := am.ErrorMeters[err]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordAdapterPanic(labels AdapterLabels) {
	if am, ok := me.adapterMetrics(labels.Adapter); ok {
		am.PanicMeter.Mark(1)
	}
}

// RecordAdapterBidReceived counts the bid and whether its markup came inline (adm) or by nurl.
func (me *Metrics) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	am, ok := me.adapterMetrics(labels.Adapter)
	if !ok {
		return
	}
	am.BidsReceivedMeter.Mark(1)

	markup, ok := am.MarkupMetrics[bidType]
	if !ok {
		glog.Errorf("bid/adm metrics map entry does not exist for type %s. This is a bug, and should be reported.", bidType)
		return
	}
	if hasAdm {
		markup.AdmMeter.Mark(1)
	} else {
		markup.NurlMeter.Mark(1)
	}
}

// RecordAdapterPrice stores cpm in thousandths so the integer histogram keeps three decimals.
func (me *Metrics) RecordAdapterPrice(labels AdapterLabels, cpm float64) {
	if am, ok := me.adapterMetrics(labels.Adapter); ok {
		am.PriceHistogram.Update(int64(cpm * 1000))
	}
}

func (me *Metrics) RecordAdapterTime(labels AdapterLabels, length time.Duration) {
	if am, ok := me.adapterMetrics(labels.Adapter); ok {
		am.RequestTimer.Update(length)
	}
}

func (me *Metrics) RecordCategoryRejection(adapterName openrtb_ext.BidderName) {
	if am, ok := me.adapterMetrics(adapterName); ok {
		am.CategoryRejectMeter.Mark(1)
	}
}
