package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus MetricsEngine. Every vector lives in its own Registry so several
// instances can coexist in tests.
type Metrics struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	requestsTimer *prometheus.HistogramVec
	privacyCCPA   *prometheus.CounterVec
	privacyCOPPA  *prometheus.CounterVec
	privacyLMT    *prometheus.CounterVec
	privacyTCF    *prometheus.CounterVec

	adapterBids               *prometheus.CounterVec
	adapterErrors             *prometheus.CounterVec
	adapterPanics             *prometheus.CounterVec
	adapterPrices             *prometheus.HistogramVec
	adapterRequests           *prometheus.CounterVec
	adapterRequestsTimer      *prometheus.HistogramVec
	adapterCategoryRejections *prometheus.CounterVec
}

const (
	adapterErrorLabel   = "adapter_error"
	adapterLabel        = "adapter"
	bidTypeLabel        = "bid_type"
	hasBidsLabel        = "has_bids"
	markupDeliveryLabel = "delivery"
	optOutLabel         = "opt_out"
	requestStatusLabel  = "request_status"
	requestTypeLabel    = "request_type"
	sourceLabel         = "source"
	versionLabel        = "version"
)

const (
	markupDeliveryAdm  = "adm"
	markupDeliveryNurl = "nurl"
	sourceRequest      = "request"
	tcfVersionV2       = "v2"
)

var (
	// seconds
	timeBuckets = []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.4, 0.5, 0.75, 1}
	// CPM
	priceBuckets = []float64{250, 500, 750, 1000, 1500, 2000, 2500, 3000, 3500, 4000}
)

// vecFactory registers vectors under the configured namespace and subsystem.
type vecFactory struct {
	cfg      config.PrometheusMetrics
	registry *prometheus.Registry
}

func (f vecFactory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: f.cfg.Namespace,
		Subsystem: f.cfg.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}

func (f vecFactory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: f.cfg.Namespace,
		Subsystem: f.cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}

// NewMetrics builds the Prometheus engine with every known label combination preloaded.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	f := vecFactory{cfg: cfg, registry: m.Registry}

	m.requests = f.counter("requests",
		"Count of auction requests by type and status.",
		requestTypeLabel, requestStatusLabel)
	m.requestsTimer = f.histogram("request_time_seconds",
		"Seconds spent on successful auction requests by type.",
		timeBuckets, requestTypeLabel)

	m.privacyCCPA = f.counter("privacy_ccpa",
		"Count of requests carrying a CCPA string by source and opt-out.",
		sourceLabel, optOutLabel)
	m.privacyCOPPA = f.counter("privacy_coppa",
		"Count of requests with the COPPA flag set by source.",
		sourceLabel)
	m.privacyTCF = f.counter("privacy_tcf",
		"Count of requests where GDPR was enforced by TCF version and source.",
		versionLabel, sourceLabel)
	m.privacyLMT = f.counter("privacy_lmt",
		"Count of requests where limit ad tracking was enforced by source.",
		sourceLabel)

	m.adapterBids = f.counter("adapter_bids",
		"Count of bids by adapter, markup delivery and bid type.",
		adapterLabel, markupDeliveryLabel, bidTypeLabel)
	m.adapterErrors = f.counter("adapter_errors",
		"Count of adapter errors by type.",
		adapterLabel, adapterErrorLabel)
	m.adapterPanics = f.counter("adapter_panics",
		"Count of recovered adapter panics.",
		adapterLabel)
	m.adapterPrices = f.histogram("adapter_prices",
		"Bid prices by adapter.",
		priceBuckets, adapterLabel)
	m.adapterRequests = f.counter("adapter_requests",
		"Count of adapter calls by whether any bid came back.",
		adapterLabel, hasBidsLabel)
	m.adapterRequestsTimer = f.histogram("adapter_request_time_seconds",
		"Seconds spent on error free adapter calls.",
		timeBuckets, adapterLabel)
	m.adapterCategoryRejections = f.counter("adapter_category_rejections",
		"Count of bids dropped by category deduplication.",
		adapterLabel)

	preloadLabelValues(m)
	return m
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.WithLabelValues(string(labels.RType), string(labels.RequestStatus)).Inc()
}

// RecordRequestTime only observes successful requests.
func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	if labels.RequestStatus != metrics.RequestStatusOK {
		return
	}
	m.requestsTimer.WithLabelValues(string(labels.RType)).Observe(length.Seconds())
}

func (m *Metrics) RecordRequestPrivacy(privacy metrics.PrivacyLabels) {
	if privacy.CCPAProvided {
		m.privacyCCPA.WithLabelValues(sourceRequest, strconv.FormatBool(privacy.CCPAEnforced)).Inc()
	}
	if privacy.COPPAEnforced {
		m.privacyCOPPA.WithLabelValues(sourceRequest).Inc()
	}
	if privacy.GDPREnforced {
		m.privacyTCF.WithLabelValues(tcfVersionV2, sourceRequest).Inc()
	}
	if privacy.LMTEnforced {
		m.privacyLMT.WithLabelValues(sourceRequest).Inc()
	}
}

func (m *Metrics) RecordAdapterRequest(labels metrics.AdapterLabels) {
	adapter := string(labels.Adapter)
	m.adapterRequests.WithLabelValues(adapter, strconv.FormatBool(labels.AdapterBids == metrics.AdapterBidPresent)).Inc()
	for err := range labels.AdapterErrors {
		m.adapterErrors.WithLabelValues(adapter, string(err)).Inc()
	}
}

func (m *Metrics) RecordAdapterError(adapterName openrtb_ext.BidderName, err metrics.AdapterError) {
	m.adapterErrors.WithLabelValues(string(adapterName), string(err)).Inc()
}

func (m *Metrics) RecordAdapterPanic(labels metrics.AdapterLabels) {
	m.adapterPanics.WithLabelValues(string(labels.Adapter)).Inc()
}

func (m *Metrics) RecordAdapterBidReceived(labels metrics.AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	delivery := markupDeliveryNurl
	if hasAdm {
		delivery = markupDeliveryAdm
	}
	m.adapterBids.WithLabelValues(string(labels.Adapter), delivery, string(bidType)).Inc()
}

func (m *Metrics) RecordAdapterPrice(labels metrics.AdapterLabels, cpm float64) {
	m.adapterPrices.WithLabelValues(string(labels.Adapter)).Observe(cpm)
}

// RecordAdapterTime ignores calls that returned any error.
func (m *Metrics) RecordAdapterTime(labels metrics.AdapterLabels, length time.Duration) {
	if len(labels.AdapterErrors) > 0 {
		return
	}
	m.adapterRequestsTimer.WithLabelValues(string(labels.Adapter)).Observe(length.Seconds())
}

func (m *Metrics) RecordCategoryRejection(adapterName openrtb_ext.BidderName) {
	m.adapterCategoryRejections.WithLabelValues(string(adapterName)).Inc()
}
