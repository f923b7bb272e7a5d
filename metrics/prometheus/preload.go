package prometheusmetrics

import (
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prometheus/client_golang/prometheus"
)

// labelSet lists the values each label can take. Preloading walks every combination so the series
// exist at zero before the first observation.
type labelSet map[string][]string

func preloadLabelValues(m *Metrics) {
	adapters := toStrings(openrtb_ext.CoreBidderNames())
	requestTypes := toStrings(metrics.RequestTypes())
	bools := []string{"true", "false"}

	counters := []struct {
		vec    *prometheus.CounterVec
		labels labelSet
	}{
		{m.requests, labelSet{requestTypeLabel: requestTypes, requestStatusLabel: toStrings(metrics.RequestStatuses())}},
		{m.adapterErrors, labelSet{adapterLabel: adapters, adapterErrorLabel: toStrings(metrics.AdapterErrors())}},
		{m.adapterPanics, labelSet{adapterLabel: adapters}},
		{m.adapterRequests, labelSet{adapterLabel: adapters, hasBidsLabel: bools}},
		{m.adapterCategoryRejections, labelSet{adapterLabel: adapters}},
	}
	for _, c := range counters {
		for _, labels := range c.labels.combinations() {
			c.vec.With(labels)
		}
	}

	histograms := []struct {
		vec    *prometheus.HistogramVec
		labels labelSet
	}{
		{m.requestsTimer, labelSet{requestTypeLabel: requestTypes}},
		{m.adapterPrices, labelSet{adapterLabel: adapters}},
		{m.adapterRequestsTimer, labelSet{adapterLabel: adapters}},
	}
	for _, h := range histograms {
		for _, labels := range h.labels.combinations() {
			h.vec.With(labels)
		}
	}
}

// combinations expands the set into one prometheus.Labels per permutation of values.
func (s labelSet) combinations() []prometheus.Labels {
	if len(s) == 0 {
		return nil
	}
	result := []prometheus.Labels{{}}
	for name, values := range s {
		next := make([]prometheus.Labels, 0, len(result)*len(values))
		for _, partial := range result {
			for _, v := range values {
				labels := make(prometheus.Labels, len(partial)+1)
				for k, pv := range partial {
					labels[k] = pv
				}
				labels[name] = v
				next = append(next, labels)
			}
		}
		result = next
	}
	return result
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
