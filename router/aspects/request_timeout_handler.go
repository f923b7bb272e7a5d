package aspects

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/metrics"
)

var errMalformedQueueHeaders = errors.New("Request timeout headers are incorrect (wrong format)")

// QueuedRequestTimeout guards handle with the queue timing a fronting proxy reports in the configured
// headers. A request which used up its budget while queued is answered with a 408 without reaching
// handle; unparsable headers get a 400. Requests without both headers pass straight through.
func QueuedRequestTimeout(handle httprouter.Handle, headers config.RequestTimeoutHeaders, me metrics.MetricsEngine, requestType metrics.RequestType) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		waited, budget, ok, err := queueTiming(r, headers)
		switch {
		case err != nil:
			reject(w, me, metrics.Labels{RType: requestType, RequestStatus: metrics.RequestStatusBadInput}, http.StatusBadRequest, err.Error())
		case ok && waited >= budget:
			reject(w, me, metrics.Labels{RType: requestType, RequestStatus: metrics.RequestStatusQueueTimeout}, http.StatusRequestTimeout, "Queued request processing time exceeded maximum")
		default:
			handle(w, r, params)
		}
	}
}

// queueTiming reads the time spent queued and the queue budget. ok is false when either header is missing.
func queueTiming(r *http.Request, headers config.RequestTimeoutHeaders) (waited, budget float64, ok bool, err error) {
	rawWaited := r.Header.Get(headers.RequestTimeInQueue)
	rawBudget := r.Header.Get(headers.RequestTimeoutInQueue)
	if rawWaited == "" || rawBudget == "" {
		return 0, 0, false, nil
	}

	waited, waitedErr := strconv.ParseFloat(rawWaited, 64)
	budget, budgetErr := strconv.ParseFloat(rawBudget, 64)
	if waitedErr != nil || budgetErr != nil {
		return 0, 0, false, errMalformedQueueHeaders
	}
	return waited, budget, true, nil
}

func reject(w http.ResponseWriter, me metrics.MetricsEngine, labels metrics.Labels, status int, message string) {
	me.RecordRequest(labels)
	w.WriteHeader(status)
	w.Write([]byte(message))
}
