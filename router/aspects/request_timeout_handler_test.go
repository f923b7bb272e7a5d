package aspects

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const reqTimeInQueueHeaderName = "X-Ngx-Request-Time-In-Queue"
const reqTimeoutHeaderName = "X-Ngx-Request-Timeout"

func TestQueuedRequestTimeout(t *testing.T) {
	testCases := []struct {
		description        string
		requestTimeInQueue string
		requestTimeout     string
		expectedStatus     int
		expectedBody       string
		expectedMetric     metrics.RequestStatus
	}{
		{
			description:        "in-time",
			requestTimeInQueue: "6",
			requestTimeout:     "10",
			expectedStatus:     http.StatusOK,
			expectedBody:       "Executed",
		},
		{
			description:        "timed-out",
			requestTimeInQueue: "6",
			requestTimeout:     "5.5",
			expectedStatus:     http.StatusRequestTimeout,
			expectedBody:       "Queued request processing time exceeded maximum",
			expectedMetric:     metrics.RequestStatusQueueTimeout,
		},
		{
			description:        "malformed-headers",
			requestTimeInQueue: "test1",
			requestTimeout:     "test2",
			expectedStatus:     http.StatusBadRequest,
			expectedBody:       "Request timeout headers are incorrect (wrong format)",
			expectedMetric:     metrics.RequestStatusBadInput,
		},
		{
			description:        "only-queue-time-present",
			requestTimeInQueue: "60",
			expectedStatus:     http.StatusOK,
			expectedBody:       "Executed",
		},
		{
			description:    "headers-absent",
			expectedStatus: http.StatusOK,
			expectedBody:   "Executed",
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/openrtb2/auction", nil)
			if test.requestTimeInQueue != "" {
				req.Header.Set(reqTimeInQueueHeaderName, test.requestTimeInQueue)
			}
			if test.requestTimeout != "" {
				req.Header.Set(reqTimeoutHeaderName, test.requestTimeout)
			}

			me := &metrics.MetricsEngineMock{}
			if test.expectedMetric != "" {
				me.On("RecordRequest", metrics.Labels{RType: metrics.ReqTypeORTB2Web, RequestStatus: test.expectedMetric}).Return()
			}

			rw := httptest.NewRecorder()
			handler := QueuedRequestTimeout(mockHandler, config.RequestTimeoutHeaders{
				RequestTimeInQueue:    reqTimeInQueueHeaderName,
				RequestTimeoutInQueue: reqTimeoutHeaderName,
			}, me, metrics.ReqTypeORTB2Web)
			handler(rw, req, nil)

			assert.Equal(t, test.expectedStatus, rw.Code)
			assert.Equal(t, test.expectedBody, rw.Body.String())
			me.AssertExpectations(t)
			if test.expectedMetric == "" {
				me.AssertNotCalled(t, "RecordRequest", mock.Anything)
			}
		})
	}
}

func mockHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Write([]byte("Executed"))
}
