package metrics

import (
	"time"

	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock records every call for testify expectations.
type MetricsEngineMock struct {
	mock.Mock
}

func (m *MetricsEngineMock) RecordRequest(labels Labels) { m.Called(labels) }

func (m *MetricsEngineMock) RecordRequestTime(labels Labels, length time.Duration) {
	m.Called(labels, length)
}

func (m *MetricsEngineMock) RecordRequestPrivacy(privacy PrivacyLabels) { m.Called(privacy) }

func (m *MetricsEngineMock) RecordAdapterRequest(labels AdapterLabels) { m.Called(labels) }

func (m *MetricsEngineMock) RecordAdapterError(bidder openrtb_ext.BidderName, err AdapterError) {
	m.Called(bidder, err)
}

func (m *MetricsEngineMock) RecordAdapterPanic(labels AdapterLabels) { m.Called(labels) }

func (m *MetricsEngineMock) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasAdm bool) {
	m.Called(labels, bidType, hasAdm)
}

func (m *MetricsEngineMock) RecordAdapterPrice(labels AdapterLabels, cpm float64) {
	m.Called(labels, cpm)
}

func (m *MetricsEngineMock) RecordAdapterTime(labels AdapterLabels, length time.Duration) {
	m.Called(labels, length)
}

func (m *MetricsEngineMock) RecordCategoryRejection(bidder openrtb_ext.BidderName) { m.Called(bidder) }
