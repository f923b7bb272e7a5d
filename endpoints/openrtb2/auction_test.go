package openrtb2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/util/ptrutil"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/openrtb/v20/openrtb3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validRequest = `{
  "id": "some-request-id",
  "tmax": 500,
  "site": {"page": "test.somepage.com", "publisher": {"id": "pub-1"}},
  "imp": [
    {
      "id": "imp1",
      "banner": {"format": [{"w": 300, "h": 250}]},
      "ext": {"prebid": {"bidder": {"grid": {"uid": 1}}}}
    }
  ]
}`

type fakeUUIDGenerator struct {
	id  string
	err error
}

func (g fakeUUIDGenerator) Generate() (string, error) {
	return g.id, g.err
}

// mockExchange returns a canned result and remembers the request it was given.
type mockExchange struct {
	result    *entities.CategoryMappingResult
	err       error
	lastCall  *exchange.AuctionRequest
	callCount int
}

func (e *mockExchange) HoldAuction(ctx context.Context, r *exchange.AuctionRequest) (*entities.CategoryMappingResult, error) {
	e.callCount++
	e.lastCall = r
	if e.err != nil {
		return nil, e.err
	}
	if e.result == nil {
		return entities.NewCategoryMappingResult([]*entities.BidderResponse{}), nil
	}
	return e.result, nil
}

func newTestEndpoint(t *testing.T, ex exchange.Exchange, me metrics.MetricsEngine, maxRequestSize int64) *endpointDeps {
	t.Helper()
	validator, err := openrtb_ext.NewBidderParamsValidator("../../static/bidder-params")
	require.NoError(t, err)
	return &endpointDeps{
		uuidGenerator:   fakeUUIDGenerator{id: "test bid id"},
		ex:              ex,
		paramsValidator: validator,
		cfg:             &config.Configuration{MaxRequestSize: maxRequestSize},
		metricsEngine:   me,
	}
}

func expectRequestMetrics(me *metrics.MetricsEngineMock, rType metrics.RequestType, status metrics.RequestStatus) {
	labels := metrics.Labels{RType: rType, RequestStatus: status}
	me.On("RecordRequest", labels).Return()
	me.On("RecordRequestTime", labels, mock.Anything).Return()
}

func runAuction(deps *endpointDeps, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest("POST", "/openrtb2/auction", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	deps.Auction(recorder, request, nil)
	return recorder
}

func TestNewEndpointRequiresArguments(t *testing.T) {
	validator, err := openrtb_ext.NewBidderParamsValidator("../../static/bidder-params")
	require.NoError(t, err)
	me := &metrics.MetricsEngineMock{}
	cfg := &config.Configuration{}

	_, err = NewEndpoint(NewUUIDGenerator(), nil, validator, cfg, me)
	assert.Error(t, err, "nil exchange")
	_, err = NewEndpoint(NewUUIDGenerator(), &mockExchange{}, nil, cfg, me)
	assert.Error(t, err, "nil validator")
	_, err = NewEndpoint(nil, &mockExchange{}, validator, cfg, me)
	assert.Error(t, err, "nil uuid generator")

	handle, err := NewEndpoint(NewUUIDGenerator(), &mockExchange{}, validator, cfg, me)
	assert.NoError(t, err)
	assert.NotNil(t, handle)
}

func TestAuctionBadRequests(t *testing.T) {
	testCases := []struct {
		description     string
		body            string
		expectedMessage string
	}{
		{
			description:     "malformed-json",
			body:            `{"id": `,
			expectedMessage: "unexpected end of JSON input",
		},
		{
			description:     "missing-id",
			body:            `{"site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `request missing required field: "id"`,
		},
		{
			description:     "negative-tmax",
			body:            `{"id":"req","tmax":-2,"site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.tmax must be nonnegative. Got -2",
		},
		{
			description:     "no-imps",
			body:            `{"id":"req","site":{},"imp":[]}`,
			expectedMessage: "request.imp must contain at least one element.",
		},
		{
			description:     "neither-site-nor-app",
			body:            `{"id":"req","imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.site or request.app must be defined, but not both.",
		},
		{
			description:     "both-site-and-app",
			body:            `{"id":"req","site":{},"app":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.site or request.app must be defined, but not both.",
		},
		{
			description:     "duplicate-imp-ids",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}},{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `request.imp[0].id and request.imp[1].id are both "imp1". Imp IDs must be unique.`,
		},
		{
			description:     "imp-missing-id",
			body:            `{"id":"req","site":{},"imp":[{"banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `request.imp[0] missing required field: "id"`,
		},
		{
			description:     "imp-without-media",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `request.imp[0] must contain at least one of "banner", "video", "audio", or "native"`,
		},
		{
			description:     "banner-without-sizes",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.imp[0].banner has no sizes.",
		},
		{
			description:     "format-with-width-only",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `Request imp[0].banner.format[0] must define non-zero "h" and "w" properties.`,
		},
		{
			description:     "video-without-mimes",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","video":{"w":640,"h":480},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.imp[0].video.mimes must contain at least one supported MIME type",
		},
		{
			description:     "native-without-request",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","native":{},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: "request.imp[0].native.request must be a JSON encoded string",
		},
		{
			description:     "deal-without-id",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"pmp":{"deals":[{"bidfloor":1}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			expectedMessage: `request.imp[0].pmp.deals[0] missing required field: "id"`,
		},
		{
			description:     "imp-without-ext",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]}}]}`,
			expectedMessage: "request.imp[0].ext is required",
		},
		{
			description:     "unknown-bidder",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"noSuchBidder":{}}}}}]}`,
			expectedMessage: "request.imp[0].ext.prebid.bidder contains unknown bidder: noSuchBidder",
		},
		{
			description:     "bidder-params-fail-schema",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":"not-a-number"}}}}}]}`,
			expectedMessage: "request.imp[0].ext.prebid.bidder.grid failed validation.",
		},
		{
			description:     "legacy-bidder-params-fail-schema",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"grid":{"uid":"not-a-number"}}}]}`,
			expectedMessage: "request.imp[0].ext.grid failed validation.",
		},
		{
			description:     "no-bidders",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"data":{"pbadslot":"slot"}}}]}`,
			expectedMessage: "request.imp[0].ext.prebid.bidder must contain at least one bidder",
		},
		{
			description:     "invalid-request-ext",
			body:            `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}],"ext":{"prebid":{"targeting":"yes"}}}`,
			expectedMessage: "request.ext is invalid",
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			ex := &mockExchange{}
			me := &metrics.MetricsEngineMock{}
			me.On("RecordRequest", mock.Anything).Return()
			me.On("RecordRequestTime", mock.Anything, mock.Anything).Return()
			deps := newTestEndpoint(t, ex, me, 0)

			recorder := runAuction(deps, test.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Contains(t, recorder.Body.String(), test.expectedMessage)
			assert.Equal(t, 0, ex.callCount, "the exchange must not run for invalid requests")
			labels := me.Calls[0].Arguments.Get(0).(metrics.Labels)
			assert.Equal(t, metrics.RequestStatusBadInput, labels.RequestStatus)
		})
	}
}

func TestAuctionRequestTooLarge(t *testing.T) {
	ex := &mockExchange{}
	me := &metrics.MetricsEngineMock{}
	expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusBadInput)
	deps := newTestEndpoint(t, ex, me, int64(len(validRequest)-1))

	recorder := runAuction(deps, validRequest)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "request size exceeded max size")
	assert.Equal(t, 0, ex.callCount)
	me.AssertExpectations(t)
}

func TestAuctionRequestAtSizeLimit(t *testing.T) {
	ex := &mockExchange{}
	me := &metrics.MetricsEngineMock{}
	expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusOK)
	deps := newTestEndpoint(t, ex, me, int64(len(validRequest)))

	recorder := runAuction(deps, validRequest)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, ex.callCount)
	me.AssertExpectations(t)
}

func TestAuctionExchangeErrors(t *testing.T) {
	testCases := []struct {
		description    string
		err            error
		expectedStatus int
		expectedLabel  metrics.RequestStatus
	}{
		{
			description:    "bad-input",
			err:            &errortypes.BadInput{Message: "request.imp[i].ext.prebid.bidder must reference at least one bidder."},
			expectedStatus: http.StatusBadRequest,
			expectedLabel:  metrics.RequestStatusBadInput,
		},
		{
			description:    "no-adapters",
			err:            exchange.ErrNoAdapters,
			expectedStatus: http.StatusInternalServerError,
			expectedLabel:  metrics.RequestStatusErr,
		},
		{
			description:    "unexpected",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedLabel:  metrics.RequestStatusErr,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			me := &metrics.MetricsEngineMock{}
			expectRequestMetrics(me, metrics.ReqTypeORTB2Web, test.expectedLabel)
			deps := newTestEndpoint(t, &mockExchange{err: test.err}, me, 0)

			recorder := runAuction(deps, validRequest)

			assert.Equal(t, test.expectedStatus, recorder.Code)
			assert.Contains(t, recorder.Body.String(), test.err.Error())
			me.AssertExpectations(t)
		})
	}
}

func TestAuctionUUIDFailure(t *testing.T) {
	me := &metrics.MetricsEngineMock{}
	expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusErr)
	deps := newTestEndpoint(t, &mockExchange{}, me, 0)
	deps.uuidGenerator = fakeUUIDGenerator{err: errors.New("no entropy")}

	recorder := runAuction(deps, validRequest)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "no entropy")
	me.AssertExpectations(t)
}

func TestAuctionPassesRequestToExchange(t *testing.T) {
	testCases := []struct {
		description     string
		body            string
		expectedAccount string
		expectedDedupe  *exchange.CategoryDedupeConfig
		expectedRType   metrics.RequestType
	}{
		{
			description:     "site-without-targeting",
			body:            validRequest,
			expectedAccount: "pub-1",
			expectedRType:   metrics.ReqTypeORTB2Web,
		},
		{
			description: "app-with-brand-category",
			body: `{"id":"req","app":{"publisher":{"id":"app-pub"}},"imp":[{"id":"imp1","video":{"mimes":["video/mp4"]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}],` +
				`"ext":{"prebid":{"targeting":{"includebrandcategory":{"primaryadserver":1,"publisher":"pub","withcategory":true,"mindealtier":5},"durationrangesec":[15,30]}}}}`,
			expectedAccount: "app-pub",
			expectedDedupe: &exchange.CategoryDedupeConfig{
				PrimaryAdServer:     1,
				Publisher:           "pub",
				TranslateCategories: true,
				MinDealTier:         5,
				DurationRangeSec:    []int{15, 30},
			},
			expectedRType: metrics.ReqTypeORTB2App,
		},
		{
			description: "brand-category-without-categories",
			body: `{"id":"req","site":{},"imp":[{"id":"imp1","banner":{"format":[{"w":300,"h":250}]},"ext":{"grid":{"uid":1}}}],` +
				`"ext":{"prebid":{"targeting":{"includebrandcategory":{"primaryadserver":1,"withcategory":false}}}}}`,
			expectedRType: metrics.ReqTypeORTB2Web,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			ex := &mockExchange{}
			me := &metrics.MetricsEngineMock{}
			expectRequestMetrics(me, test.expectedRType, metrics.RequestStatusOK)
			deps := newTestEndpoint(t, ex, me, 0)

			recorder := runAuction(deps, test.body)

			require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
			require.NotNil(t, ex.lastCall)
			assert.Equal(t, test.expectedAccount, ex.lastCall.Account)
			assert.Equal(t, test.expectedDedupe, ex.lastCall.CategoryDedupe)
			assert.False(t, ex.lastCall.StartTime.IsZero())
			me.AssertExpectations(t)
		})
	}
}

func TestAuctionResponse(t *testing.T) {
	gridBid := &entities.PbsOrtbBid{
		Bid:     &openrtb2.Bid{ID: "grid-bid", ImpID: "imp1", Price: 1.5, AdM: "<div></div>", Ext: json.RawMessage(`{"demand":"x"}`)},
		BidType: openrtb_ext.BidTypeBanner,
		BidMeta: &openrtb_ext.ExtBidPrebidMeta{DemandSource: "ds"},
	}
	videoBid := &entities.PbsOrtbBid{
		Bid:          &openrtb2.Bid{ID: "an-bid", ImpID: "imp1", Price: 2},
		BidType:      openrtb_ext.BidTypeVideo,
		BidVideo:     &openrtb_ext.ExtBidPrebidVideo{Duration: 30, PrimaryCategory: "sports"},
		DealPriority: 5,
		Seat:         "an-seat",
	}
	result := entities.NewCategoryMappingResult([]*entities.BidderResponse{
		{
			Bidder:             openrtb_ext.BidderGrid,
			Bids:               []*entities.PbsOrtbBid{gridBid},
			Currency:           "USD",
			ResponseTimeMillis: 12,
			Errors:             []error{&errortypes.Warning{Message: "consent ignored", WarningCode: errortypes.InvalidPrivacyConsentWarningCode}},
		},
		{
			Bidder:             openrtb_ext.BidderAppnexus,
			Bids:               []*entities.PbsOrtbBid{videoBid},
			Currency:           "USD",
			ResponseTimeMillis: 20,
			Errors:             []error{&errortypes.BadServerResponse{Message: "partial failure"}},
		},
	})
	result.BidCategory[videoBid] = "sports"
	result.BidSatisfiesPriority[videoBid] = true
	result.Errors = append(result.Errors, "bid rejected [bid ID: loser] reason: Bid was deduplicated: category conflict with bid an-bid on category sports")

	me := &metrics.MetricsEngineMock{}
	expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusOK)
	deps := newTestEndpoint(t, &mockExchange{result: result}, me, 0)

	recorder := runAuction(deps, validRequest)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response openrtb2.BidResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "some-request-id", response.ID)
	assert.Equal(t, "test bid id", response.BidID)
	assert.Equal(t, "USD", response.Cur)
	assert.Nil(t, response.NBR)

	require.Len(t, response.SeatBid, 2)
	assert.Equal(t, "grid", response.SeatBid[0].Seat)
	assert.Equal(t, "an-seat", response.SeatBid[1].Seat)
	require.Len(t, response.SeatBid[0].Bid, 1)
	require.Len(t, response.SeatBid[1].Bid, 1)

	var gridExt openrtb_ext.ExtBid
	require.NoError(t, json.Unmarshal(response.SeatBid[0].Bid[0].Ext, &gridExt))
	assert.Equal(t, openrtb_ext.BidTypeBanner, gridExt.Prebid.Type)
	assert.Equal(t, "", gridExt.Prebid.Category)
	assert.False(t, gridExt.Prebid.DealTierSatisfied)
	assert.Equal(t, "ds", gridExt.Prebid.Meta.DemandSource)
	assert.JSONEq(t, `{"demand":"x"}`, string(gridExt.Bidder))

	var videoExt openrtb_ext.ExtBid
	require.NoError(t, json.Unmarshal(response.SeatBid[1].Bid[0].Ext, &videoExt))
	assert.Equal(t, openrtb_ext.BidTypeVideo, videoExt.Prebid.Type)
	assert.Equal(t, "sports", videoExt.Prebid.Category)
	assert.True(t, videoExt.Prebid.DealTierSatisfied)
	assert.Equal(t, 5, videoExt.Prebid.DealPriority)
	assert.Equal(t, 30, videoExt.Prebid.Video.Duration)

	var ext openrtb_ext.ExtBidResponse
	require.NoError(t, json.Unmarshal(response.Ext, &ext))
	assert.Equal(t, map[openrtb_ext.BidderName]int{"grid": 12, "appnexus": 20}, ext.ResponseTimeMillis)
	assert.Equal(t, []openrtb_ext.ExtBidderMessage{{Code: errortypes.BadServerResponseErrorCode, Message: "partial failure"}}, ext.Errors["appnexus"])
	assert.NotContains(t, ext.Errors, openrtb_ext.BidderGrid)
	assert.Equal(t, []openrtb_ext.ExtBidderMessage{{Code: errortypes.InvalidPrivacyConsentWarningCode, Message: "consent ignored"}}, ext.Warnings["grid"])
	require.NotNil(t, ext.Prebid)
	assert.Equal(t, map[string]string{"an-bid": "sports"}, ext.Prebid.Categories)
	assert.Equal(t, result.Errors, ext.Prebid.Rejections)
	assert.NotZero(t, ext.Prebid.AuctionTimestamp)

	assert.JSONEq(t, `{"demand":"x"}`, string(gridBid.Bid.Ext), "the bidder's bid is left untouched")
	me.AssertExpectations(t)
}

func TestAuctionNoBidReason(t *testing.T) {
	insufficientTime := openrtb3.NoBidInsufficientTime
	testCases := []struct {
		description string
		responses   []*entities.BidderResponse
		expectedNBR *openrtb3.NoBidReason
	}{
		{
			description: "no-bids-no-errors",
			responses:   []*entities.BidderResponse{{Bidder: openrtb_ext.BidderGrid}},
		},
		{
			description: "timeout",
			responses: []*entities.BidderResponse{
				{Bidder: openrtb_ext.BidderGrid, Errors: []error{&errortypes.Timeout{Message: "timed out"}}},
				{Bidder: openrtb_ext.BidderAppnexus, Errors: []error{&errortypes.BadServerResponse{Message: "bad"}}},
			},
			expectedNBR: &insufficientTime,
		},
		{
			description: "only-warnings",
			responses: []*entities.BidderResponse{
				{Bidder: openrtb_ext.BidderGrid, Errors: []error{&errortypes.Warning{Message: "warn"}}},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			me := &metrics.MetricsEngineMock{}
			expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusOK)
			deps := newTestEndpoint(t, &mockExchange{result: entities.NewCategoryMappingResult(test.responses)}, me, 0)

			recorder := runAuction(deps, validRequest)
			require.Equal(t, http.StatusOK, recorder.Code)

			var response openrtb2.BidResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.Empty(t, response.SeatBid)
			assert.Equal(t, test.expectedNBR, response.NBR)
		})
	}
}

func TestAuctionSetsImplicitInfo(t *testing.T) {
	testCases := []struct {
		description    string
		body           string
		headers        map[string]string
		expectedUA     string
		expectedIP     string
		expectedIPv6   string
		expectedSecure *int8
	}{
		{
			description:    "filled-from-headers",
			body:           validRequest,
			headers:        map[string]string{"User-Agent": "test-agent", "X-Forwarded-For": "10.1.1.1, 8.8.8.8", "X-Forwarded-Proto": "https"},
			expectedUA:     "test-agent",
			expectedIP:     "8.8.8.8",
			expectedSecure: ptrutil.ToPtr[int8](1),
		},
		{
			description:  "ipv6-client",
			body:         validRequest,
			headers:      map[string]string{"X-Real-IP": "2001:4860:4860::8888"},
			expectedIPv6: "2001:4860:4860::8888",
		},
		{
			description: "request-values-kept",
			body: `{"id":"req","site":{"publisher":{"id":"pub-1"}},"device":{"ua":"own-agent","ip":"1.2.3.4"},` +
				`"imp":[{"id":"imp1","secure":0,"banner":{"format":[{"w":300,"h":250}]},"ext":{"prebid":{"bidder":{"grid":{"uid":1}}}}}]}`,
			headers:        map[string]string{"User-Agent": "test-agent", "X-Forwarded-For": "8.8.8.8", "X-Forwarded-Proto": "https"},
			expectedUA:     "own-agent",
			expectedIP:     "1.2.3.4",
			expectedSecure: ptrutil.ToPtr[int8](0),
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			ex := &mockExchange{}
			me := &metrics.MetricsEngineMock{}
			expectRequestMetrics(me, metrics.ReqTypeORTB2Web, metrics.RequestStatusOK)
			deps := newTestEndpoint(t, ex, me, 0)

			request := httptest.NewRequest("POST", "/openrtb2/auction", strings.NewReader(test.body))
			request.RemoteAddr = "127.0.0.1:1234"
			for k, v := range test.headers {
				request.Header.Set(k, v)
			}
			recorder := httptest.NewRecorder()
			deps.Auction(recorder, request, nil)

			require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
			device := ex.lastCall.BidRequest.Device
			require.NotNil(t, device)
			assert.Equal(t, test.expectedUA, device.UA)
			assert.Equal(t, test.expectedIP, device.IP)
			assert.Equal(t, test.expectedIPv6, device.IPv6)
			assert.Equal(t, test.expectedSecure, ex.lastCall.BidRequest.Imp[0].Secure)
		})
	}
}
