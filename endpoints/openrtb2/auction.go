package openrtb2

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/metrics"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/openrtb/v20/openrtb2"
)

// UUIDGenerator makes the ids handed out in bid responses.
type UUIDGenerator interface {
	Generate() (string, error)
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewUUIDGenerator returns the random (v4) UUID generator used in production.
func NewUUIDGenerator() UUIDGenerator {
	return uuidGenerator{}
}

func NewEndpoint(uuidGen UUIDGenerator, ex exchange.Exchange, validator openrtb_ext.BidderParamValidator, cfg *config.Configuration, me metrics.MetricsEngine) (httprouter.Handle, error) {
	if uuidGen == nil || ex == nil || validator == nil || cfg == nil || me == nil {
		return nil, errors.New("NewEndpoint requires non-nil arguments.")
	}

	return httprouter.Handle((&endpointDeps{
		uuidGenerator:   uuidGen,
		ex:              ex,
		paramsValidator: validator,
		cfg:             cfg,
		metricsEngine:   me,
	}).Auction), nil
}

type endpointDeps struct {
	uuidGenerator   UUIDGenerator
	ex              exchange.Exchange
	paramsValidator openrtb_ext.BidderParamValidator
	cfg             *config.Configuration
	metricsEngine   metrics.MetricsEngine
}

func (deps *endpointDeps) Auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeORTB2Web,
		RequestStatus: metrics.RequestStatusOK,
	}
	defer func() {
		deps.metricsEngine.RecordRequest(labels)
		deps.metricsEngine.RecordRequestTime(labels, time.Since(start))
	}()

	req, dedupe, errL := deps.parseRequest(r)
	if req != nil && req.App != nil {
		labels.RType = metrics.ReqTypeORTB2App
	}
	if len(errL) > 0 {
		labels.RequestStatus = metrics.RequestStatusBadInput
		writeBadRequest(w, errL)
		return
	}

	result, err := deps.ex.HoldAuction(r.Context(), &exchange.AuctionRequest{
		BidRequest:     req,
		Account:        getAccountID(req),
		CategoryDedupe: dedupe,
		StartTime:      start,
	})
	if err != nil {
		if errortypes.ReadCode(err) == errortypes.BadInputErrorCode {
			labels.RequestStatus = metrics.RequestStatusBadInput
			writeBadRequest(w, []error{err})
			return
		}
		labels.RequestStatus = metrics.RequestStatusErr
		glog.Errorf("/openrtb2/auction critical error: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Critical error while running the auction: %v", err)
		return
	}

	response, err := deps.buildResponse(req, result, start)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		glog.Errorf("/openrtb2/auction failed to build the response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Failed to build the auction response: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(response); err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		glog.Errorf("/openrtb2/auction failed to send response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, errs []error) {
	w.WriteHeader(http.StatusBadRequest)
	for _, err := range errs {
		fmt.Fprintf(w, "Invalid request: %s\n", err.Error())
	}
}

// parseRequest turns the HTTP request into an OpenRTB request and the category dedupe settings it asks for.
//
// If the errors list is empty, then the returned request will be valid according to the OpenRTB 2.6 spec.
// If the errors list has at least one element, then no guarantees are made about the returned request.
func (deps *endpointDeps) parseRequest(httpRequest *http.Request) (*openrtb2.BidRequest, *exchange.CategoryDedupeConfig, []error) {
	requestJson, err := deps.readBody(httpRequest)
	if err != nil {
		return nil, nil, []error{err}
	}

	req := &openrtb2.BidRequest{}
	if err := json.Unmarshal(requestJson, req); err != nil {
		return nil, nil, []error{err}
	}

	if err := deps.validateRequest(req); err != nil {
		return req, nil, []error{err}
	}
	setImplicitInfo(httpRequest, req)

	requestExt, err := openrtb_ext.ParseExtRequest(req.Ext)
	if err != nil {
		return req, nil, []error{fmt.Errorf("request.ext is invalid: %v", err)}
	}

	return req, exchange.NewCategoryDedupeConfig(requestExt.Prebid.Targeting), nil
}

func (deps *endpointDeps) readBody(httpRequest *http.Request) ([]byte, error) {
	if httpRequest.Body == nil {
		return nil, errors.New("request body is empty")
	}
	if deps.cfg.MaxRequestSize <= 0 {
		return io.ReadAll(httpRequest.Body)
	}

	lr := &io.LimitedReader{R: httpRequest.Body, N: deps.cfg.MaxRequestSize + 1}
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > deps.cfg.MaxRequestSize {
		return nil, fmt.Errorf("request size exceeded max size of %d bytes.", deps.cfg.MaxRequestSize)
	}
	return body, nil
}

func getAccountID(req *openrtb2.BidRequest) string {
	if req.Site != nil && req.Site.Publisher != nil {
		return req.Site.Publisher.ID
	}
	if req.App != nil && req.App.Publisher != nil {
		return req.App.Publisher.ID
	}
	return ""
}

// buildResponse renders the auction outcome. Bids are grouped in one seatbid per seat, in bidder order.
func (deps *endpointDeps) buildResponse(req *openrtb2.BidRequest, result *entities.CategoryMappingResult, start time.Time) (*openrtb2.BidResponse, error) {
	bidID, err := deps.uuidGenerator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate the response bid id: %v", err)
	}

	response := &openrtb2.BidResponse{
		ID:    req.ID,
		BidID: bidID,
	}
	ext := openrtb_ext.ExtBidResponse{
		Errors:             make(map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage),
		Warnings:           make(map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage),
		ResponseTimeMillis: make(map[openrtb_ext.BidderName]int),
		Prebid: &openrtb_ext.ExtResponsePrebid{
			AuctionTimestamp: start.UnixMilli(),
			Categories:       make(map[string]string),
			Rejections:       result.Errors,
		},
	}

	var firstFatal error
	seats := make(map[string]int)
	for _, bidderResponse := range result.BidderResponses {
		bidder := bidderResponse.Bidder
		ext.ResponseTimeMillis[bidder] = bidderResponse.ResponseTimeMillis

		fatal := errortypes.FatalOnly(bidderResponse.Errors)
		if len(fatal) > 0 {
			ext.Errors[bidder] = bidderMessages(fatal)
			if firstFatal == nil {
				firstFatal = fatal[0]
			}
		}
		if warnings := errortypes.WarningOnly(bidderResponse.Errors); len(warnings) > 0 {
			ext.Warnings[bidder] = bidderMessages(warnings)
		}

		if len(bidderResponse.Bids) > 0 && response.Cur == "" {
			response.Cur = bidderResponse.Currency
		}

		for _, bid := range bidderResponse.Bids {
			rendered, err := renderBid(bid, result)
			if err != nil {
				ext.Errors[bidder] = append(ext.Errors[bidder], openrtb_ext.ExtBidderMessage{
					Code:    errortypes.UnknownErrorCode,
					Message: err.Error(),
				})
				continue
			}
			if category := result.Category(bid); category != "" {
				ext.Prebid.Categories[bid.Bid.ID] = category
			}

			seat := string(bid.Seat)
			if seat == "" {
				seat = string(bidder)
			}
			index, ok := seats[seat]
			if !ok {
				response.SeatBid = append(response.SeatBid, openrtb2.SeatBid{Seat: seat})
				index = len(response.SeatBid) - 1
				seats[seat] = index
			}
			response.SeatBid[index].Bid = append(response.SeatBid[index].Bid, *rendered)
		}
	}

	if len(response.SeatBid) == 0 && firstFatal != nil {
		nbr := errortypes.GetNBRCodeFromError(firstFatal)
		response.NBR = &nbr
	}

	if response.Ext, err = json.Marshal(ext); err != nil {
		return nil, err
	}
	return response, nil
}

// renderBid copies the bid, moving the bidder's own ext under ext.bidder and the auction's view under ext.prebid.
func renderBid(bid *entities.PbsOrtbBid, result *entities.CategoryMappingResult) (*openrtb2.Bid, error) {
	rendered := *bid.Bid
	bidExt := openrtb_ext.ExtBid{
		Prebid: &openrtb_ext.ExtBidPrebid{
			Category:          result.Category(bid),
			DealPriority:      bid.DealPriority,
			DealTierSatisfied: result.SatisfiesPriority(bid),
			Meta:              bid.BidMeta,
			Type:              bid.BidType,
			Video:             bid.BidVideo,
		},
		Bidder: bid.Bid.Ext,
	}

	ext, err := json.Marshal(bidExt)
	if err != nil {
		return nil, fmt.Errorf("bid %s: failed to marshal ext: %v", bid.Bid.ID, err)
	}
	rendered.Ext = ext
	return &rendered, nil
}

func bidderMessages(errs []error) []openrtb_ext.ExtBidderMessage {
	messages := make([]openrtb_ext.ExtBidderMessage, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, openrtb_ext.ExtBidderMessage{
			Code:    errortypes.ReadCode(err),
			Message: err.Error(),
		})
	}
	return messages
}
