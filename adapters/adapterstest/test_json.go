package adapterstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/prebid/auction-core/adapters"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// RunJSONBidderTest is a helper method intended to unit test Bidders' adapters.
// It requires that:
//
//   - Bidders communicate with external servers over HTTP.
//   - The HTTP request bodies are legal JSON.
//
// Although the project does not require it, it's a good idea to use this helper for the majority of your
// tests. The file structure used by it is:
//
//	{rootDir}/exemplary/*.json: full request/response exchanges that should succeed.
//	{rootDir}/supplemental/*.json: edge cases, errors and anything else.
//
// Each file holds a testSpec.
func RunJSONBidderTest(t *testing.T, rootDir string, bidder adapters.Bidder) {
	runTests(t, filepath.Join(rootDir, "exemplary"), bidder, false)
	runTests(t, filepath.Join(rootDir, "supplemental"), bidder, true)
}

func runTests(t *testing.T, directory string, bidder adapters.Bidder, allowErrors bool) {
	if specFiles, err := os.ReadDir(directory); err == nil {
		for _, specFile := range specFiles {
			if specFile.IsDir() || filepath.Ext(specFile.Name()) != ".json" {
				continue
			}
			fileName := filepath.Join(directory, specFile.Name())
			specData, err := loadFile(fileName)
			if err != nil {
				t.Fatalf("Failed to load contents of file %s: %v", fileName, err)
			}

			if !allowErrors && specData.expectsErrors() {
				t.Fatalf("Exemplary spec %s must not expect errors.", fileName)
			}
			t.Run(specFile.Name(), func(t *testing.T) {
				runSpec(t, fileName, specData, bidder)
			})
		}
	}
}

func loadFile(filename string) (*testSpec, error) {
	specData, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to read file %s: %v", filename, err)
	}

	var spec testSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal JSON from file: %v", err)
	}

	return &spec, nil
}

// runSpec compares the bidder's outgoing calls, typed bids and errors against the fixture. Nil
// entries in any returned list fail the case.
func runSpec(t *testing.T, filename string, spec *testSpec, bidder adapters.Bidder) {
	reqInfo := adapters.ExtraRequestInfo{}
	requests, errs := bidder.MakeRequests(&spec.BidRequest, &reqInfo)
	diffErrorLists(t, fmt.Sprintf("%s: MakeRequests", filename), errs, spec.MakeRequestErrors)

	if !assert.Len(t, requests, len(spec.HttpCalls), "%s: Bidder returned %d http requests. Expected %d", filename, len(requests), len(spec.HttpCalls)) {
		return
	}

	var bidResponses []*adapters.BidderResponse
	var bidsErrs []error
	for i := 0; i < len(spec.HttpCalls); i++ {
		diffHttpRequests(t, fmt.Sprintf("%s: httpRequest[%d]", filename, i), requests[i], &spec.HttpCalls[i].Request)

		resp := &adapters.ResponseData{
			StatusCode: spec.HttpCalls[i].Response.Status,
			Body:       spec.HttpCalls[i].Response.Body,
			Headers:    spec.HttpCalls[i].Response.Headers,
		}
		bidderResponse, theseErrs := bidder.MakeBids(&spec.BidRequest, requests[i], resp)
		bidsErrs = append(bidsErrs, theseErrs...)
		if bidderResponse != nil {
			bidResponses = append(bidResponses, bidderResponse)
		}
	}

	diffErrorLists(t, fmt.Sprintf("%s: MakeBids", filename), bidsErrs, spec.MakeBidsErrors)

	if assert.Len(t, bidResponses, len(spec.BidResponses), "%s: MakeBids returned %d responses. Expected %d", filename, len(bidResponses), len(spec.BidResponses)) {
		for i := range spec.BidResponses {
			diffBidResponse(t, fmt.Sprintf("%s: bidResponses[%d]", filename, i), bidResponses[i], &spec.BidResponses[i])
		}
	}
}

type testSpec struct {
	BidRequest        openrtb2.BidRequest     `json:"mockBidRequest"`
	HttpCalls         []httpCall              `json:"httpCalls"`
	BidResponses      []expectedBidResponse   `json:"expectedBidResponses"`
	MakeRequestErrors []testSpecExpectedError `json:"expectedMakeRequestsErrors"`
	MakeBidsErrors    []testSpecExpectedError `json:"expectedMakeBidsErrors"`
}

type testSpecExpectedError struct {
	Value      string `json:"value"`
	Comparison string `json:"comparison"`
}

func (spec *testSpec) expectsErrors() bool {
	return len(spec.MakeRequestErrors) > 0 || len(spec.MakeBidsErrors) > 0
}

type httpCall struct {
	Request  httpRequest  `json:"expectedRequest"`
	Response httpResponse `json:"mockResponse"`
}

type httpRequest struct {
	Body    json.RawMessage `json:"body"`
	Uri     string          `json:"uri"`
	Headers http.Header     `json:"headers"`
	ImpIDs  []string        `json:"impIDs"`
}

type httpResponse struct {
	Status  int             `json:"status"`
	Body    json.RawMessage `json:"body"`
	Headers http.Header     `json:"headers"`
}

type expectedBidResponse struct {
	Currency string        `json:"currency"`
	Bids     []expectedBid `json:"bids"`
}

type expectedBid struct {
	Bid          json.RawMessage `json:"bid"`
	Type         string          `json:"type"`
	Seat         string          `json:"seat"`
	DealPriority int             `json:"dealPriority"`
	Meta         json.RawMessage `json:"meta"`
	Video        json.RawMessage `json:"video"`
}

func diffErrorLists(t *testing.T, description string, actual []error, expected []testSpecExpectedError) {
	t.Helper()

	if !assert.Len(t, actual, len(expected), "%s had wrong error count. Actual: %v", description, actual) {
		return
	}
	for i := 0; i < len(expected); i++ {
		if expected[i].Comparison == "regex" {
			matched, err := regexp.MatchString(expected[i].Value, actual[i].Error())
			if err != nil {
				t.Fatalf("%s regexp %q did not compile: %v", description, expected[i].Value, err)
			}
			assert.True(t, matched, "%s error[%d] had wrong message. Expected match with regex %q, got %q", description, i, expected[i].Value, actual[i].Error())
		} else {
			assert.Equal(t, expected[i].Value, actual[i].Error(), "%s error[%d] had wrong message.", description, i)
		}
	}
}

func diffHttpRequests(t *testing.T, description string, actual *adapters.RequestData, expected *httpRequest) {
	t.Helper()

	if actual == nil {
		t.Fatalf("Bidders cannot return nil HTTP calls. %s was nil.", description)
	}

	assert.Equal(t, expected.Uri, actual.Uri, "%s had wrong uri", description)
	for key := range expected.Headers {
		assert.Equal(t, expected.Headers.Values(key), actual.Headers.Values(key), "%s had wrong header %s", description, key)
	}
	if expected.ImpIDs != nil {
		assert.ElementsMatch(t, expected.ImpIDs, actual.ImpIDs, "%s had wrong impIDs", description)
	}
	diffJson(t, description, actual.Body, expected.Body)
}

func diffBidResponse(t *testing.T, description string, actual *adapters.BidderResponse, expected *expectedBidResponse) {
	t.Helper()

	if expected.Currency != "" {
		assert.Equal(t, expected.Currency, actual.Currency, "%s had wrong currency", description)
	}
	if !assert.Len(t, actual.Bids, len(expected.Bids), "%s had wrong bid count", description) {
		return
	}
	for i, bid := range actual.Bids {
		bidDescription := fmt.Sprintf("%s.bids[%d]", description, i)
		assert.Equal(t, expected.Bids[i].Type, string(bid.BidType), "%s had wrong type", bidDescription)
		assert.Equal(t, expected.Bids[i].Seat, string(bid.Seat), "%s had wrong seat", bidDescription)
		assert.Equal(t, expected.Bids[i].DealPriority, bid.DealPriority, "%s had wrong deal priority", bidDescription)

		actualBidJSON, err := json.Marshal(bid.Bid)
		if err != nil {
			t.Fatalf("%s failed to marshal actual bid: %v", bidDescription, err)
		}
		diffJson(t, bidDescription, actualBidJSON, expected.Bids[i].Bid)

		if len(expected.Bids[i].Meta) > 0 {
			actualMetaJSON, _ := json.Marshal(bid.BidMeta)
			diffJson(t, bidDescription+".meta", actualMetaJSON, expected.Bids[i].Meta)
		}
		if len(expected.Bids[i].Video) > 0 {
			actualVideoJSON, _ := json.Marshal(bid.BidVideo)
			diffJson(t, bidDescription+".video", actualVideoJSON, expected.Bids[i].Video)
		}
	}
}

// diffJson compares two JSON documents structurally and prints an ASCII diff when they differ.
func diffJson(t *testing.T, description string, actual []byte, expected []byte) {
	t.Helper()

	if len(actual) == 0 && len(expected) == 0 {
		return
	}
	if len(actual) == 0 || len(expected) == 0 {
		t.Errorf("%s json did not match expected. Actual: %s Expected: %s", description, string(actual), string(expected))
		return
	}

	diff, err := gojsondiff.New().Compare(actual, expected)
	if err != nil {
		t.Fatalf("%s json diff failed. %v", description, err)
	}

	if diff.Modified() {
		var left interface{}
		if err := json.Unmarshal(actual, &left); err != nil {
			t.Fatalf("%s json did not match, but unmarshalling failed. %v", description, err)
		}
		printer := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
		})
		output, err := printer.Format(diff)
		if err != nil {
			t.Errorf("%s did not match, but diff formatting failed. %v", description, err)
		} else {
			t.Errorf("%s json did not match expected.\n\n%s", description, output)
		}
	}
}
