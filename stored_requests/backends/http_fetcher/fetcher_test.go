package http_fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newCategoryServer(t *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		switch r.URL.Path {
		case "/freewheel.json":
			w.Write([]byte(`{"IAB1-1":{"id":"385","name":"Arts & Entertainment"}}`))
		case "/freewheel/pub1.json":
			w.Write([]byte(`{"IAB1-1":{"id":"999","name":"Publisher Override"}}`))
		case "/dfp.json":
			w.Write([]byte(`{`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchCategories(t *testing.T) {
	var calls int32
	server := newCategoryServer(t, &calls)
	defer server.Close()

	testCases := []struct {
		description string
		adServer    string
		publisher   string
		iab         string
		expected    string
		expectErr   string
	}{
		{
			description: "ad server default mapping",
			adServer:    "freewheel",
			iab:         "IAB1-1",
			expected:    "385",
		},
		{
			description: "publisher mapping",
			adServer:    "freewheel",
			publisher:   "pub1",
			iab:         "IAB1-1",
			expected:    "999",
		},
		{
			description: "category missing from mapping",
			adServer:    "freewheel",
			iab:         "IAB9-9",
			expectErr:   "Unable to find category mapping for adserver: 'freewheel', publisherId: ''",
		},
		{
			description: "malformed mapping",
			adServer:    "dfp",
			iab:         "IAB1-1",
			expectErr:   "Unable to unmarshal categories for adserver: 'dfp', publisherId: ''",
		},
		{
			description: "mapping not found",
			adServer:    "other",
			iab:         "IAB1-1",
			expectErr:   "Error fetching categories for adserver: 'other', publisherId: ''. Response code was 404",
		},
	}

	fetcher := NewFetcher(server.Client(), server.URL, time.Minute)
	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			category, err := fetcher.FetchCategories(context.Background(), test.adServer, test.publisher, test.iab)
			if test.expectErr != "" {
				assert.EqualError(t, err, test.expectErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, category)
		})
	}
}

func TestFetchCategoriesUsesCache(t *testing.T) {
	var calls int32
	server := newCategoryServer(t, &calls)
	defer server.Close()

	fetcher := NewFetcher(server.Client(), server.URL+"/", 0)
	for i := 0; i < 3; i++ {
		category, err := fetcher.FetchCategories(context.Background(), "freewheel", "", "IAB1-1")
		assert.NoError(t, err)
		assert.Equal(t, "385", category)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchCategoriesCanceledContext(t *testing.T) {
	var calls int32
	server := newCategoryServer(t, &calls)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(server.Client(), server.URL, time.Minute)
	_, err := fetcher.FetchCategories(ctx, "freewheel", "", "IAB1-1")
	assert.Error(t, err)
}
