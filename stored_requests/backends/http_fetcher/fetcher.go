package http_fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/net/context/ctxhttp"

	"github.com/prebid/auction-core/stored_requests"
)

// NewFetcher returns a category fetcher which uses the Client to pull mapping files from the endpoint.
//
// This file expects the endpoint to satisfy the following API:
//
//	GET {endpoint}/{adserver}.json              ad server default mapping
//	GET {endpoint}/{adserver}/{publisher}.json  publisher specific mapping
//
// Both return a payload like:
//
//	{
//	  "IAB1-1": { "id": "385", "name": "Arts & Entertainment" },
//	  ...
//	}
//
// Mappings are kept for cacheTTL. A non-positive TTL keeps them until the process exits.
func NewFetcher(client *http.Client, endpoint string, cacheTTL time.Duration) *HttpFetcher {
	if _, err := url.Parse(endpoint); err != nil {
		glog.Fatalf(`Invalid endpoint "%s": %v`, endpoint, err)
	}
	glog.Infof("Making http_fetcher for endpoint %v", endpoint)

	expiry := cacheTTL
	if expiry <= 0 {
		expiry = cache.NoExpiration
	}
	cleanup := expiry
	if cleanup == cache.NoExpiration {
		cleanup = 0
	}

	return &HttpFetcher{
		client:     client,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		categories: cache.New(expiry, cleanup),
	}
}

type HttpFetcher struct {
	client     *http.Client
	endpoint   string
	categories *cache.Cache
}

func (fetcher *HttpFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	dataName := stored_requests.MappingName(primaryAdServer, publisherId)

	var mapping map[string]stored_requests.Category
	if cached, ok := fetcher.categories.Get(dataName); ok {
		mapping = cached.(map[string]stored_requests.Category)
	} else {
		fetched, err := fetcher.fetchMapping(ctx, primaryAdServer, publisherId)
		if err != nil {
			glog.Warningf("Category mapping fetch failed: %v", err)
			return "", err
		}
		fetcher.categories.SetDefault(dataName, fetched)
		mapping = fetched
	}

	if val, ok := mapping[iabCategory]; ok {
		return val.Id, nil
	}
	return "", fmt.Errorf("Unable to find category mapping for adserver: '%s', publisherId: '%s'", primaryAdServer, publisherId)
}

func (fetcher *HttpFetcher) fetchMapping(ctx context.Context, primaryAdServer, publisherId string) (map[string]stored_requests.Category, error) {
	httpReq, err := http.NewRequest(http.MethodGet, fetcher.mappingURL(primaryAdServer, publisherId), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building category request for adserver '%s'", primaryAdServer)
	}

	httpResp, err := ctxhttp.Do(ctx, fetcher.client, httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching categories for adserver '%s', publisherId '%s'", primaryAdServer, publisherId)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("Error fetching categories for adserver: '%s', publisherId: '%s'. Response code was %d", primaryAdServer, publisherId, httpResp.StatusCode)
	}

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading category response")
	}

	mapping := make(map[string]stored_requests.Category)
	if err := json.Unmarshal(respBytes, &mapping); err != nil {
		return nil, fmt.Errorf("Unable to unmarshal categories for adserver: '%s', publisherId: '%s'", primaryAdServer, publisherId)
	}
	return mapping, nil
}

func (fetcher *HttpFetcher) mappingURL(primaryAdServer, publisherId string) string {
	if publisherId != "" {
		return fmt.Sprintf("%s/%s/%s.json", fetcher.endpoint, primaryAdServer, publisherId)
	}
	return fmt.Sprintf("%s/%s.json", fetcher.endpoint, primaryAdServer)
}
