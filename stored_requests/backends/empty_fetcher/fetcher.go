package empty_fetcher

import (
	"context"

	"github.com/prebid/auction-core/stored_requests"
)

// EmptyFetcher is a nil-object which has no category mappings.
// If the server is configured to use this, every category lookup fails and bids fall back to the unknown category.
type EmptyFetcher struct{}

func (fetcher EmptyFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	return "", stored_requests.NotFoundError{
		ID:       iabCategory,
		DataType: "Category",
	}
}
