package stored_requests

import (
	"context"
	"fmt"
)

// CategoryFetcher translates IAB categories into the categories of a primary ad server, optionally
// scoped to one publisher. One instance is shared by every auction, so implementations must be
// safe for concurrent use.
type CategoryFetcher interface {
	FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error)
}

// Category is one entry of an ad server category mapping file.
type Category struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// NotFoundError means the mapping has no entry for ID.
type NotFoundError struct {
	ID       string
	DataType string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf(`Stored %s with ID="%s" not found.`, e.DataType, e.ID)
}

// MappingName returns the name a category mapping is stored under: the ad server alone, or
// "<adserver>_<publisher>" when a publisher is given.
func MappingName(primaryAdServer, publisherId string) string {
	if publisherId == "" {
		return primaryAdServer
	}
	return fmt.Sprintf("%s_%s", primaryAdServer, publisherId)
}
