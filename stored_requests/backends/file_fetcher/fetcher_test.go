package file_fetcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesFetcherWithPublisher(t *testing.T) {
	fetcher, err := NewFileFetcher("./test/category-mapping")
	require.NoError(t, err, "Failed to create a category Fetcher")

	category, err := fetcher.FetchCategories(context.Background(), "test", "categories", "IAB1-1")
	assert.NoError(t, err, "Categories were loaded incorrectly")
	assert.Equal(t, "Beverages", category, "Categories were loaded incorrectly")
}

func TestCategoriesFetcherWithoutPublisher(t *testing.T) {
	fetcher, err := NewFileFetcher("./test/category-mapping")
	require.NoError(t, err, "Failed to create a category Fetcher")

	category, err := fetcher.FetchCategories(context.Background(), "test", "", "IAB1-1")
	assert.NoError(t, err, "Categories were loaded incorrectly")
	assert.Equal(t, "VideoGames", category, "Categories were loaded incorrectly")

	category, err = fetcher.FetchCategories(context.Background(), "test", "", "IAB1-2")
	assert.NoError(t, err, "Cached mapping should serve later lookups")
	assert.Equal(t, "Books", category)
}

func TestCategoriesFetcherNoCategory(t *testing.T) {
	fetcher, err := NewFileFetcher("./test/category-mapping")
	require.NoError(t, err, "Failed to create a category Fetcher")

	_, fetchingErr := fetcher.FetchCategories(context.Background(), "test", "", "IAB1-100")
	assert.Equal(t, fmt.Errorf("Unable to find category for adserver 'test', publisherId: '', iab category: 'IAB1-100'"),
		fetchingErr, "Categories were loaded incorrectly")
}

func TestCategoriesFetcherBrokenJson(t *testing.T) {
	fetcher, err := NewFileFetcher("./test/category-mapping")
	require.NoError(t, err, "Failed to create a category Fetcher")

	_, fetchingErr := fetcher.FetchCategories(context.Background(), "test", "broken", "IAB1-100")
	assert.Equal(t, fmt.Errorf("Unable to unmarshal categories for adserver: 'test', publisherId: 'broken'"),
		fetchingErr, "Categories were loaded incorrectly")
}

func TestCategoriesFetcherNoCategoriesFile(t *testing.T) {
	fetcher, err := NewFileFetcher("./test/category-mapping")
	require.NoError(t, err, "Failed to create a category Fetcher")

	_, fetchingErr := fetcher.FetchCategories(context.Background(), "test", "not_exists", "IAB1-100")
	assert.Equal(t, fmt.Errorf("Unable to find mapping file for adserver: 'test', publisherId: 'not_exists'"),
		fetchingErr, "Categories were loaded incorrectly")
}

func TestNewFileFetcherMissingDirectory(t *testing.T) {
	_, err := NewFileFetcher("./test/does-not-exist")
	assert.Error(t, err)
}
