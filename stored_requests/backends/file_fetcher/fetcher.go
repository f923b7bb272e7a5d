package file_fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prebid/auction-core/stored_requests"
)

// NewFileFetcher _immediately_ loads category mapping files from local disk.
// These are stored in memory for low-latency reads.
//
// The directory holds one subdirectory per ad server. Each subdirectory holds "{adserver}.json" for the
// ad server's default mapping and "{adserver}_{publisher}.json" for publisher specific mappings.
// Files are only parsed the first time they are used.
func NewFileFetcher(directory string) (stored_requests.CategoryFetcher, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	files := make(map[string]map[string]json.RawMessage, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := collectStoredData(filepath.Join(directory, entry.Name()))
		if err != nil {
			return nil, err
		}
		files[entry.Name()] = data
	}
	return &eagerFetcher{
		files:      files,
		categories: make(map[string]map[string]stored_requests.Category),
	}, nil
}

type eagerFetcher struct {
	files map[string]map[string]json.RawMessage

	mu         sync.RWMutex
	categories map[string]map[string]stored_requests.Category
}

func (fetcher *eagerFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	fileName := stored_requests.MappingName(primaryAdServer, publisherId)

	fetcher.mu.RLock()
	mapping, ok := fetcher.categories[fileName]
	fetcher.mu.RUnlock()

	if !ok {
		data, found := fetcher.files[primaryAdServer][fileName]
		if !found {
			return "", fmt.Errorf("Unable to find mapping file for adserver: '%s', publisherId: '%s'", primaryAdServer, publisherId)
		}
		mapping = make(map[string]stored_requests.Category)
		if err := json.Unmarshal(data, &mapping); err != nil {
			return "", fmt.Errorf("Unable to unmarshal categories for adserver: '%s', publisherId: '%s'", primaryAdServer, publisherId)
		}
		fetcher.mu.Lock()
		fetcher.categories[fileName] = mapping
		fetcher.mu.Unlock()
	}

	if category, ok := mapping[iabCategory]; ok {
		return category.Id, nil
	}
	return "", fmt.Errorf("Unable to find category for adserver '%s', publisherId: '%s', iab category: '%s'", primaryAdServer, publisherId, iabCategory)
}

func collectStoredData(directory string) (map[string]json.RawMessage, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	data := make(map[string]json.RawMessage, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") { // Skip the .gitignore
			continue
		}
		fileData, err := os.ReadFile(filepath.Join(directory, entry.Name()))
		if err != nil {
			return nil, err
		}
		data[strings.TrimSuffix(entry.Name(), ".json")] = json.RawMessage(fileData)
	}
	return data, nil
}
