package grid

import (
	"encoding/json"
	"strings"
)

// KeywordSegment is one name/value pair of a publisher keyword.
type KeywordSegment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// KeywordsPublisherItem groups the segments of a named keyword.
type KeywordsPublisherItem struct {
	Name     string           `json:"name"`
	Segments []KeywordSegment `json:"segments"`
}

// KeywordsPublisher holds the keyword items of every publisher of a section.
type KeywordsPublisher map[string][]KeywordsPublisherItem

// Keywords is the grid keywords document, keyed by section ("user", "site").
type Keywords map[string]KeywordsPublisher

const (
	openRTBKeywordsPublisher = "ortb2"
	openRTBKeywordsName      = "keywords"
)

// parseKeywords reads a keywords document. Anything unreadable contributes nothing.
func parseKeywords(raw json.RawMessage) Keywords {
	if len(raw) == 0 {
		return nil
	}
	var keywords Keywords
	if err := json.Unmarshal(raw, &keywords); err != nil {
		return nil
	}
	return keywords
}

// keywordsFromOpenRTB turns the comma separated user.keywords and site.keywords into the
// "ortb2" publisher of their sections.
func keywordsFromOpenRTB(userKeywords, siteKeywords string) Keywords {
	keywords := Keywords{}
	if item, ok := openRTBKeywordsItem(userKeywords); ok {
		keywords["user"] = KeywordsPublisher{openRTBKeywordsPublisher: {item}}
	}
	if item, ok := openRTBKeywordsItem(siteKeywords); ok {
		keywords["site"] = KeywordsPublisher{openRTBKeywordsPublisher: {item}}
	}
	return keywords
}

func openRTBKeywordsItem(raw string) (KeywordsPublisherItem, bool) {
	var segments []KeywordSegment
	for _, value := range strings.Split(raw, ",") {
		if value = strings.TrimSpace(value); value != "" {
			segments = append(segments, KeywordSegment{Name: openRTBKeywordsName, Value: value})
		}
	}
	if len(segments) == 0 {
		return KeywordsPublisherItem{}, false
	}
	return KeywordsPublisherItem{Name: openRTBKeywordsName, Segments: segments}, true
}

// mergeKeywords folds the sources left to right. Sections and publishers merge by key; within a
// publisher an item replaces the earlier item of the same name and new names are appended, so
// later sources take precedence while keeping the first-seen order.
func mergeKeywords(sources ...Keywords) Keywords {
	merged := Keywords{}
	for _, source := range sources {
		for section, publishers := range source {
			if len(publishers) == 0 {
				continue
			}
			mergedSection, ok := merged[section]
			if !ok {
				mergedSection = KeywordsPublisher{}
				merged[section] = mergedSection
			}
			for publisher, items := range publishers {
				mergedSection[publisher] = mergePublisherItems(mergedSection[publisher], items)
			}
		}
	}
	return merged
}

func mergePublisherItems(existing, incoming []KeywordsPublisherItem) []KeywordsPublisherItem {
	result := make([]KeywordsPublisherItem, len(existing), len(existing)+len(incoming))
	copy(result, existing)

	for _, item := range incoming {
		replaced := false
		for i := range result {
			if result[i].Name == item.Name {
				result[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, item)
		}
	}
	return result
}
