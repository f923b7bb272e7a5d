package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond"
	"github.com/golang/glog"
	"github.com/prebid/auction-core/exchange/entities"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/stored_requests"
)

const (
	unknownCategory      = "unknown"
	defaultLookupWorkers = 4
)

// CategoryDedupeConfig drives category mapping and deduplication for one auction.
type CategoryDedupeConfig struct {
	// PrimaryAdServer selects the category mapping: 1 is freewheel, 2 is dfp.
	PrimaryAdServer     int
	Publisher           string
	TranslateCategories bool
	// MinDealTier applies to bids whose bidder has no deal tier on the bid's impression.
	MinDealTier int
	// DealTiers are keyed by impression id. Read from the request when nil.
	DealTiers        map[string]openrtb_ext.DealTierBidderMap
	DurationRangeSec []int
	LookupWorkers    int
}

// NewCategoryDedupeConfig reads the dedupe settings from ext.prebid.targeting. It returns nil, which
// disables the engine, unless includebrandcategory asks for categories.
func NewCategoryDedupeConfig(targeting *openrtb_ext.ExtRequestTargeting) *CategoryDedupeConfig {
	if targeting == nil || targeting.IncludeBrandCategory == nil || !targeting.IncludeBrandCategory.WithCategory {
		return nil
	}
	brandCat := targeting.IncludeBrandCategory
	return &CategoryDedupeConfig{
		PrimaryAdServer:     brandCat.PrimaryAdServer,
		Publisher:           brandCat.Publisher,
		TranslateCategories: brandCat.ShouldTranslateCategories(),
		MinDealTier:         brandCat.MinDealTier,
		DurationRangeSec:    targeting.DurationRangeSec,
	}
}

// bidDedupe is the current keeper of one category.
type bidDedupe struct {
	bid       *entities.PbsOrtbBid
	satisfies bool
}

// categoryLookup is a bid whose IAB category must be translated by the fetcher.
type categoryLookup struct {
	bid         *entities.PbsOrtbBid
	iabCategory string
}

// applyCategoryMapping assigns a category to every bid, marks which bids satisfy their deal tier and
// keeps a single bid per category. The responses are never modified: the result holds copies with
// the rejected bids filtered out.
func applyCategoryMapping(ctx context.Context, cfg *CategoryDedupeConfig, responses []*entities.BidderResponse, categoriesFetcher stored_requests.CategoryFetcher) *entities.CategoryMappingResult {
	if cfg == nil {
		return entities.NewCategoryMappingResult(responses)
	}

	result := entities.NewCategoryMappingResult(make([]*entities.BidderResponse, 0, len(responses)))
	categories := make(map[*entities.PbsOrtbBid]string)
	var lookups []categoryLookup

	translate := cfg.TranslateCategories
	var primaryAdServer string
	if translate {
		var err error
		if primaryAdServer, err = getPrimaryAdServer(cfg.PrimaryAdServer); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	for _, response := range responses {
		for _, bid := range response.Bids {
			if bid == nil || bid.Bid == nil {
				continue
			}
			switch {
			case bid.BidVideo != nil && bid.BidVideo.PrimaryCategory != "":
				categories[bid] = bid.BidVideo.PrimaryCategory
			case bid.BidMeta != nil && bid.BidMeta.PrimaryCategoryID != "":
				categories[bid] = bid.BidMeta.PrimaryCategoryID
			case len(bid.Bid.Cat) == 1 && !translate:
				categories[bid] = bid.Bid.Cat[0]
			case len(bid.Bid.Cat) == 1 && primaryAdServer != "" && categoriesFetcher != nil:
				categories[bid] = unknownCategory
				lookups = append(lookups, categoryLookup{bid: bid, iabCategory: bid.Bid.Cat[0]})
			default:
				categories[bid] = unknownCategory
			}
		}
	}

	for bid, category := range lookupCategories(ctx, cfg, primaryAdServer, lookups, categoriesFetcher) {
		categories[bid] = category
	}

	rejected := make(map[*entities.PbsOrtbBid]struct{})
	dedupe := make(map[string]bidDedupe)

	for _, response := range responses {
		for _, bid := range response.Bids {
			if bid == nil || bid.Bid == nil {
				continue
			}
			if bid.BidVideo != nil {
				if _, err := findDurationRange(bid.BidVideo.Duration, cfg.DurationRangeSec); err != nil {
					rejected[bid] = struct{}{}
					result.Errors = updateRejections(result.Errors, bid.Bid.ID, err.Error())
					continue
				}
			}

			category := categories[bid]
			satisfies := bid.DealPriority >= minDealTier(cfg, response.Bidder, bid.Bid.ImpID)
			result.BidCategory[bid] = category
			result.BidSatisfiesPriority[bid] = satisfies

			if category == unknownCategory {
				continue
			}

			current := bidDedupe{bid: bid, satisfies: satisfies}
			keeper, ok := dedupe[category]
			if !ok {
				dedupe[category] = current
				continue
			}

			loser, winner := current, keeper
			if beats(current, keeper) {
				loser, winner = keeper, current
				dedupe[category] = current
			}
			rejected[loser.bid] = struct{}{}
			delete(result.BidCategory, loser.bid)
			delete(result.BidSatisfiesPriority, loser.bid)
			result.Errors = updateRejections(result.Errors, loser.bid.Bid.ID,
				fmt.Sprintf("Bid was deduplicated: category conflict with bid %s on category %s", winner.bid.Bid.ID, category))
		}
	}

	for _, response := range responses {
		filtered := *response
		filtered.Bids = make([]*entities.PbsOrtbBid, 0, len(response.Bids))
		for _, bid := range response.Bids {
			if _, ok := rejected[bid]; !ok {
				filtered.Bids = append(filtered.Bids, bid)
			}
		}
		result.BidderResponses = append(result.BidderResponses, &filtered)
	}
	return result
}

// lookupCategories translates IAB categories on a bounded worker pool. Failed lookups map to "unknown".
func lookupCategories(ctx context.Context, cfg *CategoryDedupeConfig, primaryAdServer string, lookups []categoryLookup, categoriesFetcher stored_requests.CategoryFetcher) map[*entities.PbsOrtbBid]string {
	if len(lookups) == 0 {
		return nil
	}

	workers := cfg.LookupWorkers
	if workers <= 0 {
		workers = defaultLookupWorkers
	}
	found := make([]string, len(lookups))

	pool := pond.New(workers, len(lookups))
	for i := range lookups {
		i := i
		pool.Submit(func() {
			category, err := categoriesFetcher.FetchCategories(ctx, primaryAdServer, cfg.Publisher, lookups[i].iabCategory)
			if err != nil || category == "" {
				glog.V(2).Infof("Category mapping for primary ad server %q, publisher %q and category %q not found: %v", primaryAdServer, cfg.Publisher, lookups[i].iabCategory, err)
				category = unknownCategory
			}
			found[i] = category
		})
	}
	pool.StopAndWait()

	categories := make(map[*entities.PbsOrtbBid]string, len(lookups))
	for i, lookup := range lookups {
		categories[lookup.bid] = found[i]
	}
	return categories
}

// beats reports whether a should replace b as the keeper of a category. Ties keep b, the first seen.
func beats(a, b bidDedupe) bool {
	if a.satisfies != b.satisfies {
		return a.satisfies
	}
	return a.bid.Bid.Price > b.bid.Bid.Price
}

func minDealTier(cfg *CategoryDedupeConfig, bidder openrtb_ext.BidderName, impID string) int {
	if tier, ok := cfg.DealTiers[impID][bidder]; ok {
		return tier.MinDealTier
	}
	return cfg.MinDealTier
}

// findDurationRange returns the element in the array 'durationRanges' that is both greater than 'dur' and closest
// in value to 'dur' unless a value equal to 'dur' is found. Returns an error if all elements in 'durationRanges'
// are less than 'dur'.
func findDurationRange(dur int, durationRanges []int) (int, error) {
	newDur := dur
	madeSelection := false
	var err error

	for i := range durationRanges {
		if dur > durationRanges[i] {
			continue
		}
		if dur == durationRanges[i] {
			return durationRanges[i], nil
		}
		// dur < durationRanges[i]
		if durationRanges[i] < newDur || !madeSelection {
			newDur = durationRanges[i]
			madeSelection = true
		}
	}
	if !madeSelection && len(durationRanges) > 0 {
		err = errors.New("bid duration exceeds maximum allowed")
	}
	return newDur, err
}

func updateRejections(rejections []string, bidID string, reason string) []string {
	message := fmt.Sprintf("bid rejected [bid ID: %s] reason: %s", bidID, reason)
	return append(rejections, message)
}

func getPrimaryAdServer(adServerId int) (string, error) {
	switch adServerId {
	case 1:
		return "freewheel", nil
	case 2:
		return "dfp", nil
	default:
		return "", fmt.Errorf("Primary ad server %d not recognized", adServerId)
	}
}
