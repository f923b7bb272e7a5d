package appnexus

type impExtAppnexus struct {
	PlacementID       int    `json:"placement_id,omitempty"`
	Keywords          string `json:"keywords,omitempty"`
	TrafficSourceCode string `json:"traffic_source_code,omitempty"`
	UsePmtRule        *bool  `json:"use_pmt_rule,omitempty"`
}

type impExt struct {
	Appnexus impExtAppnexus `json:"appnexus"`
}

// bidExtAppnexus is what MakeBids reads from bid.ext.appnexus.
type bidExtAppnexus struct {
	BidType       int
	BrandCategory int
	Duration      int
	DealPriority  int
}

type reqExtAppnexus struct {
	IncludeBrandCategory    *bool `json:"include_brand_category,omitempty"`
	BrandCategoryUniqueness *bool `json:"brand_category_uniqueness,omitempty"`
	HeaderBiddingSource     int   `json:"hb_source,omitempty"`
}
