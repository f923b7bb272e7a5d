package openrtb_ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBidderName(t *testing.T) {
	testCases := []struct {
		name          string
		expected      BidderName
		expectedFound bool
	}{
		{name: "grid", expected: BidderGrid, expectedFound: true},
		{name: "AppNexus", expected: BidderAppnexus, expectedFound: true},
		{name: "NANOINTERACTIVE", expected: BidderNanoInteractive, expectedFound: true},
		{name: "unknown", expected: "", expectedFound: false},
		{name: "", expected: "", expectedFound: false},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			bidderName, found := NormalizeBidderName(test.name)
			assert.Equal(t, test.expected, bidderName)
			assert.Equal(t, test.expectedFound, found)
		})
	}
}
