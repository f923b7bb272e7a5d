package openrtb_ext

import (
	"encoding/json"
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
)

func TestParseExtRequest(t *testing.T) {
	falseValue := false

	testCases := []struct {
		description string
		ext         json.RawMessage
		expected    *ExtRequest
		expectErr   bool
	}{
		{
			description: "empty",
			expected:    &ExtRequest{},
		},
		{
			description: "nosale and brand category",
			ext:         json.RawMessage(`{"prebid":{"nosale":["grid"],"targeting":{"includebrandcategory":{"primaryadserver":1,"publisher":"pub","withcategory":true,"translatecategories":false,"mindealtier":5}}}}`),
			expected: &ExtRequest{
				Prebid: ExtRequestPrebid{
					NoSale: []string{"grid"},
					Targeting: &ExtRequestTargeting{
						IncludeBrandCategory: &ExtIncludeBrandCategory{
							PrimaryAdServer:     1,
							Publisher:           "pub",
							WithCategory:        true,
							TranslateCategories: &falseValue,
							MinDealTier:         5,
						},
					},
				},
			},
		},
		{
			description: "keywords kept raw",
			ext:         json.RawMessage(`{"keywords":{"site":{}}}`),
			expected:    &ExtRequest{Keywords: json.RawMessage(`{"site":{}}`)},
		},
		{
			description: "malformed",
			ext:         json.RawMessage(`{"prebid":`),
			expectErr:   true,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			result, err := ParseExtRequest(test.ext)
			if test.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestShouldTranslateCategories(t *testing.T) {
	trueValue, falseValue := true, false

	assert.True(t, (&ExtIncludeBrandCategory{}).ShouldTranslateCategories())
	assert.True(t, (&ExtIncludeBrandCategory{TranslateCategories: &trueValue}).ShouldTranslateCategories())
	assert.False(t, (&ExtIncludeBrandCategory{TranslateCategories: &falseValue}).ShouldTranslateCategories())
}

func TestGetImpIDs(t *testing.T) {
	assert.Equal(t, []string{}, GetImpIDs(nil))
	assert.Equal(t, []string{"imp-1", "imp-2"}, GetImpIDs([]openrtb2.Imp{{ID: "imp-1"}, {ID: "imp-2"}}))
}
