package gpp

import (
	"testing"

	gppConstants "github.com/prebid/go-gpp/constants"
	"github.com/stretchr/testify/assert"
)

func TestReadFromRequestRegs(t *testing.T) {
	p := ReadFromRequestRegs("DBABMA~CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA", []int8{2, 6})
	assert.Equal(t, Policy{Consent: "DBABMA~CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA", SIDs: []int8{2, 6}}, p)
}

func TestSectionValue(t *testing.T) {
	const gppString = "DBACNYA~CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA~1NYN"

	testCases := []struct {
		description   string
		policy        Policy
		sid           gppConstants.SectionID
		expectedValue string
		expectedFound bool
	}{
		{
			description:   "usp-without-sid-list",
			policy:        Policy{Consent: gppString},
			sid:           gppConstants.SectionUSPV1,
			expectedValue: "1NYN",
			expectedFound: true,
		},
		{
			description:   "tcf-listed-in-sids",
			policy:        Policy{Consent: gppString, SIDs: []int8{2}},
			sid:           gppConstants.SectionTCFEU2,
			expectedValue: "CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA",
			expectedFound: true,
		},
		{
			description: "present-but-not-listed",
			policy:      Policy{Consent: gppString, SIDs: []int8{2}},
			sid:         gppConstants.SectionUSPV1,
		},
		{
			description: "listed-but-absent",
			policy:      Policy{Consent: gppString, SIDs: []int8{8}},
			sid:         gppConstants.SectionUSPCA,
		},
		{
			description: "empty-string",
			policy:      Policy{},
			sid:         gppConstants.SectionUSPV1,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			container, errs := test.policy.Parse()
			assert.Empty(t, errs)

			value, found := test.policy.SectionValue(container, test.sid)
			assert.Equal(t, test.expectedFound, found)
			assert.Equal(t, test.expectedValue, value)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, errs := Policy{Consent: "malformed"}.Parse()
	assert.NotEmpty(t, errs)
}
