package ccpa

import (
	"errors"
	"fmt"
	"strings"
)

const (
	usPrivacyLength  = 4
	usPrivacyVersion = '1'
	optOutSaleIndex  = 2
	allBidders       = "*"
)

// usPrivacyFlags names the three Y/N/- positions after the version, in string order.
var usPrivacyFlags = [usPrivacyLength - 1]string{
	"explicit notice",
	"opt-out sale",
	"limited service provider agreement",
}

// ParsedPolicy is a validated Policy ready to answer per bidder questions.
type ParsedPolicy struct {
	consentSpecified      bool
	consentOptOutSale     bool
	noSaleForAllBidders   bool
	noSaleSpecificBidders map[string]struct{}
}

// Parse validates the policy. validBidders holds the names accepted in the no sale list.
func (p Policy) Parse(validBidders map[string]struct{}) (ParsedPolicy, error) {
	optOut, err := parseUSPrivacy(p.Consent)
	if err != nil {
		return ParsedPolicy{}, fmt.Errorf("request.regs.ext.us_privacy %v", err)
	}

	allExempt, exempt, err := parseNoSaleBidders(p.NoSaleBidders, validBidders)
	if err != nil {
		return ParsedPolicy{}, fmt.Errorf("request.ext.prebid.nosale %v", err)
	}

	return ParsedPolicy{
		consentSpecified:      p.Consent != "",
		consentOptOutSale:     optOut,
		noSaleForAllBidders:   allExempt,
		noSaleSpecificBidders: exempt,
	}, nil
}

// parseUSPrivacy reports whether the string opts out of sale. An empty string is valid and opts out
// of nothing.
func parseUSPrivacy(consent string) (bool, error) {
	switch {
	case consent == "":
		return false, nil
	case len(consent) != usPrivacyLength:
		return false, errors.New("must contain 4 characters")
	case consent[0] != usPrivacyVersion:
		return false, errors.New("must specify version 1")
	}

	for i, flag := range usPrivacyFlags {
		if !strings.ContainsRune("NY-", rune(consent[i+1])) {
			return false, fmt.Errorf("must specify 'N', 'Y', or '-' for the %s", flag)
		}
	}
	return consent[optOutSaleIndex] == 'Y', nil
}

// parseNoSaleBidders accepts either the lone wildcard or a list of known bidders.
func parseNoSaleBidders(bidders []string, validBidders map[string]struct{}) (bool, map[string]struct{}, error) {
	exempt := make(map[string]struct{}, len(bidders))
	if len(bidders) == 1 && bidders[0] == allBidders {
		return true, exempt, nil
	}

	for _, bidder := range bidders {
		if bidder == allBidders {
			return false, nil, errors.New("can only specify all bidders if no other bidders are provided")
		}
		if _, ok := validBidders[bidder]; !ok {
			return false, nil, fmt.Errorf("unrecognized bidder '%s'", bidder)
		}
		exempt[bidder] = struct{}{}
	}
	return false, exempt, nil
}

// CanEnforce returns true when a consent string was supplied.
func (p ParsedPolicy) CanEnforce() bool {
	return p.consentSpecified
}

// ShouldEnforce returns true when the user opted out of sale and the bidder has no exemption.
func (p ParsedPolicy) ShouldEnforce(bidder string) bool {
	if !p.consentOptOutSale || p.noSaleForAllBidders {
		return false
	}
	_, exempt := p.noSaleSpecificBidders[bidder]
	return !exempt
}
