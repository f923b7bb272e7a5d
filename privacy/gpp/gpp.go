package gpp

import (
	"slices"

	gpplib "github.com/prebid/go-gpp"
	gppConstants "github.com/prebid/go-gpp/constants"
)

// Policy is the raw GPP signal pair read from regs.
type Policy struct {
	Consent string
	SIDs    []int8
}

// ReadFromRequestRegs copies regs.gpp and regs.gpp_sid.
func ReadFromRequestRegs(gppString string, sids []int8) Policy {
	return Policy{Consent: gppString, SIDs: sids}
}

func sidListed(sids []int8, sid gppConstants.SectionID) bool {
	return slices.Contains(sids, int8(sid))
}

// Parse decodes the GPP string. An empty string yields an empty container and no errors.
func (p Policy) Parse() (gpplib.GppContainer, []error) {
	if p.Consent == "" {
		return gpplib.GppContainer{}, nil
	}
	return gpplib.Parse(p.Consent)
}

// SectionValue returns the encoded section for sid when the container holds it and, if the request
// listed applicable SIDs, sid is one of them. The second return is false when the section is absent.
func (p Policy) SectionValue(container gpplib.GppContainer, sid gppConstants.SectionID) (string, bool) {
	if len(p.SIDs) > 0 && !sidListed(p.SIDs, sid) {
		return "", false
	}
	i := slices.Index(container.SectionTypes, sid)
	if i < 0 || i >= len(container.Sections) {
		return "", false
	}
	return container.Sections[i].GetValue(), true
}
