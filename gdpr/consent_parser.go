package gdpr

import (
	"errors"
	"fmt"

	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/vendorconsent"
	tcf2 "github.com/prebid/go-gdpr/vendorconsent/tcf2"
)

// parsedConsent holds the version fields of a TCF2 consent string next to the metadata used to
// answer purpose, vendor and special feature questions.
type parsedConsent struct {
	encodingVersion uint8
	specVersion     uint16
	listVersion     uint16
	consentMeta     tcf2.ConsentMetadata
}

// parseConsent decodes a TCF2 consent string. Every decoding or version failure is reported as an
// ErrorMalformedConsent so callers can downgrade it to a warning.
func parseConsent(consent string) (*parsedConsent, error) {
	vc, err := vendorconsent.ParseString(consent)
	if err != nil {
		return nil, &ErrorMalformedConsent{Consent: consent, Cause: err}
	}

	if err := validateVersions(vc); err != nil {
		return nil, &ErrorMalformedConsent{Consent: consent, Cause: err}
	}

	cm, ok := vc.(tcf2.ConsentMetadata)
	if !ok {
		return nil, &ErrorMalformedConsent{Consent: consent, Cause: errors.New("unable to access TCF2 parsed consent")}
	}

	return &parsedConsent{
		encodingVersion: vc.Version(),
		specVersion:     getSpecVersion(vc.TCFPolicyVersion()),
		listVersion:     vc.VendorListVersion(),
		consentMeta:     cm,
	}, nil
}

// validateVersions rejects anything but TCF2 encoded consent and unknown policy versions.
func validateVersions(vc api.VendorConsents) error {
	if version := vc.Version(); version != 2 {
		return fmt.Errorf("invalid encoding format version: %d", version)
	}
	if policyVersion := vc.TCFPolicyVersion(); policyVersion > 5 {
		return fmt.Errorf("invalid TCF policy version: %d", policyVersion)
	}
	return nil
}

// getSpecVersion maps the TCF policy version onto the GVL specification version.
func getSpecVersion(policyVersion uint8) uint16 {
	if policyVersion >= 4 {
		return 3
	}
	return 2
}
