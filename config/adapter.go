package config

import (
	"fmt"
	"text/template"

	validator "github.com/asaskevich/govalidator"

	"github.com/prebid/auction-core/macros"
)

// Adapter is the host level override for a single bidder.
type Adapter struct {
	Endpoint   string `mapstructure:"endpoint"`
	Disabled   bool   `mapstructure:"disabled"`
	PlatformID string `mapstructure:"platform_id"`
}

// sampleEndpointParams fill endpoint macros so templated endpoints can be checked as URLs.
var sampleEndpointParams = macros.EndpointTemplateParams{
	Host:        "bidder.example.com",
	PublisherID: "1",
	AccountID:   "account",
	ZoneID:      "zone",
}

func validateAdapters(adapters map[string]Adapter, errs []error) []error {
	for name, adapter := range adapters {
		if adapter.Disabled {
			continue
		}
		if err := validateAdapterEndpoint(name, adapter.Endpoint); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateAdapterEndpoint(name, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("There's no default endpoint available for %s. Set adapters.%s.endpoint in the app config", name, name)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(endpoint)
	if err != nil {
		return fmt.Errorf("Invalid endpoint template: %s for adapter: %s. %v", endpoint, name, err)
	}
	resolved, err := macros.ResolveMacros(tmpl, sampleEndpointParams)
	if err != nil {
		return fmt.Errorf("Unable to resolve endpoint: %s for adapter: %s. %v", endpoint, name, err)
	}

	// IsURL accepts hosts without a scheme and IsRequestURL accepts doubled schemes, so both must pass.
	if !validator.IsURL(resolved) || !validator.IsRequestURL(resolved) {
		return fmt.Errorf("The endpoint: %s for %s is not a valid URL", resolved, name)
	}
	return nil
}
