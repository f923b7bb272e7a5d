package macros

import (
	"strings"
	"text/template"
)

// EndpointTemplateParams are the values a bidder endpoint template may reference.
type EndpointTemplateParams struct {
	Host        string
	PublisherID string
	AccountID   string
	ZoneID      string
}

// ResolveMacros executes tmpl against params. A failed execution yields an empty string.
func ResolveMacros(tmpl *template.Template, params any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", err
	}
	return sb.String(), nil
}
