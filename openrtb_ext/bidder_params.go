package openrtb_ext

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaDirectory is the default location of the bidder param JSON schemas.
const SchemaDirectory = "static/bidder-params"

// BidderParamValidator checks imp.ext.prebid.bidder.<name> against that bidder's JSON schema.
type BidderParamValidator interface {
	Validate(name BidderName, ext json.RawMessage) error
	// Schema returns the raw schema document.
	Schema(name BidderName) string
}

type bidderSchema struct {
	raw      string
	compiled *gojsonschema.Schema
}

// NewBidderParamsValidator compiles one <bidder>.json schema per file in dir. Every core bidder must
// have a schema, and every file must name a core bidder.
func NewBidderParamsValidator(dir string) (BidderParamValidator, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to read JSON schemas from directory %s. %v", dir, err)
	}

	schemas := make(map[BidderName]bidderSchema, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := NormalizeBidderName(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if !ok {
			return nil, fmt.Errorf("File %s/%s does not match a valid BidderName.", dir, entry.Name())
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("Failed to read file %s/%s: %v", dir, entry.Name(), err)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("Failed to load json schema at %s/%s: %v", dir, entry.Name(), err)
		}
		schemas[name] = bidderSchema{raw: string(raw), compiled: compiled}
	}

	for _, name := range CoreBidderNames() {
		if _, ok := schemas[name]; !ok {
			return nil, fmt.Errorf("Missing JSON schema for bidder %s in %s", name, dir)
		}
	}
	return schemaValidator(schemas), nil
}

type schemaValidator map[BidderName]bidderSchema

func (v schemaValidator) Validate(name BidderName, ext json.RawMessage) error {
	schema, ok := v[name]
	if !ok {
		return fmt.Errorf("unknown bidder: %s", name)
	}
	result, err := schema.compiled.Validate(gojsonschema.NewBytesLoader(ext))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	var msg strings.Builder
	for _, resultErr := range result.Errors() {
		msg.WriteString(resultErr.String())
	}
	return errors.New(msg.String())
}

func (v schemaValidator) Schema(name BidderName) string {
	return v[name].raw
}
