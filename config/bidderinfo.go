package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/prebid/auction-core/openrtb_ext"
)

// BidderInfos maps a bidder name to the static description loaded from its yaml file.
type BidderInfos map[string]BidderInfo

// BidderInfo is what a bidder declares about itself. Host specific settings live in Adapter.
type BidderInfo struct {
	Disabled     bool              `yaml:"disabled"`
	Endpoint     string            `yaml:"endpoint"`
	Maintainer   *MaintainerInfo   `yaml:"maintainer"`
	Capabilities *CapabilitiesInfo `yaml:"capabilities"`
	GVLVendorID  uint16            `yaml:"gvlVendorID"`
}

type MaintainerInfo struct {
	Email string `yaml:"email"`
}

// CapabilitiesInfo lists the media types a bidder accepts per platform. A nil platform is unsupported.
type CapabilitiesInfo struct {
	App  *PlatformInfo `yaml:"app"`
	Site *PlatformInfo `yaml:"site"`
}

type PlatformInfo struct {
	MediaTypes []openrtb_ext.BidType `yaml:"mediaTypes"`
}

// LoadBidderInfoFromDisk reads every <bidder>.yaml file in dir.
func LoadBidderInfoFromDisk(dir string) (BidderInfos, error) {
	return loadBidderInfo(yamlDir(dir))
}

func loadBidderInfo(r infoReader) (BidderInfos, error) {
	files, err := r.Read()
	if err != nil {
		return nil, err
	}

	infos := make(BidderInfos, len(files))
	for fileName, data := range files {
		var info BidderInfo
		if err := yaml.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("error parsing yaml for bidder %s: %v", fileName, err)
		}
		infos[strings.TrimSuffix(fileName, filepath.Ext(fileName))] = info
	}
	return infos, nil
}

// infoReader returns raw bidder info documents keyed by file name.
type infoReader interface {
	Read() (map[string][]byte, error)
}

type yamlDir string

func (dir yamlDir) Read() (map[string][]byte, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		if files[entry.Name()], err = os.ReadFile(filepath.Join(string(dir), entry.Name())); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// ToGVLVendorIDMap transforms a BidderInfos object to a map of bidder names to GVL id. Disabled
// bidders are omitted from the result.
func (infos BidderInfos) ToGVLVendorIDMap() map[openrtb_ext.BidderName]uint16 {
	m := make(map[openrtb_ext.BidderName]uint16, len(infos))
	for name, info := range infos {
		if !info.Disabled && info.GVLVendorID != 0 {
			m[openrtb_ext.BidderName(name)] = info.GVLVendorID
		}
	}
	return m
}

// Validate checks that every bidder info names a core bidder, has a maintainer and declares only known
// media types on at least one platform.
func (infos BidderInfos) Validate(errs []error) []error {
	for name, info := range infos {
		if _, ok := openrtb_ext.NormalizeBidderName(name); !ok {
			errs = append(errs, fmt.Errorf("bidder info %s does not match a known bidder", name))
			continue
		}
		if info.Maintainer == nil || info.Maintainer.Email == "" {
			errs = append(errs, fmt.Errorf("missing required field: maintainer.email for adapter: %s", name))
		}
		if info.Capabilities == nil || (info.Capabilities.App == nil && info.Capabilities.Site == nil) {
			errs = append(errs, fmt.Errorf("at least one of capabilities.site or capabilities.app must exist for adapter: %s", name))
			continue
		}
		for _, platform := range []*PlatformInfo{info.Capabilities.App, info.Capabilities.Site} {
			if platform == nil {
				continue
			}
			for _, mediaType := range platform.MediaTypes {
				if _, err := openrtb_ext.ParseBidType(string(mediaType)); err != nil {
					errs = append(errs, fmt.Errorf("adapter %s: %v", name, err))
				}
			}
		}
	}
	return errs
}
