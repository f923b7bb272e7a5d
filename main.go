package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/router"
	"github.com/prebid/auction-core/server"
	"github.com/prebid/auction-core/version"
)

const (
	configFileName    = "pbs"
	bidderInfoDirPath = "./static/bidder-info"
)

func main() {
	flag.Parse() // required for glog flags and testing package flags

	bidderInfos, err := config.LoadBidderInfoFromDisk(bidderInfoDirPath)
	if err != nil {
		glog.Exitf("Unable to load bidder configurations from %s: %v", bidderInfoDirPath, err)
	}

	cfg, err := loadConfig(bidderInfos)
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if err := serve(cfg, bidderInfos); err != nil {
		glog.Exitf("auction-core failed: %v", err)
	}
}

func loadConfig(bidderInfos config.BidderInfos) (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName, bidderInfos)
	return config.New(v, bidderInfos, openrtb_ext.NormalizeBidderName)
}

func serve(cfg *config.Configuration, bidderInfos config.BidderInfos) error {
	r, err := router.New(cfg, bidderInfos)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	corsRouter := router.SupportCORS(r)
	return server.Listen(cfg, router.NoCache{Handler: corsRouter}, router.Admin(version.Ver, version.Rev), r.MetricsEngine)
}
