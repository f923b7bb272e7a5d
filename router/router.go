package router

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/didip/tollbooth"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/auction-core/config"
	"github.com/prebid/auction-core/endpoints"
	infoEndpoints "github.com/prebid/auction-core/endpoints/info"
	"github.com/prebid/auction-core/endpoints/openrtb2"
	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/exchange"
	"github.com/prebid/auction-core/metrics"
	metricsConf "github.com/prebid/auction-core/metrics/config"
	"github.com/prebid/auction-core/openrtb_ext"
	"github.com/prebid/auction-core/privacy"
	"github.com/prebid/auction-core/router/aspects"
	"github.com/prebid/auction-core/stored_requests"
	"github.com/prebid/auction-core/stored_requests/backends/empty_fetcher"
	"github.com/prebid/auction-core/stored_requests/backends/file_fetcher"
	"github.com/prebid/auction-core/stored_requests/backends/http_fetcher"
	"github.com/prebid/auction-core/version"
	"github.com/rs/cors"
)

// NewJsonDirectoryServer serves the bidder param schemas found in schemaDirectory as one JSON object
// keyed by bidder name. The blob is built once at startup; an unreadable directory or a schema for an
// unknown bidder stops the process.
func NewJsonDirectoryServer(schemaDirectory string, validator openrtb_ext.BidderParamValidator) httprouter.Handle {
	entries, err := os.ReadDir(schemaDirectory)
	if err != nil {
		glog.Fatalf("Failed to read directory %s: %v", schemaDirectory, err)
	}

	schemas := make(map[string]json.RawMessage, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		name, ok := openrtb_ext.NormalizeBidderName(raw)
		if !ok {
			glog.Fatalf("Schema exists for an unknown bidder: %s", raw)
		}
		schemas[name.String()] = json.RawMessage(validator.Schema(name))
	}

	blob, err := json.Marshal(schemas)
	if err != nil {
		glog.Fatalf("Failed to marshal bidder param JSON-schema: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(blob)
	}
}

// NoCache marks every response from Handler as uncacheable.
type NoCache struct {
	Handler http.Handler
}

var noCacheHeaders = [][2]string{
	{"Cache-Control", "no-cache, no-store, must-revalidate"},
	{"Pragma", "no-cache"},
	{"Expires", "0"},
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, h := range noCacheHeaders {
		w.Header().Set(h[0], h[1])
	}
	m.Handler.ServeHTTP(w, r)
}

// Router is the auction server's handler. Shutdown releases the pooled bidder connections.
type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Shutdown      func()
}

// newBidderTransport builds the pooled transport shared by every bidder call. Zero idle limits keep
// the net/http defaults.
func newBidderTransport(client config.HTTPClient) *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     dialer.DialContext,
		MaxConnsPerHost: client.MaxConnsPerHost,
		IdleConnTimeout: time.Duration(client.IdleConnTimeout) * time.Second,
	}
	if client.MaxIdleConns > 0 {
		transport.MaxIdleConns = client.MaxIdleConns
	}
	if client.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = client.MaxIdleConnsPerHost
	}
	return transport
}

// New wires the auction stack together and registers its endpoints.
func New(cfg *config.Configuration, bidderInfos config.BidderInfos) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
	}

	if errs := bidderInfos.Validate(nil); len(errs) > 0 {
		return nil, errortypes.NewAggregateErrors("invalid bidder info", errs)
	}

	transport := newBidderTransport(cfg.Client)
	bidderClient := &http.Client{Transport: transport}
	r.Shutdown = transport.CloseIdleConnections

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg, openrtb_ext.CoreBidderNames())

	paramsValidator, err := openrtb_ext.NewBidderParamsValidator(cfg.BidderParamsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create the bidder params validator: %v", err)
	}

	categoriesFetcher, err := newCategoryFetcher(cfg.CategoryMapping, bidderClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create the category fetcher: %v", err)
	}

	activeBidders := exchange.GetActiveBidders(cfg, bidderInfos)

	adapters, adaptersErrs := exchange.BuildAdapters(bidderClient, cfg, bidderInfos, r.MetricsEngine)
	if len(adaptersErrs) > 0 {
		return nil, errortypes.NewAggregateErrors("Failed to initialize adapters", adaptersErrs)
	}

	resolver := privacy.NewResolver(cfg, bidderInfos.ToGVLVendorIDMap())
	theExchange := exchange.NewExchange(adapters, cfg, r.MetricsEngine, resolver, categoriesFetcher)

	openrtbEndpoint, err := openrtb2.NewEndpoint(openrtb2.NewUUIDGenerator(), theExchange, paramsValidator, cfg, r.MetricsEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to create the openrtb2 endpoint handler: %v", err)
	}

	if cfg.RequestTimeoutHeaders != (config.RequestTimeoutHeaders{}) {
		openrtbEndpoint = aspects.QueuedRequestTimeout(openrtbEndpoint, cfg.RequestTimeoutHeaders, r.MetricsEngine, metrics.ReqTypeORTB2Web)
	}

	if cfg.RateLimit.MaxRequestsPerSecond > 0 {
		r.Handler("POST", "/openrtb2/auction", rateLimited(cfg.RateLimit, openrtbEndpoint))
	} else {
		r.POST("/openrtb2/auction", openrtbEndpoint)
	}
	r.GET("/info/bidders", infoEndpoints.NewBiddersEndpoint(activeBidders))
	r.GET("/info/bidders/:bidderName", infoEndpoints.NewBidderDetailsEndpoint(bidderInfos, cfg.Adapters))
	r.GET("/bidders/params", NewJsonDirectoryServer(cfg.BidderParamsDir, paramsValidator))
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))
	r.HandlerFunc("GET", "/version", endpoints.NewVersionEndpoint(version.Ver, version.Rev))

	glog.Infof("Router ready with %d active bidders", len(activeBidders))
	return r, nil
}

// newCategoryFetcher picks the category mapping backend. With neither backend configured every
// lookup misses and translated categories resolve to "unknown".
func newCategoryFetcher(cfg config.CategoryMapping, client *http.Client) (stored_requests.CategoryFetcher, error) {
	switch {
	case cfg.Files.Enabled:
		glog.Infof("Loading category mappings from %s", cfg.Files.Path)
		return file_fetcher.NewFileFetcher(cfg.Files.Path)
	case cfg.HTTP.Endpoint != "":
		return http_fetcher.NewFetcher(client, cfg.HTTP.Endpoint, time.Duration(cfg.HTTP.CacheTTLSeconds)*time.Second), nil
	default:
		glog.Warning("No category mapping backend configured")
		return empty_fetcher.EmptyFetcher{}, nil
	}
}

// rateLimited throttles handle per client IP. Requests over the limit get a 429 from the limiter.
func rateLimited(cfg config.RateLimit, handle httprouter.Handle) http.Handler {
	limiter := tollbooth.NewLimiter(cfg.MaxRequestsPerSecond, nil)
	limiter.SetMessage("Too many auction requests. Retry later.")
	return tollbooth.LimitHandler(limiter, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handle(w, req, nil)
	}))
}

// SupportCORS lets any origin call handler with credentials.
func SupportCORS(handler http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowCredentials: true,
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	}).Handler(handler)
}
