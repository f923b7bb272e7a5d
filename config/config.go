package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/prebid/auction-core/errortypes"
	"github.com/prebid/auction-core/openrtb_ext"
)

// Configuration specifies the static application config.
type Configuration struct {
	ExternalURL string `mapstructure:"external_url"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	AdminPort   int    `mapstructure:"admin_port"`
	EnableGzip  bool   `mapstructure:"enable_gzip"`
	// MaxRequestSize is the largest auction body, in bytes, the server will read.
	MaxRequestSize  int64              `mapstructure:"max_request_size"`
	AuctionTimeouts AuctionTimeouts    `mapstructure:"auction_timeouts_ms"`
	Auction         Auction            `mapstructure:"auction"`
	Client          HTTPClient         `mapstructure:"http_client"`
	Adapters        map[string]Adapter `mapstructure:"adapters"`
	GDPR            GDPR               `mapstructure:"gdpr"`
	CCPA            CCPA               `mapstructure:"ccpa"`
	LMT             LMT                `mapstructure:"lmt"`
	Privacy         Privacy            `mapstructure:"privacy"`
	CategoryMapping CategoryMapping    `mapstructure:"category_mapping"`
	Metrics         Metrics            `mapstructure:"metrics"`
	BidderInfoDir   string             `mapstructure:"bidder_info_dir"`
	BidderParamsDir string             `mapstructure:"bidder_params_dir"`
	DataCenter      string             `mapstructure:"datacenter"`
	StatusResponse  string             `mapstructure:"status_response"`
	RateLimit       RateLimit          `mapstructure:"rate_limit"`
	// RequestTimeoutHeaders name the headers a fronting proxy uses to report how long a request was queued.
	RequestTimeoutHeaders RequestTimeoutHeaders `mapstructure:"request_timeout_headers"`
}

type RequestTimeoutHeaders struct {
	RequestTimeInQueue    string `mapstructure:"request_time_in_queue"`
	RequestTimeoutInQueue string `mapstructure:"request_timeout_in_queue"`
}

// AuctionTimeouts bounds the time an auction may take.
type AuctionTimeouts struct {
	// The default timeout is used if the user's request didn't define one. Use 0 if there's no default.
	Default uint64 `mapstructure:"default"`
	// The max timeout is used as an absolute cap, to prevent excessively long ones. Use 0 for no cap
	Max uint64 `mapstructure:"max"`
}

// LimitAuctionTimeout returns the min of requested or cfg.MaxAuctionTimeout.
// Both values treat "0" as "infinite".
func (cfg *AuctionTimeouts) LimitAuctionTimeout(requested time.Duration) time.Duration {
	if requested == 0 && cfg.Default != 0 {
		return time.Duration(cfg.Default) * time.Millisecond
	}
	if cfg.Max > 0 {
		maxTimeout := time.Duration(cfg.Max) * time.Millisecond
		if requested == 0 || requested > maxTimeout {
			return maxTimeout
		}
	}
	return requested
}

func (cfg *AuctionTimeouts) validate(errs []error) []error {
	if cfg.Max < cfg.Default && cfg.Max > 0 {
		errs = append(errs, fmt.Errorf("auction_timeouts_ms.max cannot be less than auction_timeouts_ms.default. max=%d, default=%d", cfg.Max, cfg.Default))
	}
	return errs
}

// Auction holds the fan-out settings shared by every auction.
type Auction struct {
	// GracePeriodMS is how long past the deadline the exchange waits for a bidder to report before abandoning it.
	GracePeriodMS int `mapstructure:"grace_period_ms"`
}

// GracePeriod returns the grace period as a duration.
func (cfg Auction) GracePeriod() time.Duration {
	return time.Duration(cfg.GracePeriodMS) * time.Millisecond
}

type HTTPClient struct {
	MaxConnsPerHost     int `mapstructure:"max_connections_per_host"`
	MaxIdleConns        int `mapstructure:"max_idle_connections"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_connections_per_host"`
	IdleConnTimeout     int `mapstructure:"idle_connection_timeout_seconds"`
}

// GDPR configures TCF enforcement.
type GDPR struct {
	Enabled bool `mapstructure:"enabled"`
	// DefaultValue is "1" when GDPR applies to requests that do not say whether it does, "0" otherwise.
	DefaultValue string `mapstructure:"default_value"`
}

func (cfg *GDPR) validate(v *viper.Viper, errs []error) []error {
	if !v.IsSet("gdpr.default_value") {
		errs = append(errs, errors.New("gdpr.default_value is required and must be specified"))
	} else if cfg.DefaultValue != "0" && cfg.DefaultValue != "1" {
		errs = append(errs, fmt.Errorf("gdpr.default_value must be 0 or 1"))
	}
	return errs
}

type CCPA struct {
	Enforce bool `mapstructure:"enforce"`
}

type LMT struct {
	Enforce bool `mapstructure:"enforce"`
}

// Privacy configures how personal data is redacted.
type Privacy struct {
	IPMasking IPMasking `mapstructure:"ip_masking"`
}

// IPMasking holds the number of leading bits kept when an IP address is masked.
type IPMasking struct {
	IPv4PrefixBits int `mapstructure:"ipv4_prefix_bits"`
	IPv6PrefixBits int `mapstructure:"ipv6_prefix_bits"`
}

func (cfg *IPMasking) validate(errs []error) []error {
	if cfg.IPv4PrefixBits < 0 || cfg.IPv4PrefixBits > 32 {
		errs = append(errs, fmt.Errorf("privacy.ip_masking.ipv4_prefix_bits must be between 0 and 32. Got %d", cfg.IPv4PrefixBits))
	}
	if cfg.IPv6PrefixBits < 0 || cfg.IPv6PrefixBits > 128 {
		errs = append(errs, fmt.Errorf("privacy.ip_masking.ipv6_prefix_bits must be between 0 and 128. Got %d", cfg.IPv6PrefixBits))
	}
	return errs
}

// CategoryMapping configures where ad server category mappings are read from.
type CategoryMapping struct {
	Files FileFetcherConfig `mapstructure:"filesystem"`
	HTTP  HTTPFetcherConfig `mapstructure:"http"`
	// MaxLookupWorkers bounds the number of category lookups that run at once for one auction.
	MaxLookupWorkers int `mapstructure:"max_lookup_workers"`
}

type FileFetcherConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"directorypath"`
}

type HTTPFetcherConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

func (cfg *CategoryMapping) validate(errs []error) []error {
	if cfg.Files.Enabled && cfg.HTTP.Endpoint != "" {
		errs = append(errs, errors.New("category_mapping cannot use both filesystem and http backends"))
	}
	if cfg.MaxLookupWorkers <= 0 {
		errs = append(errs, fmt.Errorf("category_mapping.max_lookup_workers must be positive. Got %d", cfg.MaxLookupWorkers))
	}
	return errs
}

type Metrics struct {
	Influxdb   InfluxMetrics     `mapstructure:"influxdb"`
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type InfluxMetrics struct {
	Host               string `mapstructure:"host"`
	Database           string `mapstructure:"database"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MetricSendInterval int    `mapstructure:"metric_send_interval"`
}

func (cfg *InfluxMetrics) validate(errs []error) []error {
	if cfg.Host != "" && cfg.MetricSendInterval <= 0 {
		errs = append(errs, fmt.Errorf("metrics.influxdb.metric_send_interval must be positive. Got %d", cfg.MetricSendInterval))
	}
	return errs
}

type PrometheusMetrics struct {
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.Namespace == "" {
		errs = append(errs, errors.New("metrics.prometheus.namespace is required when metrics.prometheus.port is set"))
	}
	return errs
}

// RateLimit throttles /openrtb2/auction per client IP.
type RateLimit struct {
	// MaxRequestsPerSecond of 0 turns the limiter off.
	MaxRequestsPerSecond float64 `mapstructure:"max_requests_per_second"`
}

func (cfg *RateLimit) validate(errs []error) []error {
	if cfg.MaxRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests_per_second cannot be negative. Got %g", cfg.MaxRequestsPerSecond))
	}
	return errs
}

// Server carries the host level settings handed to every adapter builder.
type Server struct {
	ExternalUrl string
	GvlID       int
	DataCenter  string
}

func (cfg *Configuration) validate(v *viper.Viper) []error {
	var errs []error
	errs = cfg.AuctionTimeouts.validate(errs)
	errs = cfg.GDPR.validate(v, errs)
	errs = cfg.Privacy.IPMasking.validate(errs)
	errs = cfg.CategoryMapping.validate(errs)
	errs = cfg.Metrics.Influxdb.validate(errs)
	errs = cfg.Metrics.Prometheus.validate(errs)
	errs = cfg.RateLimit.validate(errs)
	errs = validateAdapters(cfg.Adapters, errs)
	if cfg.Auction.GracePeriodMS < 0 {
		errs = append(errs, fmt.Errorf("auction.grace_period_ms cannot be negative. Got %d", cfg.Auction.GracePeriodMS))
	}
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper, bidderInfos BidderInfos, normalizeBidderName func(string) (openrtb_ext.BidderName, bool)) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	adapters := make(map[string]Adapter, len(c.Adapters))
	for name, adapter := range c.Adapters {
		normalized, ok := normalizeBidderName(name)
		if !ok {
			glog.Warningf("Ignoring configuration for unknown adapter %s", name)
			continue
		}
		adapters[string(normalized)] = adapter
	}
	c.Adapters = adapters

	for name, info := range bidderInfos {
		if _, ok := c.Adapters[name]; !ok {
			c.Adapters[name] = Adapter{Endpoint: info.Endpoint}
		}
	}

	glog.Infof("Resolved configuration: host=%s port=%d admin_port=%d adapters=%d", c.Host, c.Port, c.AdminPort, len(c.Adapters))
	if errs := c.validate(v); len(errs) > 0 {
		return &c, errortypes.NewAggregateErrors("validation errors", errs)
	}

	return &c, nil
}

// SetupViper sets up viper with all the config defaults.
func SetupViper(v *viper.Viper, filename string, bidderInfos BidderInfos) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("external_url", "http://localhost:8000")
	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("max_request_size", 1024*256)
	v.SetDefault("auction_timeouts_ms.default", 1000)
	v.SetDefault("auction_timeouts_ms.max", 0)
	v.SetDefault("auction.grace_period_ms", 50)
	v.SetDefault("http_client.max_connections_per_host", 0) // unlimited
	v.SetDefault("http_client.max_idle_connections", 400)
	v.SetDefault("http_client.max_idle_connections_per_host", 10)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)
	v.SetDefault("gdpr.enabled", true)
	v.SetDefault("ccpa.enforce", true)
	v.SetDefault("lmt.enforce", true)
	v.SetDefault("privacy.ip_masking.ipv4_prefix_bits", 24)
	v.SetDefault("privacy.ip_masking.ipv6_prefix_bits", 56)
	v.SetDefault("category_mapping.filesystem.enabled", true)
	v.SetDefault("category_mapping.filesystem.directorypath", "./static/category-mapping")
	v.SetDefault("category_mapping.http.endpoint", "")
	v.SetDefault("category_mapping.http.cache_ttl_seconds", 3600)
	v.SetDefault("category_mapping.max_lookup_workers", 8)
	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.metric_send_interval", 20)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("bidder_info_dir", "./static/bidder-info")
	v.SetDefault("bidder_params_dir", openrtb_ext.SchemaDirectory)
	v.SetDefault("datacenter", "")
	v.SetDefault("status_response", "")
	v.SetDefault("rate_limit.max_requests_per_second", 0)
	v.SetDefault("request_timeout_headers.request_time_in_queue", "")
	v.SetDefault("request_timeout_headers.request_timeout_in_queue", "")

	for name, info := range bidderInfos {
		v.SetDefault("adapters."+strings.ToLower(name)+".endpoint", info.Endpoint)
		v.SetDefault("adapters."+strings.ToLower(name)+".disabled", false)
	}

	v.SetEnvPrefix("PBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// gdpr.default_value has no default, so it has to be bound for env overrides to reach Unmarshal.
	v.BindEnv("gdpr.default_value")
	if filename != "" {
		if err := v.ReadInConfig(); err != nil {
			glog.Warningf("Failed to read config file %s: %v", filename, err)
		}
	}
}
