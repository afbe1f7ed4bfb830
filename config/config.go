// Package config holds the startup options of linkfinderd.
//
// Values come from, in increasing priority: defaults, an optional YAML file,
// LINKFINDER_* environment variables, then command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"linkfinder/crawler"
	"linkfinder/server"
	"linkfinder/transport"
)

const envPrefix = "LINKFINDER"

// Options is the startup configuration of the service.
type Options struct {
	flags   *pflag.FlagSet
	viper   *viper.Viper
	bindErr error

	// Flags from command line only.
	ShowHelp   bool   `mapstructure:"-"`
	ConfigFile string `mapstructure:"-"`

	Endpoint          string        `mapstructure:"endpoint"`
	Workers           int           `mapstructure:"workers"`
	FetchTimeout      time.Duration `mapstructure:"fetch-timeout"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout"`
	MaxBodyBytes      int64         `mapstructure:"max-body-bytes"`
	UserAgent         string        `mapstructure:"user-agent"`
	Rate              float64       `mapstructure:"rate"`
	Burst             int           `mapstructure:"burst"`
	Retries           int           `mapstructure:"retries"`
	RetryDelay        time.Duration `mapstructure:"retry-delay"`
	MetricsAddr       string        `mapstructure:"metrics-addr"`
	EtcdEndpoints     []string      `mapstructure:"etcd-endpoints"`
	ServiceName       string        `mapstructure:"service-name"`
	AdvertiseEndpoint string        `mapstructure:"advertise-endpoint"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout"`
	Debug             bool          `mapstructure:"debug"`
}

// New creates Options with every flag registered at its default.
func New(name string) *Options {
	opt := &Options{
		flags: pflag.NewFlagSet(name, pflag.ContinueOnError),
		viper: viper.New(),
	}

	opt.flags.BoolVarP(&opt.ShowHelp, "help", "h", false, "Print the helper message and exit.")
	opt.flags.StringVarP(&opt.ConfigFile, "config-file", "f", "", "Load configuration from a YAML file.")

	opt.flags.String("endpoint", transport.ListenEndpoint, "ZeroMQ endpoint to bind for client requests.")
	opt.flags.Int("workers", server.DefaultWorkers, "Number of crawls handled concurrently.")
	opt.flags.Duration("fetch-timeout", crawler.DefaultTimeout, "Timeout of a single HTTP fetch.")
	opt.flags.Duration("request-timeout", 0, "Timeout of a whole request including retries, 0 disables it.")
	opt.flags.Int64("max-body-bytes", crawler.DefaultMaxBodyBytes, "Maximum number of body bytes read from a page.")
	opt.flags.String("user-agent", crawler.DefaultUserAgent, "User-Agent header sent when fetching pages.")
	opt.flags.Float64("rate", 0, "Crawls allowed per second, 0 means unlimited.")
	opt.flags.Int("burst", 1, "Token bucket size used with --rate.")
	opt.flags.Int("retries", 0, "Retries of a crawl that failed with a transient network error.")
	opt.flags.Duration("retry-delay", 100*time.Millisecond, "Delay before the first retry, doubled after each attempt.")
	opt.flags.String("metrics-addr", "", "Address([host]:port) serving Prometheus metrics, empty disables it.")
	opt.flags.StringSlice("etcd-endpoints", nil, "etcd endpoints to advertise the service in, empty disables it.")
	opt.flags.String("service-name", server.DefaultServiceName, "Name the service is advertised under.")
	opt.flags.String("advertise-endpoint", "tcp://127.0.0.1:5555", "Endpoint clients should dial, stored in etcd.")
	opt.flags.Duration("shutdown-timeout", 10*time.Second, "Time to wait for in-flight crawls on shutdown.")
	opt.flags.Bool("debug", false, "Lower the log level from INFO to DEBUG.")

	opt.bindErr = opt.viper.BindPFlags(opt.flags)

	return opt
}

// Parse parses args (without the program name) and resolves the final values.
func (opt *Options) Parse(args []string) error {
	if opt.bindErr != nil {
		return fmt.Errorf("bind flags: %v", opt.bindErr)
	}
	if err := opt.flags.Parse(args); err != nil {
		return err
	}
	if opt.ShowHelp {
		return nil
	}

	opt.viper.SetEnvPrefix(envPrefix)
	opt.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opt.viper.AutomaticEnv()

	if opt.ConfigFile != "" {
		opt.viper.SetConfigFile(opt.ConfigFile)
		opt.viper.SetConfigType("yaml")
		if err := opt.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s failed: %v", opt.ConfigFile, err)
		}
	}

	if err := opt.viper.Unmarshal(opt); err != nil {
		return fmt.Errorf("unmarshal config: %v", err)
	}

	return opt.validate()
}

func (opt *Options) validate() error {
	switch {
	case opt.Endpoint == "":
		return fmt.Errorf("empty endpoint")
	case opt.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", opt.Workers)
	case opt.Rate < 0:
		return fmt.Errorf("rate must not be negative, got %v", opt.Rate)
	case opt.Rate > 0 && opt.Burst < 1:
		return fmt.Errorf("burst must be at least 1 when rate is set, got %d", opt.Burst)
	case opt.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", opt.Retries)
	}
	return nil
}

// FlagUsages returns the help text of every flag.
func (opt *Options) FlagUsages() string {
	return opt.flags.FlagUsages()
}

// FetcherOptions maps the crawl settings onto crawler.Options.
func (opt *Options) FetcherOptions() crawler.Options {
	return crawler.Options{
		Timeout:      opt.FetchTimeout,
		UserAgent:    opt.UserAgent,
		MaxBodyBytes: opt.MaxBodyBytes,
	}
}
