// Package config assembles the FriendBook configuration from defaults, an
// optional JSON file, environment variables (a .env file included) and
// command-line flags, in increasing order of priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultEndpointURL is the friendface sample payload.
const DefaultEndpointURL = "https://www.hackingwithswift.com/samples/friendface.json"

// Config holds every setting of the application.
type Config struct {
	// EndpointURL is deliberately not checked for URL syntax here: a
	// malformed value has to reach the loader, which reports it as a failed
	// load.
	EndpointURL     string        `env:"ENDPOINT_URL" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"loglevel"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" validate:"gte=0"`
	RunAddr         string        `env:"SERVER_ADDRESS" validate:"omitempty,hostname_port"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" validate:"gte=0"`
	TrustedSubnet   string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ConfigFile      string        `env:"CONFIG"`
}

type jsonConfig struct {
	EndpointURL     string `json:"endpoint_url"`
	LogLevel        string `json:"log_level"`
	RequestTimeout  string `json:"request_timeout"`
	RunAddr         string `json:"server_address"`
	RefreshInterval string `json:"refresh_interval"`
	TrustedSubnet   string `json:"trusted_subnet"`
}

var defaultConfig = Config{
	EndpointURL:     DefaultEndpointURL,
	LogLevel:        "info",
	RequestTimeout:  0,
	RunAddr:         "",
	RefreshInterval: 0,
	TrustedSubnet:   "",
}

// ServeMode reports whether the HTTP API should be started.
func (c *Config) ServeMode() bool {
	return c.RunAddr != ""
}

// InitOption tunes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command-line flags entirely.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var valuesFromFlags Config
	var flagsSet map[string]bool
	if !options.disableFlagsParsing {
		var err error
		flagsSet, err = parseFlags(options.args, &valuesFromFlags)
		if err != nil {
			return nil, err
		}
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	configFile := valuesFromEnv.ConfigFile
	if flagsSet["c"] {
		configFile = valuesFromFlags.ConfigFile
	}
	if configFile != "" {
		if err := values.applyJSONFile(configFile); err != nil {
			return nil, err
		}
		values.ConfigFile = configFile
	}

	values.applyEnv(valuesFromEnv)
	values.applyFlags(valuesFromFlags, flagsSet)

	if err := validate(values); err != nil {
		return nil, err
	}

	return values, nil
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func parseFlags(args []string, values *Config) (map[string]bool, error) {
	fs := flag.NewFlagSet("friendbook", flag.ContinueOnError)
	fs.StringVar(&values.EndpointURL, "u", "", "URL of the friendface JSON payload")
	fs.StringVar(&values.LogLevel, "l", "", "logger level")
	fs.DurationVar(&values.RequestTimeout, "t", 0, "request timeout, 0 keeps the HTTP client default")
	fs.StringVar(&values.RunAddr, "a", "", "address and port to serve the API on; empty prints the list once")
	fs.DurationVar(&values.RefreshInterval, "r", 0, "reload period in serve mode, 0 disables")
	fs.StringVar(&values.TrustedSubnet, "s", "", "CIDR allowed to trigger reloads")
	fs.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	return set, nil
}

func (c *Config) applyJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fromFile jsonConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fromFile.EndpointURL != "" {
		c.EndpointURL = fromFile.EndpointURL
	}
	if fromFile.LogLevel != "" {
		c.LogLevel = fromFile.LogLevel
	}
	if fromFile.RunAddr != "" {
		c.RunAddr = fromFile.RunAddr
	}
	if fromFile.TrustedSubnet != "" {
		c.TrustedSubnet = fromFile.TrustedSubnet
	}
	if fromFile.RequestTimeout != "" {
		c.RequestTimeout, err = time.ParseDuration(fromFile.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parsing request_timeout: %w", err)
		}
	}
	if fromFile.RefreshInterval != "" {
		c.RefreshInterval, err = time.ParseDuration(fromFile.RefreshInterval)
		if err != nil {
			return fmt.Errorf("parsing refresh_interval: %w", err)
		}
	}

	return nil
}

func (c *Config) applyEnv(fromEnv Config) {
	if fromEnv.EndpointURL != "" {
		c.EndpointURL = fromEnv.EndpointURL
	}
	if fromEnv.LogLevel != "" {
		c.LogLevel = fromEnv.LogLevel
	}
	if fromEnv.RequestTimeout != 0 {
		c.RequestTimeout = fromEnv.RequestTimeout
	}
	if fromEnv.RunAddr != "" {
		c.RunAddr = fromEnv.RunAddr
	}
	if fromEnv.RefreshInterval != 0 {
		c.RefreshInterval = fromEnv.RefreshInterval
	}
	if fromEnv.TrustedSubnet != "" {
		c.TrustedSubnet = fromEnv.TrustedSubnet
	}
}

// applyFlags copies explicitly passed flags only, so "-a ''" can switch off
// a server address coming from the environment.
func (c *Config) applyFlags(fromFlags Config, set map[string]bool) {
	if set["u"] {
		c.EndpointURL = fromFlags.EndpointURL
	}
	if set["l"] {
		c.LogLevel = fromFlags.LogLevel
	}
	if set["t"] {
		c.RequestTimeout = fromFlags.RequestTimeout
	}
	if set["a"] {
		c.RunAddr = fromFlags.RunAddr
	}
	if set["r"] {
		c.RefreshInterval = fromFlags.RefreshInterval
	}
	if set["s"] {
		c.TrustedSubnet = fromFlags.TrustedSubnet
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
		"dpanic": true,
		"panic":  true,
		"fatal":  true,
	}

	return allowedLogLevels[value]
}

func validate(values *Config) error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}
